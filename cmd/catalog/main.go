package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/clock"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/internal/migration"
	"github.com/smallbiznis/catalog/internal/observability"
	"github.com/smallbiznis/catalog/internal/seed"
	"github.com/smallbiznis/catalog/internal/server"
	"github.com/smallbiznis/catalog/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Catalog domains and HTTP
		server.Module,
		seed.Module,
		fx.Invoke(seed.Register),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
