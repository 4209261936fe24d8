package seed

import (
	"context"

	"github.com/smallbiznis/catalog/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("seed",
	fx.Provide(New),
)

// Register seeds SEED_FILE on start. It is a no-op when the file is unset.
func Register(lc fx.Lifecycle, cfg config.Config, s *Seeder) {
	if cfg.SeedFile == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.RunFile(ctx, cfg.SeedFile)
		},
	})
}
