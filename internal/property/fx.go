package property

import (
	"github.com/smallbiznis/catalog/internal/property/repository"
	"github.com/smallbiznis/catalog/internal/property/service"
	"go.uber.org/fx"
)

var Module = fx.Module("property.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
