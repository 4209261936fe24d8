package catalog

import (
	"github.com/smallbiznis/catalog/internal/cache"
	"github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/catalog/repository"
	"github.com/smallbiznis/catalog/internal/catalog/service"
	"github.com/smallbiznis/catalog/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(newFacetCache),
	fx.Provide(service.New),
)

// newFacetCache returns nil when FACET_CACHE_TTL_SECONDS is unset.
func newFacetCache(cfg config.Config) domain.FacetCache {
	if cfg.FacetCacheTTL <= 0 {
		return nil
	}
	return cache.NewFacetCache(cfg.FacetCacheTTL)
}
