package server

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/catalog/internal/catalog"
	catalogdomain "github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/internal/observability"
	obsmiddleware "github.com/smallbiznis/catalog/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	obstracing "github.com/smallbiznis/catalog/internal/observability/tracing"
	"github.com/smallbiznis/catalog/internal/product"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/property"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
	"github.com/smallbiznis/catalog/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	property.Module,
	product.Module,
	catalog.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	registerTagNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

var tagNamesOnce sync.Once

// registerTagNames makes validator report query/json names instead of Go field names.
func registerTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})
	})
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger, shutdowner fx.Shutdowner) {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.String("addr", srv.Addr), zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	propertySvc propertydomain.Service
	productSvc  productdomain.Service
	catalogSvc  catalogdomain.Service
	facetCache  catalogdomain.FacetCache
	limiter     *ratelimit.CatalogLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	PropertySvc propertydomain.Service
	ProductSvc  productdomain.Service
	CatalogSvc  catalogdomain.Service
	FacetCache  catalogdomain.FacetCache  `optional:"true"`
	Limiter     *ratelimit.CatalogLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		propertySvc: p.PropertySvc,
		productSvc:  p.ProductSvc,
		catalogSvc:  p.CatalogSvc,
		facetCache:  p.FacetCache,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerCatalogRoutes()
	svc.registerProductRoutes()
	svc.registerPropertyRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCatalogRoutes() {
	catalog := s.engine.Group("/catalog", s.CatalogRateLimit())

	catalog.GET("", s.ListCatalog)
	catalog.GET("/filter", s.FilterCatalog)
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/products")

	products.POST("", s.CreateProduct)
	products.GET("/:uid", s.GetProduct)
	products.DELETE("/:uid", s.DeleteProduct)
}

func (s *Server) registerPropertyRoutes() {
	properties := s.engine.Group("/properties")

	properties.GET("", s.ListProperties)
	properties.POST("", s.CreateProperty)
	properties.GET("/:uid", s.GetProperty)
	properties.DELETE("/:uid", s.DeleteProperty)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

// invalidateFacets drops cached facet results after a catalog write.
func (s *Server) invalidateFacets() {
	if s.facetCache != nil {
		s.facetCache.Purge()
	}
}
