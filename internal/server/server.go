// Package server exposes the HTTP surface: the store webhook, interactive
// auth, gated property search and usage endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/entremotivator/rentalappp1/internal/audit/domain"
	"github.com/entremotivator/rentalappp1/internal/config"
	identitydomain "github.com/entremotivator/rentalappp1/internal/identity/domain"
	"github.com/entremotivator/rentalappp1/internal/observability/logger"
	"github.com/entremotivator/rentalappp1/internal/observability/metrics"
	propertydomain "github.com/entremotivator/rentalappp1/internal/property/domain"
	"github.com/entremotivator/rentalappp1/internal/provision"
	"github.com/entremotivator/rentalappp1/internal/session"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg          config.Config
	Log          *zap.Logger
	DB           *gorm.DB
	GenID        *snowflake.Node
	ProvisionSvc provision.Service
	Identity     identitydomain.AdminClient
	PropertySvc  propertydomain.Service
	UsageSvc     usagedomain.Service
	Sessions     *session.Manager
	AuditSvc     auditdomain.Service `optional:"true"`
}

type Server struct {
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	genID        *snowflake.Node
	engine       *gin.Engine
	provisionSvc provision.Service
	identity     identitydomain.AdminClient
	propertySvc  propertydomain.Service
	usageSvc     usagedomain.Service
	sessions     *session.Manager
	auditSvc     auditdomain.Service
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log.Named("http"),
		SkipPaths: []string{"/health", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p Params, engine *gin.Engine) *Server {
	return &Server{
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		db:           p.DB,
		genID:        p.GenID,
		engine:       engine,
		provisionSvc: p.ProvisionSvc,
		identity:     p.Identity,
		propertySvc:  p.PropertySvc,
		usageSvc:     p.UsageSvc,
		sessions:     p.Sessions,
		auditSvc:     p.AuditSvc,
	}
}

// RegisterAPIRoutes declares the full HTTP surface.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/health", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhookLimiter := newRateLimiter(60, time.Minute)
	webhook := s.engine.Group("/webhook", s.RateLimit(webhookLimiter))
	{
		webhook.POST("/woocommerce", s.WooCommerceWebhook)
	}

	authLimiter := newRateLimiter(30, time.Minute)
	api := s.engine.Group("/api")
	{
		api.POST("/check-access", s.RateLimit(authLimiter), s.CheckAccess)
		api.POST("/provision-user", s.RateLimit(authLimiter), s.ProvisionUser)
		api.POST("/login", s.RateLimit(authLimiter), s.Login)

		authed := api.Group("", s.SessionRequired())
		{
			authed.POST("/logout", s.Logout)
			authed.GET("/me", s.Me)
			authed.GET("/usage", s.Usage)

			authed.POST("/property/search", s.SearchProperty)
			authed.GET("/property/market", s.MarketData)

			authed.GET("/searches", s.ListSearches)
			authed.GET("/searches/stats", s.SearchStats)
			authed.GET("/searches/:id", s.GetSearch)
			authed.DELETE("/searches/:id", s.DeleteSearch)
			authed.DELETE("/searches", s.ClearSearches)
		}
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
