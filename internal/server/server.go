package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/northlink/partnerhub/internal/commission"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	"github.com/northlink/partnerhub/internal/config"
	"github.com/northlink/partnerhub/internal/conflictscan"
	"github.com/northlink/partnerhub/internal/geocode"
	"github.com/northlink/partnerhub/internal/observability"
	obsmiddleware "github.com/northlink/partnerhub/internal/observability/logger"
	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	obstracing "github.com/northlink/partnerhub/internal/observability/tracing"
	"github.com/northlink/partnerhub/internal/partner"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	"github.com/northlink/partnerhub/internal/territory"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	geocode.Module,
	commission.Module,
	territory.Module,
	partner.Module,
	conflictscan.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	commissionSvc commissiondomain.Service
	territorySvc  territorydomain.Service
	partnerSvc    partnerdomain.Service
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	CommissionSvc commissiondomain.Service
	TerritorySvc  territorydomain.Service
	PartnerSvc    partnerdomain.Service
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		commissionSvc: p.CommissionSvc,
		territorySvc:  p.TerritorySvc,
		partnerSvc:    p.PartnerSvc,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerCommissionRoutes()
	svc.registerTerritoryRoutes()
	svc.registerPartnerRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCommissionRoutes() {
	commissions := s.engine.Group("/v1/commissions")

	commissions.POST("/calculate", s.CalculateCommission)
	commissions.POST("/calculate/batch", s.CalculateCommissionBatch)
	commissions.POST("/validate", s.ValidateCommissionResult)
	commissions.POST("/simulate", s.SimulateCommission)
	commissions.GET("/tiers", s.ListCommissionTiers)
	commissions.PUT("/tiers", s.UpsertCommissionTier)
	commissions.GET("/tiers/eligible", s.GetEligibleTier)
	commissions.GET("/tiers/:code", s.GetCommissionTier)
}

func (s *Server) registerTerritoryRoutes() {
	territories := s.engine.Group("/v1/territories")

	territories.POST("/validate", s.ValidateAddress)
	territories.POST("/validate/bulk", s.ValidateAddressBulk)
	territories.GET("", s.ListTerritories)
	territories.POST("", s.CreateTerritory)
	territories.GET("/overlaps", s.ListTerritoryOverlaps)
	territories.GET("/:id/stats", s.GetTerritoryStats)
	territories.DELETE("/:id", s.DeleteTerritory)
}

func (s *Server) registerPartnerRoutes() {
	partners := s.engine.Group("/v1/partners")

	partners.GET("", s.ListPartners)
	partners.POST("", s.CreatePartner)
	partners.GET("/:id", s.GetPartnerByID)
	partners.POST("/:id/revenue", s.RecordPartnerRevenue)
	partners.GET("/:id/tier", s.GetPartnerTier)
	partners.GET("/:id/territories", s.ListPartnerTerritories)
	partners.GET("/:id/access/:territoryID", s.CheckPartnerAccess)
}
