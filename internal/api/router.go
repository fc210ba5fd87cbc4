// Package api exposes the intake service over HTTP.
package api

import (
	"net/http"
	"time"

	"taf-intake/internal/common/config"
	"taf-intake/internal/common/errors"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/observability"
	"taf-intake/internal/intake/assembler"
	"taf-intake/internal/intake/blacklist"
	"taf-intake/internal/intake/certificate"
	"taf-intake/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Store         store.Store
	Gate          blacklist.Gate
	Assembler     *assembler.Assembler
	Observability *observability.Observability
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

func New(deps Deps) *gin.Engine {
	g := gin.New()
	g.Use(requestLogger(deps.Logger), gin.Recovery())
	if deps.Observability != nil {
		g.Use(requestMetrics(deps.Observability))
	}
	attachRoutes(g, deps)
	return g
}

func attachRoutes(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	if len(cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	errs := errors.NewErrorHandler(deps.Logger)
	timeout := config.GetDuration(cfg.Server.RequestTimeout)

	tafH := &TafHandler{
		store:     deps.Store,
		assembler: deps.Assembler,
		errors:    errs,
		timeout:   timeout,
		maxBody:   int64(cfg.Intake.MaxPhotoBytes) + maxBodyWithoutImg,
		certOpts: certificate.Options{
			Department:      cfg.Certificate.Department,
			LegacyFiveScale: cfg.Certificate.LegacyFiveScale,
		},
		logger: deps.Logger.WithFields(map[string]interface{}{"handler": "tafs"}),
	}
	checkH := &CheckHandler{
		gate:   deps.Gate,
		errors: errs,
	}
	healthH := &HealthHandler{
		store:   deps.Store,
		service: cfg.App.Name,
		timeout: timeout,
	}

	api := r.Group("/api")
	{
		api.POST("/tafs", tafH.Create)
		api.GET("/tafs", tafH.List)
		api.GET("/tafs/:id", tafH.Get)
		api.GET("/tafs/:id/certificate", tafH.Certificate)

		api.POST("/blacklist/check", checkH.Blacklist)
		api.POST("/evaluate", checkH.Evaluate)
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", healthH.Health)
	r.GET("/ready", healthH.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "rota não encontrada"})
	})
}
