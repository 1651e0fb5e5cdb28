package http

import (
	"net/http"
	"time"

	"restoree/internal/app/certification"
	"restoree/internal/observability"
	"restoree/internal/shared/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps are the collaborators the routes call into.
type RouterDeps struct {
	Service *certification.Service
	Metrics *observability.MetricsCollector
	Logger  logging.Logger
}

// RouterConfig tunes middleware.
type RouterConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	RateLimit      RateLimitConfig
	Debug          bool
	Version        string
}

// NewRouter builds the gin engine with every endpoint mounted.
func NewRouter(deps RouterDeps, cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.OrNop(deps.Logger)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))
	engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	handler := NewDraftHandler(deps.Service, logger)
	health := &healthHandler{service: deps.Service, started: time.Now(), version: cfg.Version}

	engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := engine.Group("/api")
	api.Use(RateLimit(cfg.RateLimit), BodyLimit(cfg.MaxBodyBytes))
	api.GET("/health", health.handle)
	api.GET("/tags/:group", handler.Vocabulary)

	drafts := api.Group("/drafts")
	{
		drafts.POST("", handler.Create)
		drafts.GET("/:id", handler.Get)
		drafts.DELETE("/:id", handler.Reset)
		drafts.PATCH("/:id", handler.Update)
		drafts.PUT("/:id/metrics", handler.SetMetrics)
		drafts.PUT("/:id/metrics/:dimension", handler.SetMetric)
		drafts.POST("/:id/tags/:group/toggle", handler.ToggleTag)
		drafts.POST("/:id/tags/:group", handler.AddTag)
		drafts.PUT("/:id/images/:side", handler.SetImages)
		drafts.POST("/:id/logo/url", handler.LogoURL)
		drafts.POST("/:id/logo/upload", handler.LogoUpload)
		drafts.POST("/:id/logo/base64", handler.LogoBase64)
		drafts.DELETE("/:id/logo", handler.ResetLogo)
		drafts.POST("/:id/certificate-id", handler.NewCertificateID)
		drafts.GET("/:id/preview", handler.Preview)
		drafts.POST("/:id/export/:format", handler.Export)
		drafts.GET("/:id/live", handler.Live)
	}
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader}
	cfg.ExposeHeaders = []string{"Content-Disposition", requestIDHeader, certificateIDHeader}
	cfg.AllowWebSockets = true
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

type healthHandler struct {
	service *certification.Service
	started time.Time
	version string
}

type healthResponse struct {
	Status         string    `json:"status"`
	Version        string    `json:"version,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	ActiveSessions int       `json:"active_sessions"`
}

func (h *healthHandler) handle(c *gin.Context) {
	respondOK(c, healthResponse{
		Status:         "ok",
		Version:        h.version,
		Timestamp:      time.Now().UTC(),
		Uptime:         time.Since(h.started).Truncate(time.Second).String(),
		ActiveSessions: h.service.ActiveSessions(),
	})
}
