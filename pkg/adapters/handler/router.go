package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/config"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService, logger *slog.Logger) *gin.Engine {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Warn("SetTrustedProxies failed", "error", err)
	}
	r.Use(RequestLogger(logger), gin.Recovery(), CORS(cfg.FrontendURL))

	h := NewHTTPHandler(service, logger)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	api := r.Group("/api")
	api.POST("/shorturls", h.Create)
	api.GET("/shorturls/:code", h.Stats)

	// Registered last so it does not shadow /api or /healthz. Those segments
	// are reserved codes, see services.IsReservedCode.
	r.GET("/:code", h.Redirect)

	return r
}
