package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	logger  *slog.Logger
}

func NewHTTPHandler(service ports.LinkService, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger.With("package", "handler")}
}

// CreateShortURLRequest payload
type CreateShortURLRequest struct {
	URL       string  `json:"url" binding:"required,url,max=2048"`
	Validity  *int    `json:"validity"`
	Shortcode *string `json:"shortcode"`
}

type CreateShortURLResponse struct {
	Code      string    `json:"code"`
	Shortlink string    `json:"shortlink"`
	Expiry    time.Time `json:"expiry"`
}

type StatsResponse struct {
	TotalClicks     int64           `json:"totalClicks"`
	OriginalURLInfo OriginalURLInfo `json:"originalUrlInfo"`
	DetailedClicks  []DetailedClick `json:"detailedClicks"`
}

type OriginalURLInfo struct {
	OriginalURL  string    `json:"originalUrl"`
	CreationDate time.Time `json:"creationDate"`
	ExpiryDate   time.Time `json:"expiryDate"`
}

type DetailedClick struct {
	Timestamp   time.Time   `json:"timestamp"`
	Source      string      `json:"source"`
	GeoLocation GeoLocation `json:"geoLocation"`
}

type GeoLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Create handles POST /api/shorturls
func (h *HTTPHandler) Create(c *gin.Context) {
	var req CreateShortURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.service.Create(c.Request.Context(), domain.CreateRequest{
		OriginalURL:     req.URL,
		ValidityMinutes: req.Validity,
		CustomCode:      req.Shortcode,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateShortURLResponse{
		Code:      link.Code,
		Shortlink: link.URL,
		Expiry:    link.ExpiresAt,
	})
}

// Redirect handles GET /:code
func (h *HTTPHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.Resolve(c.Request.Context(), code, domain.Visit{
		Referrer: c.GetHeader("Referer"),
		IP:       c.ClientIP(),
		Geo:      edgeGeo(c.Request.Header),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, originalURL)
}

// Stats handles GET /api/shorturls/:code
func (h *HTTPHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	clicks := make([]DetailedClick, 0, len(stats.Clicks))
	for _, click := range stats.Clicks {
		clicks = append(clicks, DetailedClick{
			Timestamp: click.Timestamp,
			Source:    click.Source,
			GeoLocation: GeoLocation{
				Latitude:  click.Geo.Latitude,
				Longitude: click.Geo.Longitude,
				City:      click.Geo.City,
				Country:   click.Geo.Country,
			},
		})
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalClicks: stats.TotalClicks,
		OriginalURLInfo: OriginalURLInfo{
			OriginalURL:  stats.OriginalURL,
			CreationDate: stats.CreatedAt,
			ExpiryDate:   stats.ExpiresAt,
		},
		DetailedClicks: clicks,
	})
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCodeInUse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLinkExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
