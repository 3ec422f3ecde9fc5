package handler

import (
	"net/http"
	"net/url"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

// edgeGeo reads client location set by the edge proxy, if any.
// Vercel sends X-Vercel-IP-*; Cloudflare only sends the country.
func edgeGeo(h http.Header) *domain.Geo {
	geo := domain.Geo{
		Latitude:  h.Get("X-Vercel-IP-Latitude"),
		Longitude: h.Get("X-Vercel-IP-Longitude"),
		City:      h.Get("X-Vercel-IP-City"),
		Country:   h.Get("X-Vercel-IP-Country"),
	}
	if geo.Country == "" {
		geo.Country = h.Get("CF-IPCountry")
	}
	if geo == (domain.Geo{}) {
		return nil
	}

	// Vercel URL-encodes city names.
	if city, err := url.QueryUnescape(geo.City); err == nil {
		geo.City = city
	}
	return &geo
}
