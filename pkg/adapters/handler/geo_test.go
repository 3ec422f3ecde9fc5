package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

func TestEdgeGeo(t *testing.T) {
	t.Run("no headers", func(t *testing.T) {
		assert.Nil(t, edgeGeo(http.Header{}))
	})

	t.Run("vercel", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Vercel-IP-Latitude", "13.75")
		h.Set("X-Vercel-IP-Longitude", "100.50")
		h.Set("X-Vercel-IP-City", "S%C3%A3o%20Paulo")
		h.Set("X-Vercel-IP-Country", "BR")

		geo := edgeGeo(h)
		require.NotNil(t, geo)
		assert.Equal(t, domain.Geo{Latitude: "13.75", Longitude: "100.50", City: "São Paulo", Country: "BR"}, *geo)
	})

	t.Run("cloudflare country only", func(t *testing.T) {
		h := http.Header{}
		h.Set("CF-IPCountry", "TH")

		geo := edgeGeo(h)
		require.NotNil(t, geo)
		assert.Equal(t, domain.Geo{Country: "TH"}, *geo)
	})
}
