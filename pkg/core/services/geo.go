package services

import (
	"context"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// NoGeo is the GeoResolver used when no geo-IP source is configured.
type NoGeo struct{}

func (NoGeo) Lookup(context.Context, string) domain.Geo {
	return domain.Geo{}
}

var _ ports.GeoResolver = NoGeo{}
