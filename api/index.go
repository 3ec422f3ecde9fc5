package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/app"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/config"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger := app.NewLogger(cfg)

	// Vercel's filesystem is ephemeral; point DATABASE_URL at Turso or Postgres.
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}
	mux = a.Router
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
