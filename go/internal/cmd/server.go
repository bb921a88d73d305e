package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/oscarnight/go/internal/health"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(config *Config, services *Services, b *backends) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Websocket and read endpoints
	services.Gateway.RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}))

	setupHealthCheck(mux, services, b)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func setupHealthCheck(mux *http.ServeMux, services *Services, b *backends) {
	var natsState health.NATSState
	if b.nc != nil {
		natsState = b.nc
	}
	connections := func() int { return services.Gateway.GetStats().TotalConnections }

	mux.Handle("GET /health", health.NewChecker(services.Writer, b.repo, natsState, connections))
}
