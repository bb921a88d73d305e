package main

import (
	"context"

	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/eventlog"
	"github.com/mcdev12/oscarnight/go/internal/gateway"
	"github.com/mcdev12/oscarnight/go/internal/metrics"
	"github.com/mcdev12/oscarnight/go/internal/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Services struct {
	Store    *collections.Store
	Writer   *persistence.Writer
	Gateway  *gateway.Service
	Mirror   *eventlog.Publisher
	Registry *prometheus.Registry
}

func setupServices(ctx context.Context, config *Config, b *backends, networkURLs []string) (*Services, error) {
	// Wire up dependency injection chain
	// Repository → Store → Writer → Gateway

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry, "oscarnight")

	snapshot, err := loadSnapshot(ctx, b.repo)
	if err != nil {
		return nil, err
	}
	store := collections.NewStore(snapshot)

	writerCfg := persistence.DefaultConfig()
	writerCfg.MaxRetries = config.Writer.MaxRetries
	writerCfg.RetryDelay = config.Writer.RetryDelay
	writerCfg.WriteTimeout = config.Writer.WriteTimeout
	writer := persistence.NewWriter(b.repo, writerCfg, collector)

	// Categories are written back once so defaults filled in at load are on disk
	writer.Save(string(collections.KeyCategories), store.Categories())

	deps := gateway.Dependencies{
		Persister: writer,
		Metrics:   collector,
	}

	var mirror *eventlog.Publisher
	if config.NATS.MirrorEvents {
		mirrorCfg := eventlog.DefaultJetStreamConfig()
		mirrorCfg.StreamName = config.NATS.Stream
		mirror, err = eventlog.NewPublisher(ctx, b.js, mirrorCfg)
		if err != nil {
			return nil, err
		}
		deps.Mirror = mirror
	}

	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.NetworkURLs = networkURLs

	return &Services{
		Store:    store,
		Writer:   writer,
		Gateway:  gateway.NewService(gatewayCfg, store, deps),
		Mirror:   mirror,
		Registry: registry,
	}, nil
}
