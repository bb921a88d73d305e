package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcdev12/oscarnight/go/internal/dbconfig"
	"github.com/mcdev12/oscarnight/go/internal/natsconn"
	"github.com/mcdev12/oscarnight/go/internal/persistence"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// backends holds the external connections opened at startup
type backends struct {
	repo persistence.Repository
	nc   *nats.Conn
	js   jetstream.JetStream
}

func (b *backends) close() {
	if b.repo != nil {
		if err := b.repo.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close repository")
		}
	}
	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}

// needsNATS reports whether the configuration uses a NATS server at all
func needsNATS(config *Config) bool {
	return strings.EqualFold(config.Storage.Backend, "nats") || config.NATS.MirrorEvents
}

func setupBackends(ctx context.Context, config *Config) (*backends, error) {
	b := &backends{}

	if needsNATS(config) {
		natsCfg := natsconn.DefaultConfig()
		natsCfg.URL = config.NATS.URL
		nc, js, err := natsconn.Connect(natsCfg)
		if err != nil {
			return nil, err
		}
		b.nc, b.js = nc, js
		log.Info().Str("nats_url", config.NATS.URL).Msg("connected to NATS")
	}

	repo, err := setupRepository(ctx, config, b.js)
	if err != nil {
		b.close()
		return nil, err
	}
	b.repo = repo
	return b, nil
}

func setupRepository(ctx context.Context, config *Config, js jetstream.JetStream) (persistence.Repository, error) {
	switch strings.ToLower(config.Storage.Backend) {
	case "postgres":
		dbCfg := dbconfig.NewConfigFromEnv()
		db, err := setupDatabase(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		repo := persistence.NewPostgresRepository(db, dbCfg.Table)
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case "nats":
		return persistence.NewKVRepository(ctx, js, config.Storage.Bucket)

	case "file":
		repo, err := persistence.NewFileRepository(config.Storage.Dir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", config.Storage.Dir).Msg("using file storage")
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
}
