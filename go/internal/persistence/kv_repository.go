package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// KVRepository stores documents in a JetStream key-value bucket
type KVRepository struct {
	kv jetstream.KeyValue
}

// NewKVRepository creates or updates the bucket and returns a repository on it
func NewKVRepository(ctx context.Context, js jetstream.JetStream, bucket string) (*KVRepository, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Oscar night session collections",
		History:     5,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create key-value bucket: %w", err)
	}

	log.Info().Str("bucket", bucket).Msg("using JetStream key-value bucket")
	return &KVRepository{kv: kv}, nil
}

// Load reads the latest revision for key
func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	entry, err := r.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Save writes a new revision for key
func (r *KVRepository) Save(ctx context.Context, key string, document []byte) error {
	if _, err := r.kv.Put(ctx, key, document); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the NATS connection belongs to the caller
func (r *KVRepository) Close() error {
	return nil
}
