package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Repository when no document exists for a key
var ErrNotFound = errors.New("document not found")

// Repository stores whole collection documents by key
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, document []byte) error
	Close() error
}

// LoadDocument loads and decodes the document stored under key. found is false
// when the repository has no document for the key.
func LoadDocument[T any](ctx context.Context, repo Repository, key string) (doc T, found bool, err error) {
	raw, err := repo.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, true, nil
}
