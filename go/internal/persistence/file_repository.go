package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileRepository keeps each document in <dir>/<key>.json. When that file does
// not exist, Load falls back to a hand-written <dir>/<key>.default.json.
type FileRepository struct {
	dir string
}

// NewFileRepository creates the directory if needed
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}

func (r *FileRepository) defaultPath(key string) string {
	return filepath.Join(r.dir, key+".default.json")
}

// Load reads the document for key
func (r *FileRepository) Load(ctx context.Context, key string) ([]byte, error) {
	for _, p := range []string{r.path(key), r.defaultPath(key)} {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		log.Debug().Str("key", key).Str("file", p).Msg("loaded document")
		return data, nil
	}
	return nil, ErrNotFound
}

// Save replaces the document for key. The write goes to a temporary file that
// is renamed into place so readers never see a partial document.
func (r *FileRepository) Save(ctx context.Context, key string, document []byte) error {
	tmp, err := os.CreateTemp(r.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", r.path(key), err)
	}
	return nil
}

// Close is a no-op for files
func (r *FileRepository) Close() error {
	return nil
}
