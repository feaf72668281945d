package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/verdantlabs/plantguard/internal/config"
)

// Storage is the byte-addressed non-volatile collaborator. It receives and
// returns a whole opaque record image and never interprets fields.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, image []byte) error
}

// ErrNotFound is returned when no record image has been written yet.
var ErrNotFound = errors.New("record not found")

// FileStorage persists the record image as a single file on disk.
type FileStorage struct {
	// path is the filesystem location of the record image.
	path string
	// mu protects concurrent access to the image file.
	mu sync.Mutex
}

// NewFileStorage creates a storage backed by the file at the provided path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: filepath.Clean(path),
	}
}

// Load reads the whole record image from disk.
func (s *FileStorage) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	image, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read record file: %w", err)
	}

	return image, nil
}

// Save writes the whole record image to disk.
func (s *FileStorage) Save(_ context.Context, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, image, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}

	return nil
}
