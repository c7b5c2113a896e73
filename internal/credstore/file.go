package credstore

import (
	"context"
	"fmt"
	"os"
)

// FileStore stores a credential document in a single file.
// Writes replace the whole file in one call. There is no temp file + rename,
// so a crash mid-write can leave a truncated file behind.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path.
// Unlike a token cache, parent directories are not created: the output path is
// expected to live in an existing directory.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Exists reports whether the file can be opened for reading.
// Not-found and permission-denied are both reported as false.
func (f *FileStore) Exists(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	file, err := os.Open(f.filePath)
	if err != nil {
		return false
	}
	_ = file.Close()
	return true
}

// Read returns the full file contents.
func (f *FileStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(f.filePath)
}

// Write saves data with a single write call. New files get 0600 permissions,
// existing files keep theirs.
func (f *FileStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.WriteFile(f.filePath, data, 0600)
}

// Location returns the file path.
func (f *FileStore) Location() string {
	return f.filePath
}
