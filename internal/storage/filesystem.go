package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file exists at the key
var ErrNotFound = errors.New("file not found")

// FilesystemStorage implements Reader and Writer for the local filesystem.
// With an empty base directory keys are plain paths; otherwise keys are
// resolved inside the base directory and may not escape it.
type FilesystemStorage struct {
	baseDir string
}

// NewFilesystemStorage creates a new filesystem storage
func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	if baseDir != "" {
		// Ensure base directory exists
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	return &FilesystemStorage{
		baseDir: baseDir,
	}, nil
}

// resolve maps a key to a filesystem path
func (fs *FilesystemStorage) resolve(key string) (string, error) {
	if fs.baseDir == "" {
		return filepath.Clean(key), nil
	}

	base := filepath.Clean(fs.baseDir)
	path := filepath.Join(base, key)

	// Security: prevent directory traversal
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q: path traversal detected", key)
	}

	return path, nil
}

// GetReader returns a reader for the file at the given key
func (fs *FilesystemStorage) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// GetMetadata returns metadata for the file at the given key
func (fs *FilesystemStorage) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	meta := &Metadata{Size: info.Size()}

	// Sniff the content type from the first 512 bytes
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	meta.ContentType = http.DetectContentType(head[:n])

	return meta, nil
}

// Put writes r to the file at the given key. The data goes to a temporary
// file in the same directory first and is renamed into place, so a failed
// write never leaves a truncated file behind.
func (fs *FilesystemStorage) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := fs.resolve(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	return n, nil
}

var (
	_ Reader = (*FilesystemStorage)(nil)
	_ Writer = (*FilesystemStorage)(nil)
)
