// Package upload stores images players pick for a round and drawings they
// submit, returning the URL other clients fetch them from.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload errors
var (
	ErrTooLarge    = errors.New("upload: image too large")
	ErrNotAnImage  = errors.New("upload: not a supported image")
	ErrInvalidName = errors.New("upload: invalid file name")
)

// Uploader stores an image and returns its URL
type Uploader interface {
	ProcessAndStoreImage(ctx context.Context, name string, r io.Reader) (string, error)
}

// Disk writes images under a directory served at baseURL
type Disk struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *slog.Logger
}

// NewDisk creates the upload directory if needed
func NewDisk(dir, baseURL string, maxBytes int64, logger *slog.Logger) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create dir: %w", err)
	}
	return &Disk{
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

// ProcessAndStoreImage validates the image and writes it under a fresh name.
// The original name only contributes to the log line.
func (d *Disk) ProcessAndStoreImage(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("upload: read: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotAnImage
	}

	file := uuid.NewString() + "." + format
	if err := os.WriteFile(filepath.Join(d.dir, file), data, 0o644); err != nil {
		return "", fmt.Errorf("upload: write: %w", err)
	}

	d.logger.Info("image stored", "name", name, "file", file, "bytes", len(data))
	return d.baseURL + "/" + file, nil
}

// Open returns a stored file by the name embedded in its URL
func (d *Disk) Open(file string) (*os.File, error) {
	if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return nil, ErrInvalidName
	}
	return os.Open(filepath.Join(d.dir, file))
}

// Dir returns the directory images are written to
func (d *Disk) Dir() string {
	return d.dir
}
