// Package writer persists documentation entities and screenshots under a
// documentation root.
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eykd/scenariodoc/internal/entity"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// IOError reports a filesystem failure while writing documentation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FS is the filesystem seam the Writer writes through.
type FS interface {
	MkdirAll(dir string) error
	WriteFileAtomic(path string, data []byte) error
}

// Writer validates entities, serializes them with its Codec, and writes them
// to the given paths, creating missing parent directories.
type Writer struct {
	codec     Codec
	validator entity.Validator
	fs        FS
}

// Option configures a Writer.
type Option func(*Writer)

// WithFS replaces the OS filesystem.
func WithFS(fs FS) Option {
	return func(w *Writer) { w.fs = fs }
}

// New returns a Writer using codec and validating with validator.
func New(codec Codec, validator entity.Validator, opts ...Option) *Writer {
	w := &Writer{codec: codec, validator: validator, fs: OSFS{}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Codec returns the writer's codec.
func (w *Writer) Codec() Codec { return w.codec }

// Schema reports the schema entities are validated against.
func (w *Writer) Schema() entity.Schema { return w.validator.Schema }

// Validate checks v without writing it.
func (w *Writer) Validate(v any) error { return w.validator.Validate(v) }

// WriteEntity validates v as kind, serializes it and writes it to path. It
// returns the path written. Invalid entities are reported as
// *entity.ValidationError and nothing is written.
func (w *Writer) WriteEntity(ctx context.Context, kind entity.Kind, v any, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := w.validator.Validate(v); err != nil {
		return "", err
	}
	data, err := w.codec.Marshal(kind, v)
	if err != nil {
		return "", err
	}
	return w.WriteFile(ctx, path, data)
}

// WriteFile writes raw bytes (a screenshot, for instance) to path and
// returns the path written.
func (w *Writer) WriteFile(ctx context.Context, path string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := w.fs.MkdirAll(filepath.Dir(path)); err != nil {
		return "", &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := w.fs.WriteFileAtomic(path, data); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// OSFS writes to the local filesystem.
type OSFS struct{}

// MkdirAll creates dir and any missing parents.
func (OSFS) MkdirAll(dir string) error {
	return os.MkdirAll(dir, dirPerm)
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a half-written file.
func (OSFS) WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sdoc-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteScreenshot writes PNG bytes for a step.
func (w *Writer) WriteScreenshot(ctx context.Context, path string, png []byte) (string, error) {
	return w.WriteFile(ctx, path, png)
}
