// Package storage keeps uploaded log documents on local disk or in
// S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a named document does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrInvalidName is returned for names that reduce to nothing usable.
var ErrInvalidName = errors.New("storage: invalid name")

// Store types.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// ObjectInfo describes a stored document.
type ObjectInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store is a flat namespace of documents.
type Store interface {
	Type() string
	Save(ctx context.Context, name string, r io.Reader, size int64) (ObjectInfo, error)
	Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, name string) (ObjectInfo, error)
	List(ctx context.Context) ([]ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// Config selects and configures a Store.
type Config struct {
	Type     string
	LocalDir string
	S3       S3Config
}

// New builds the Store described by cfg.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStore(cfg.LocalDir)
	case TypeS3:
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown type %q", cfg.Type)
	}
}

// CleanName reduces name to its base component. Backslashes count as
// separators so Windows client paths are handled too. Dot-files are
// rejected: stores keep their temporary files under that prefix and List
// never reports them.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "/" || base == "" || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// Sweep deletes every document last modified before cutoff and returns the
// names removed. Individual delete failures are joined into the error.
func Sweep(ctx context.Context, s Store, cutoff time.Time) ([]string, error) {
	objs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var (
		removed []string
		errs    []error
	)
	for _, o := range objs {
		if !o.ModTime.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, o.Name); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, o.Name)
	}
	return removed, errors.Join(errs...)
}
