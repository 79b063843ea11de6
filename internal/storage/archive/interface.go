// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/riskon/internal/core"
)

// Storage defines the interface for report archive backends
type Storage interface {
	// Write stores data at the given path, replacing any previous object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path; a missing object is core.ErrNoData
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Options selects and configures a backend
type Options struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// New builds the configured backend
func New(opts Options) (Storage, error) {
	switch opts.Type {
	case "", "localfs":
		return NewLocalFS(opts.Path)
	case "s3":
		return NewS3(opts.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", opts.Type))
	}
}

// cleanKey normalises a slash-separated key and rejects escapes from the root
func cleanKey(key string) (string, error) {
	slashed := strings.ReplaceAll(key, "\\", "/")
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("archive key %q escapes the root", key))
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if cleaned == "" {
		return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("empty archive key %q", key))
	}
	return cleaned, nil
}
