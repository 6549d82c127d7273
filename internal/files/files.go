// Package files stores uploaded print files under a per-requester namespace.
package files

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
)

var ErrNotFound = errors.New("file not found")

// Store writes and reads named blobs. Save creates the namespace if absent.
type Store interface {
	Save(ctx context.Context, namespace, name string, data []byte) error
	Get(ctx context.Context, namespace, name string) ([]byte, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces name to a safe single path element.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}

// Namespace is the folder holding a requester's uploads.
func Namespace(displayName string) string {
	return SanitizeFilename(displayName) + "_uploads"
}
