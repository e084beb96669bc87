package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object describes an uploaded file.
type Object struct {
	Bucket   string
	Key      string
	Location string
}

// Service archives uploaded source files in remote object storage.
type Service interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds <prefix>/<group>/<uuid><ext> keeping the upload's extension.
func ObjectKey(prefix, group, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, " /\\") {
		ext = ""
	}
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if g := strings.Trim(group, "/"); g != "" {
		parts = append(parts, g)
	}
	parts = append(parts, uuid.NewString()+ext)
	return path.Join(parts...)
}
