package backend

import (
	"context"
	"time"
)

// FileInfo describes a single file inside a repository.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Backend abstracts storage for a single repository root.
// Paths are always relative to the repository root (e.g. "repodata/repomd.xml").
type Backend interface {
	ListRepodata(ctx context.Context) ([]string, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	DeleteFile(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	RepoRoot() string
}

// CopyFile copies path from src into dst at the same relative path. When both
// sides live on the local filesystem the copy is recursive and preserves file
// modes and modification times; between two S3 roots the copy happens server
// side. Any other pairing falls back to a read/write round trip.
func CopyFile(ctx context.Context, src, dst Backend, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fsrc, ok := src.(*FSBackend); ok {
		if fdst, ok := dst.(*FSBackend); ok {
			return copyTree(fsrc.abs(path), fdst.abs(path))
		}
	}
	if ssrc, ok := src.(*S3Backend); ok {
		if sdst, ok := dst.(*S3Backend); ok {
			return sdst.copyObjectFrom(ctx, ssrc, path)
		}
	}
	data, err := src.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	return dst.WriteFile(ctx, path, data)
}
