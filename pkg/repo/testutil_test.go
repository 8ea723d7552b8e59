package repo

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/e2llm/repomd-janitor/pkg/backend"
)

// memBackend is a simple in-memory backend for tests.
type memBackend struct {
	files     map[string][]byte
	mtimes    map[string]time.Time
	deleted   []string
	written   []string
	listErr   error
	deleteErr map[string]error
	listCalls int
}

func newMemBackend() *memBackend {
	return &memBackend{
		files:     make(map[string][]byte),
		mtimes:    make(map[string]time.Time),
		deleteErr: make(map[string]error),
	}
}

func (m *memBackend) put(p string, data []byte, mtime time.Time) {
	m.files[p] = data
	m.mtimes[p] = mtime
}

func (m *memBackend) ListRepodata(ctx context.Context) ([]string, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []string
	for k := range m.files {
		if strings.HasPrefix(k, "repodata/") {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memBackend) Stat(ctx context.Context, p string) (backend.FileInfo, error) {
	if _, ok := m.files[p]; !ok {
		return backend.FileInfo{}, os.ErrNotExist
	}
	return backend.FileInfo{
		Name:    path.Base(p),
		Size:    int64(len(m.files[p])),
		ModTime: m.mtimes[p],
	}, nil
}

func (m *memBackend) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if d, ok := m.files[p]; ok {
		return d, nil
	}
	return nil, os.ErrNotExist
}

func (m *memBackend) WriteFile(ctx context.Context, p string, data []byte) error {
	m.files[p] = data
	m.written = append(m.written, p)
	return nil
}

func (m *memBackend) DeleteFile(ctx context.Context, p string) error {
	if err := m.deleteErr[p]; err != nil {
		return err
	}
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

// Exists matches an exact key, or treats p as a directory and reports whether
// anything lives under it.
func (m *memBackend) Exists(ctx context.Context, p string) (bool, error) {
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	for k := range m.files {
		if strings.HasPrefix(k, p+"/") {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBackend) RepoRoot() string { return "mem" }
