package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFSBackendWriteReadDelete(t *testing.T) {
	dir := t.TempDir()
	b := NewFSBackend(dir)

	ctx := context.Background()
	path := "repodata/file.txt"
	data := []byte("hello world")

	if err := b.WriteFile(ctx, path, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := b.ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}

	exists, err := b.Exists(ctx, path)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected file to exist")
	}

	if err := b.DeleteFile(ctx, path); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	exists, err = b.Exists(ctx, path)
	if err != nil {
		t.Fatalf("Exists after delete: %v", err)
	}
	if exists {
		t.Fatalf("expected file to not exist after delete")
	}
}

func TestFSBackendListRepodata(t *testing.T) {
	dir := t.TempDir()
	b := NewFSBackend(dir)
	ctx := context.Background()

	repodata := filepath.Join(dir, "repodata")
	if err := os.MkdirAll(repodata, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repodata, "repomd.xml"), []byte("test"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repodata, "primary.xml.gz"), []byte("test"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	files, err := b.ListRepodata(ctx)
	if err != nil {
		t.Fatalf("ListRepodata: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
}

func TestFSBackendStat(t *testing.T) {
	dir := t.TempDir()
	b := NewFSBackend(dir)
	ctx := context.Background()

	if err := b.WriteFile(ctx, "repodata/a.xml", []byte("abc")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(filepath.Join(dir, "repodata", "a.xml"), mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	info, err := b.Stat(ctx, "repodata/a.xml")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Name != "a.xml" || info.Size != 3 {
		t.Fatalf("unexpected info %+v", info)
	}
	if !info.ModTime.Equal(mtime) {
		t.Fatalf("modtime = %v, want %v", info.ModTime, mtime)
	}

	if _, err := b.Stat(ctx, "repodata/missing.xml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFSBackendDeleteNonExistent(t *testing.T) {
	b := NewFSBackend(t.TempDir())
	if err := b.DeleteFile(context.Background(), "nonexistent.txt"); err != nil {
		t.Fatalf("DeleteFile of non-existent should not error: %v", err)
	}
}

func TestFSBackendCanceledContext(t *testing.T) {
	b := NewFSBackend(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.ListRepodata(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := b.ReadFile(ctx, "test"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := b.Stat(ctx, "test"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := b.WriteFile(ctx, "test", []byte("data")); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := b.Exists(ctx, "test"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := b.DeleteFile(ctx, "test"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCopyFilePreservesAttributes(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	src := NewFSBackend(srcRoot)
	dst := NewFSBackend(dstRoot)
	ctx := context.Background()

	srcPath := filepath.Join(srcRoot, "repodata", "a-primary.xml.gz")
	if err := os.MkdirAll(filepath.Dir(srcPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(srcPath, []byte("payload"), 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	mtime := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	if err := os.Chtimes(srcPath, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := CopyFile(ctx, src, dst, "repodata/a-primary.xml.gz"); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	dstPath := filepath.Join(dstRoot, "repodata", "a-primary.xml.gz")
	data, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
	info, err := os.Stat(dstPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode not preserved: %v", info.Mode())
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("modtime not preserved: %v", info.ModTime())
	}
}

func TestCopyFileRefusesExistingDestination(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	ctx := context.Background()
	src := NewFSBackend(srcRoot)
	dst := NewFSBackend(dstRoot)

	if err := src.WriteFile(ctx, "repodata/x.xml", []byte("old")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := dst.WriteFile(ctx, "repodata/x.xml", []byte("new")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := CopyFile(ctx, src, dst, "repodata/x.xml"); err == nil {
		t.Fatalf("expected copy onto an existing file to fail")
	}
	data, err := dst.ReadFile(ctx, "repodata/x.xml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("destination mutated: %q", data)
	}
}

// S3 helper function tests

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"s3://bucket", "bucket", "", false},
		{"s3://bucket/", "bucket", "", false},
		{"s3://bucket/prefix", "bucket", "prefix", false},
		{"s3://bucket/prefix/path", "bucket", "prefix/path", false},
		{"s3://bucket/prefix/path/", "bucket", "prefix/path", false},
		{"http://bucket/prefix", "", "", true},
		{"s3://", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		bucket, prefix, err := parseS3URI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseS3URI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket {
			t.Errorf("parseS3URI(%q) bucket = %q, want %q", tt.uri, bucket, tt.wantBucket)
		}
		if prefix != tt.wantPrefix {
			t.Errorf("parseS3URI(%q) prefix = %q, want %q", tt.uri, prefix, tt.wantPrefix)
		}
	}
}

func TestKeyJoin(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "", ""},
		{"", "path", "path"},
		{"prefix", "", "prefix"},
		{"prefix", "path", "prefix/path"},
		{"prefix/", "path", "prefix/path"},
		{"prefix", "/path", "prefix/path"},
		{"prefix/", "/path", "prefix/path"},
		{"prefix", "a/b/c", "prefix/a/b/c"},
		{"", ".", ""},
		{"prefix", ".", "prefix"},
	}

	for _, tt := range tests {
		got := keyJoin(tt.prefix, tt.path)
		if got != tt.want {
			t.Errorf("keyJoin(%q, %q) = %q, want %q", tt.prefix, tt.path, got, tt.want)
		}
	}
}
