package repo

import (
	"context"
	"fmt"
	"path"

	"github.com/e2llm/repomd-janitor/pkg/backend"
	"github.com/e2llm/repomd-janitor/pkg/metadata"
)

// MigrateOldMetadata copies non-superseded metadata files from this
// repository's repodata directory into dst's. A file already present at the
// destination is never overwritten, and the old repomd.xml is never copied.
// A missing old repository is a no-op. Failures to copy individual files are
// logged and do not abort the remaining files.
func (r *Repo) MigrateOldMetadata(ctx context.Context, dst backend.Backend, retain int) error {
	if r.backend == nil || dst == nil {
		return fmt.Errorf("old and new backends are required")
	}

	exists, err := r.backend.Exists(ctx, "repodata")
	if err != nil {
		return fmt.Errorf("probe old repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	if !exists {
		return nil
	}

	r.debugf("copying files from the old repository to the new one")

	bl, err := r.selector().Blacklist(ctx, r.Strategy, retain)
	if err != nil {
		return err
	}
	bl.Add(metadata.RepomdName)

	paths, err := r.backend.ListRepodata(ctx)
	if err != nil {
		return fmt.Errorf("open repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	for _, p := range paths {
		if bl.Contains(path.Base(p)) {
			r.debugf("blacklisted: %s", p)
			continue
		}
		exists, err := dst.Exists(ctx, p)
		if err != nil {
			r.logger.Printf("warn: cannot probe %s in %s: %v", p, dst.RepoRoot(), err)
			continue
		}
		if exists {
			// The new generation's output always wins.
			r.debugf("skipped copy of %s (file already exists)", p)
			continue
		}
		if err := backend.CopyFile(ctx, r.backend, dst, p); err != nil {
			r.logger.Printf("warn: cannot copy %s -> %s: %v", p, dst.RepoRoot(), err)
			continue
		}
		r.debugf("copied %s -> %s", p, dst.RepoRoot())
	}
	return nil
}
