package repo

import (
	"context"
	"fmt"
	"path"

	"github.com/e2llm/repomd-janitor/pkg/metadata"
	"github.com/e2llm/repomd-janitor/pkg/retention"
)

// PruneOldMetadata deletes superseded metadata files from the repository's
// repodata directory. retain bounds how many historical files of each
// metadata family survive; the repomd.xml of the superseded generation is
// always removed. Failures to delete individual files are logged and do not
// abort the remaining files.
func (r *Repo) PruneOldMetadata(ctx context.Context, retain int) error {
	if r.backend == nil {
		return fmt.Errorf("backend is required")
	}

	bl, err := r.selector().Blacklist(ctx, retention.StrategyClassic, retain)
	if err != nil {
		return err
	}
	bl.Add(metadata.RepomdName)

	paths, err := r.backend.ListRepodata(ctx)
	if err != nil {
		return fmt.Errorf("open repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	for _, p := range paths {
		if !bl.Contains(path.Base(p)) {
			continue
		}
		if err := r.backend.DeleteFile(ctx, p); err != nil {
			r.logger.Printf("warn: cannot remove %s: %v", p, err)
			continue
		}
		r.debugf("removed %s", p)
	}
	return nil
}
