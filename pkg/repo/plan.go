package repo

import (
	"context"
	"fmt"
	"path"

	"github.com/e2llm/repomd-janitor/pkg/backend"
	"github.com/e2llm/repomd-janitor/pkg/metadata"
	"github.com/e2llm/repomd-janitor/pkg/retention"
)

// Report lists the file-level decisions a prune or migrate run would take.
type Report struct {
	Delete []string `json:"delete,omitempty"`
	Copy   []string `json:"copy,omitempty"`
	Skip   []string `json:"skip,omitempty"`
}

// PlanPrune reports which repodata files a prune with the given retain count
// would delete, without touching the repository.
func (r *Repo) PlanPrune(ctx context.Context, retain int) (Report, error) {
	if r.backend == nil {
		return Report{}, fmt.Errorf("backend is required")
	}

	bl, err := r.selector().Blacklist(ctx, retention.StrategyClassic, retain)
	if err != nil {
		return Report{}, err
	}
	bl.Add(metadata.RepomdName)

	paths, err := r.backend.ListRepodata(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("open repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	var report Report
	for _, p := range paths {
		if bl.Contains(path.Base(p)) {
			report.Delete = append(report.Delete, p)
		} else {
			report.Skip = append(report.Skip, p)
		}
	}
	return report, nil
}

// PlanMigrate reports which repodata files a migration into dst would copy
// and which it would skip, without copying anything.
func (r *Repo) PlanMigrate(ctx context.Context, dst backend.Backend, retain int) (Report, error) {
	if r.backend == nil || dst == nil {
		return Report{}, fmt.Errorf("old and new backends are required")
	}

	exists, err := r.backend.Exists(ctx, "repodata")
	if err != nil {
		return Report{}, fmt.Errorf("probe old repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	if !exists {
		return Report{}, nil
	}

	bl, err := r.selector().Blacklist(ctx, r.Strategy, retain)
	if err != nil {
		return Report{}, err
	}
	bl.Add(metadata.RepomdName)

	paths, err := r.backend.ListRepodata(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("open repodata in %s: %w", r.backend.RepoRoot(), err)
	}
	var report Report
	for _, p := range paths {
		if bl.Contains(path.Base(p)) {
			report.Skip = append(report.Skip, p)
			continue
		}
		exists, err := dst.Exists(ctx, p)
		if err != nil {
			return Report{}, fmt.Errorf("probe %s in %s: %w", p, dst.RepoRoot(), err)
		}
		if exists {
			report.Skip = append(report.Skip, p)
			continue
		}
		report.Copy = append(report.Copy, p)
	}
	return report, nil
}
