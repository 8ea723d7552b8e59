package repo

import (
	"io"
	"log"
	"os"

	"github.com/e2llm/repomd-janitor/pkg/backend"
	"github.com/e2llm/repomd-janitor/pkg/retention"
)

// Repo wraps a repository backend with the retention operations that run
// around a metadata regeneration: pruning superseded files in place and
// migrating survivors into a freshly generated repository.
type Repo struct {
	backend backend.Backend
	logger  *log.Logger
	// Strategy selects how migration computes its blacklist. Pruning always
	// uses the classic strategy, matching the original createrepo behaviour.
	Strategy retention.Strategy
	// Debug enables per-file logging of removals, copies and skips.
	Debug bool
}

func New(b backend.Backend) *Repo {
	return &Repo{
		backend: b,
		logger:  log.New(os.Stderr, "", 0),
	}
}

// WithLogger overrides the logger used for warnings and debug output.
func (r *Repo) WithLogger(w io.Writer) {
	r.logger = log.New(w, "", 0)
}

func (r *Repo) selector() *retention.Selector {
	sel := retention.NewSelector(r.backend, r.logger)
	sel.Debug = r.Debug
	return sel
}

func (r *Repo) debugf(format string, args ...interface{}) {
	if r.Debug {
		r.logger.Printf(format, args...)
	}
}
