package retention

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"time"

	"github.com/e2llm/repomd-janitor/pkg/backend"
	"github.com/e2llm/repomd-janitor/pkg/metadata"
)

// RetainAll keeps every historical metadata file.
const RetainAll = -1

// ErrInvalidRetain reports a retain count below -1.
var ErrInvalidRetain = errors.New("number of retained old metadata files must be an integer >= -1")

// sentinelModTime sorts files whose stat failed as the oldest candidates, so
// unstatable files are the first to be blacklisted.
var sentinelModTime = time.Unix(1, 0)

// Strategy selects how the blacklist of superseded metadata is computed.
type Strategy int

const (
	// StrategyClassic trusts on-disk filenames and modification times, the
	// way the original createrepo searched for old metadata.
	StrategyClassic Strategy = iota
	// StrategyRepomd trusts the record list of the previous repomd.xml.
	StrategyRepomd
)

func (s Strategy) String() string {
	switch s {
	case StrategyRepomd:
		return "repomd"
	default:
		return "classic"
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "classic":
		return StrategyClassic, nil
	case "repomd":
		return StrategyRepomd, nil
	default:
		return 0, fmt.Errorf("unknown retention strategy %q", s)
	}
}

// Blacklist is a set of base filenames slated for deletion or copy-exclusion.
type Blacklist map[string]struct{}

func (b Blacklist) Add(name string) {
	b[name] = struct{}{}
}

func (b Blacklist) Contains(name string) bool {
	_, ok := b[name]
	return ok
}

// Names returns the blacklisted basenames in sorted order.
func (b Blacklist) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selector computes blacklists of superseded metadata for one repository.
type Selector struct {
	backend backend.Backend
	logger  *log.Logger
	// Debug enables logging of records skipped without a warning.
	Debug bool
}

// NewSelector wraps a backend. A nil logger defaults to stderr.
func NewSelector(b backend.Backend, logger *log.Logger) *Selector {
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	return &Selector{backend: b, logger: logger}
}

// Blacklist computes the set of superseded metadata basenames using the given
// strategy. The repomd.xml itself is never part of the result; callers decide
// whether to add it.
func (s *Selector) Blacklist(ctx context.Context, strategy Strategy, retain int) (Blacklist, error) {
	if strategy == StrategyRepomd {
		return s.blacklistRepomd(ctx, retain)
	}
	return s.blacklistClassic(ctx, retain)
}

type oldFile struct {
	name    string
	modTime time.Time
}

// blacklistClassic keeps the retain newest files of each metadata family and
// blacklists the rest, ordering files by modification time.
func (s *Selector) blacklistClassic(ctx context.Context, retain int) (Blacklist, error) {
	bl := make(Blacklist)
	if retain == RetainAll {
		return bl, nil
	}
	if retain < 0 {
		return nil, ErrInvalidRetain
	}

	paths, err := s.backend.ListRepodata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repodata: %w", err)
	}

	var families [familyCount][]oldFile
	for _, p := range paths {
		name := path.Base(p)
		fam, ok := Classify(name)
		if !ok {
			continue
		}
		mtime := sentinelModTime
		if info, err := s.backend.Stat(ctx, p); err != nil {
			s.logger.Printf("warn: stat %s: %v", p, err)
		} else {
			mtime = info.ModTime
		}
		families[fam] = append(families[fam], oldFile{name: name, modTime: mtime})
	}

	for _, files := range families {
		// Most recent files first.
		sort.SliceStable(files, func(i, j int) bool {
			return files[i].modTime.After(files[j].modTime)
		})
		if len(files) <= retain {
			continue
		}
		for _, f := range files[retain:] {
			bl.Add(f.name)
		}
	}
	return bl, nil
}

// blacklistRepomd blacklists every file the previous repomd.xml references,
// but only under an exact zero-retention policy. The old manifest is
// best-effort provenance: parse failures degrade to an empty blacklist.
func (s *Selector) blacklistRepomd(ctx context.Context, retain int) (Blacklist, error) {
	bl := make(Blacklist)
	if retain == RetainAll || retain > 0 {
		return bl, nil
	}
	if retain < 0 {
		return nil, ErrInvalidRetain
	}

	md, err := metadata.LoadRepoMD(ctx, s.backend)
	if err != nil {
		s.logger.Printf("warn: cannot parse %s: %v", metadata.RepomdPath, err)
		return bl, nil
	}

	for _, d := range md.Data {
		if d.Location.Href == "" {
			s.logger.Printf("warn: repomd record %q without location href", d.Type)
			continue
		}
		if d.Location.Base != "" {
			// Files with a base location live outside repodata/.
			if s.Debug {
				s.logger.Printf("ignoring repomd record with base location: %s - %s", d.Location.Base, d.Location.Href)
			}
			continue
		}
		bl.Add(path.Base(d.Location.Href))
	}
	return bl, nil
}
