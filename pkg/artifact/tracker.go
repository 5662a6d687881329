package artifact

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Tracker records the intermediate files produced during one pipeline run
// so they can be removed together afterwards. It is owned by a single run
// and is not safe for concurrent use.
type Tracker struct {
	paths []string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records a path for later cleanup. Duplicates are kept once.
func (t *Tracker) Add(path string) {
	if path == "" {
		return
	}
	for _, p := range t.paths {
		if p == path {
			return
		}
	}
	t.paths = append(t.paths, path)
}

// Paths returns the tracked paths in the order they were added.
func (t *Tracker) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Cleanup removes every tracked file, continuing past individual failures.
// It returns the paths that were removed and the collected errors for the
// rest. Paths that no longer exist count as removed.
func (t *Tracker) Cleanup() ([]string, error) {
	return Cleanup(t.paths)
}

// Cleanup removes the given files best-effort. Callers that disabled
// auto-clean can invoke it later with the same path list.
func Cleanup(paths []string) ([]string, error) {
	var removed []string
	var errs error

	for _, p := range paths {
		err := os.Remove(p)
		if err != nil && !os.IsNotExist(err) {
			errs = multierror.Append(errs, fmt.Errorf("removing %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}
	return removed, errs
}
