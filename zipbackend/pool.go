package zipbackend

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/desertwitch/vfscore/internal/logging"
)

// poolHandle is a single reusable backing file descriptor over the archive,
// leased to at most one reader adapter at a time.
type poolHandle struct {
	f      *os.File
	leased bool
}

// pool is the backing-stream pool. It is not thread-safe: a backend and
// every reader it has vended share one thread of control.
type pool struct {
	archivePath string
	handles     []*poolHandle

	softCap     int
	warnedOnce  sync.Once
}

// newPool returns a pool over archivePath. softCapFromRlimit sizes a
// soft-cap advisory derived from the process's open-file-descriptor budget.
func newPool(archivePath string) *pool {
	return &pool{
		archivePath: archivePath,
		softCap:     softCapFromRlimit(),
	}
}

// acquire leases an unused handle, opening a fresh one against the archive
// file if every existing handle is currently leased.
func (p *pool) acquire() (*poolHandle, error) {
	for _, h := range p.handles {
		if !h.leased {
			h.leased = true

			return h, nil
		}
	}

	f, err := os.Open(p.archivePath)
	if err != nil {
		return nil, fmt.Errorf("zipbackend: open backing handle: %w", err)
	}

	h := &poolHandle{f: f, leased: true}
	p.handles = append(p.handles, h)

	if p.softCap > 0 && len(p.handles) > p.softCap {
		p.warnedOnce.Do(func() {
			logging.Printf("zipbackend: %q: backing-stream pool exceeds the process fd-budget advisory (%d handles, advisory cap %d)\n",
				p.archivePath, len(p.handles), p.softCap)
		})
	}

	return h, nil
}

// release marks h unused, making it eligible to be handed to the next
// acquire call.
func (p *pool) release(h *poolHandle) {
	h.leased = false
}

// close releases every backing handle. Destroying the backend while readers
// vended from this pool are still alive is undefined behavior; callers must
// ensure all readers are destroyed first.
func (p *pool) close() error {
	var firstErr error

	for _, h := range p.handles {
		if err := h.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.handles = nil

	return firstErr
}

// softCapFromRlimit derives an advisory upper bound on pool size from
// RLIMIT_NOFILE, so that a pathological caller holding thousands of
// concurrent readers over one archive gets a log line instead of silently
// exhausting the process's descriptor budget. It is advisory only: the
// pool still grows past it rather than refusing new readers; there is no
// hard cap.
func softCapFromRlimit() int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0
	}

	cur := rlim.Cur
	if cur == unix.RLIM_INFINITY {
		return 0
	}

	// Reserve the pool a modest slice of the process's descriptor budget;
	// the rest is needed for the archive's own initial handle, stdio, and
	// whatever else the host process has open.
	budget := cur / 4
	if budget < 1 {
		budget = 1
	}

	if budget > 1<<20 {
		budget = 1 << 20
	}

	return int(budget)
}
