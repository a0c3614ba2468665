package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/report"
	"github.com/google/uuid"
)

const (
	workbookPrefix = "voter_data_"

	// downloadLinger is how long a run survives after a successful
	// download before its directory is removed.
	downloadLinger = 10 * time.Second

	// defaultRetention caps how long an undownloaded run is kept.
	defaultRetention = 15 * time.Minute

	sweepInterval = time.Minute
	maxStoredRuns = 128
)

// run is one processed sheet kept on disk until downloaded or expired.
type run struct {
	ID        string
	Dir       string
	Workbook  string
	FileName  string
	Records   int
	CreatedAt time.Time

	released bool
}

// runStore keeps per-run output directories and sweeps the stale ones. The
// store is bounded: creating a run beyond the cap evicts the oldest one.
type runStore struct {
	mu      sync.Mutex
	root    string
	ownRoot bool
	ttl     time.Duration
	linger  time.Duration
	cap     int
	runs    map[string]*run
	done    chan struct{}
	closed  bool
}

// newRunStore creates a store rooted at dir, spawning a janitor that removes
// runs older than ttl. An empty dir means a fresh temporary directory.
func newRunStore(dir string, ttl, linger time.Duration) (*runStore, error) {
	ownRoot := false
	if dir == "" {
		tmp, err := os.MkdirTemp("", "rollscan-runs-")
		if err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
		dir = tmp
		ownRoot = true
	} else if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	rs := &runStore{
		root:    dir,
		ownRoot: ownRoot,
		ttl:     ttl,
		linger:  linger,
		cap:     maxStoredRuns,
		runs:    make(map[string]*run),
		done:    make(chan struct{}),
	}
	go rs.janitor()
	return rs, nil
}

// Create writes the workbook for a set of records into a fresh run directory
// and registers the run under a new id.
func (rs *runStore) Create(records []pipeline.Record) (*run, error) {
	id := uuid.NewString()
	dir := filepath.Join(rs.root, id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	fileName := workbookPrefix + id + ".xlsx"
	workbook := filepath.Join(dir, fileName)
	if err := report.WriteFile(workbook, records); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r := &run{
		ID:        id,
		Dir:       dir,
		Workbook:  workbook,
		FileName:  fileName,
		Records:   len(records),
		CreatedAt: time.Now(),
	}

	rs.mu.Lock()
	evicted := rs.evictLocked()
	rs.runs[id] = r
	rs.mu.Unlock()

	for _, dir := range evicted {
		_ = os.RemoveAll(dir)
	}
	return r, nil
}

// Get returns the run for an id if it is still stored.
func (rs *runStore) Get(id string) (*run, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r, ok := rs.runs[id]
	return r, ok
}

// Release schedules removal of a run shortly after a successful download.
// The linger keeps the workbook available for an immediate retry.
func (rs *runStore) Release(id string) {
	rs.mu.Lock()
	r, ok := rs.runs[id]
	if !ok || r.released {
		rs.mu.Unlock()
		return
	}
	r.released = true
	rs.mu.Unlock()

	time.AfterFunc(rs.linger, func() { rs.remove(id) })
}

func (rs *runStore) remove(id string) {
	rs.mu.Lock()
	r, ok := rs.runs[id]
	if ok {
		delete(rs.runs, id)
	}
	rs.mu.Unlock()

	if ok {
		_ = os.RemoveAll(r.Dir)
	}
}

// sweep removes runs older than the retention TTL.
func (rs *runStore) sweep() {
	now := time.Now()

	rs.mu.Lock()
	var expired []string
	for id, r := range rs.runs {
		if now.Sub(r.CreatedAt) > rs.ttl {
			expired = append(expired, id)
		}
	}
	rs.mu.Unlock()

	for _, id := range expired {
		rs.remove(id)
	}
}

// evictLocked makes room for one more run, returning the directories of the
// evicted runs. Callers remove them after releasing the lock.
func (rs *runStore) evictLocked() []string {
	var dirs []string
	for len(rs.runs) >= rs.cap {
		oldestID := ""
		var oldest time.Time
		for id, r := range rs.runs {
			if oldestID == "" || r.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = r.CreatedAt
			}
		}
		dirs = append(dirs, rs.runs[oldestID].Dir)
		delete(rs.runs, oldestID)
	}
	return dirs
}

func (rs *runStore) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rs.done:
			return
		case <-ticker.C:
			rs.sweep()
		}
	}
}

// Close stops the janitor and removes all stored runs.
func (rs *runStore) Close() error {
	rs.mu.Lock()
	if rs.closed {
		rs.mu.Unlock()
		return nil
	}
	rs.closed = true
	close(rs.done)

	var dirs []string
	for _, r := range rs.runs {
		dirs = append(dirs, r.Dir)
	}
	rs.runs = make(map[string]*run)
	rs.mu.Unlock()

	for _, dir := range dirs {
		_ = os.RemoveAll(dir)
	}
	if rs.ownRoot {
		_ = os.RemoveAll(rs.root)
	}
	return nil
}
