package imgpdf

import (
	"context"
	"slices"
	"sync"
)

// Loader keeps the most recent scan of a Source and lets callers rescan
// it. It is safe for concurrent use.
//
// At most one scan runs at a time: [Loader.Reload] cancels the scan in
// flight, waits for it to stop and discards its records before starting
// a new one.
type Loader struct {
	src  Source
	opts []ProbeOption

	mu      sync.Mutex
	gen     uint64
	active  *scan
	records []Record
	stats   Stats
}

type scan struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoader returns a Loader for src. opts apply to every scan.
func NewLoader(src Source, opts ...ProbeOption) *Loader {
	return &Loader{src: src, opts: opts}
}

// Reload scans the source from the first index and commits the result.
//
// If another Reload starts before this one finishes, this call returns
// [ErrSuperseded] and its records are never committed. If ctx is done the
// context error is returned and the previous records stay in place.
func (l *Loader) Reload(ctx context.Context) ([]Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cur := &scan{cancel: cancel, done: make(chan struct{})}
	defer close(cur.done)

	l.mu.Lock()
	l.gen++
	gen := l.gen
	prev := l.active
	l.active = cur
	l.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	scanned := 0
	opts := append(slices.Clone(l.opts), WithObserver(func(r ProbeResult) {
		scanned = r.Index
	}))
	records, err := Discover(ctx, l.src, opts...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil, ErrSuperseded
	}
	l.active = nil
	if err != nil {
		return nil, err
	}
	l.records = records
	l.stats = Stats{Loaded: len(records), Scanned: scanned}
	return slices.Clone(records), nil
}

// Records returns a copy of the committed records.
func (l *Loader) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

// Snapshot returns the committed records and their counters under one lock,
// so the pair always comes from the same scan.
func (l *Loader) Snapshot() ([]Record, Stats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records), l.stats
}

// Stats returns the counters of the committed scan.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
