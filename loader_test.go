package imgpdf

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSource blocks the first Open until its context is cancelled.
type blockingSource struct {
	Source
	started chan struct{}
	once    sync.Once
}

func (s *blockingSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.Source.Open(ctx, name)
}

func TestLoader_Reload(t *testing.T) {
	fsys := fstest.MapFS{
		"1.png": pngFile(t, 1, 1),
		"3.png": pngFile(t, 1, 1),
	}
	l := NewLoader(NewFSSource(fsys, nil), WithExtensions("png"), WithMaxMisses(2))
	assert.Empty(t, l.Records())

	records, err := l.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, records, l.Records())
	// 1 hit, 2 miss, 3 hit, 4 and 5 miss.
	assert.Equal(t, Stats{Loaded: 2, Scanned: 5}, l.Stats())
}

func TestLoader_ReloadPicksUpChanges(t *testing.T) {
	fsys := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	l := NewLoader(NewFSSource(fsys, nil), WithExtensions("png"))

	_, err := l.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, l.Records(), 1)

	fsys["2.png"] = pngFile(t, 1, 1)
	records, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, l.Stats().Loaded)
}

func TestLoader_RecordsIsACopy(t *testing.T) {
	fsys := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	l := NewLoader(NewFSSource(fsys, nil), WithExtensions("png"))
	_, err := l.Reload(context.Background())
	require.NoError(t, err)

	got := l.Records()
	got[0].Index = 99
	assert.Equal(t, 1, l.Records()[0].Index)
}

func TestLoader_NewerReloadSupersedes(t *testing.T) {
	fsys := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	src := &blockingSource{Source: NewFSSource(fsys, nil), started: make(chan struct{})}
	l := NewLoader(src, WithExtensions("png"))

	type outcome struct {
		records []Record
		err     error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		r, err := l.Reload(context.Background())
		firstDone <- outcome{r, err}
	}()
	<-src.started

	records, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	first := <-firstDone
	assert.ErrorIs(t, first.err, ErrSuperseded)
	assert.Nil(t, first.records)
	assert.Len(t, l.Records(), 1)
}

func TestLoader_CancelledKeepsPreviousRecords(t *testing.T) {
	fsys := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	l := NewLoader(NewFSSource(fsys, nil), WithExtensions("png"))
	_, err := l.Reload(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Reload(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, l.Records(), 1)
}

func TestLoader_KeepsCallerObservers(t *testing.T) {
	fsys := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	var probes int
	l := NewLoader(NewFSSource(fsys, nil),
		WithExtensions("png"),
		WithMaxMisses(1),
		WithObserver(func(ProbeResult) { probes++ }))

	_, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, probes)
	assert.Equal(t, Stats{Loaded: 1, Scanned: 2}, l.Stats())
}

// switchSource serves one of two folders depending on which.
type switchSource struct {
	folders [2]Source
	which   atomic.Int32
}

func (s *switchSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.folders[s.which.Load()].Open(ctx, name)
}

func (s *switchSource) Locate(name string) string {
	return s.folders[s.which.Load()].Locate(name)
}

func TestLoader_SnapshotIsConsistent(t *testing.T) {
	one := fstest.MapFS{"1.png": pngFile(t, 1, 1)}
	three := fstest.MapFS{
		"1.png": pngFile(t, 1, 1),
		"2.png": pngFile(t, 1, 1),
		"3.png": pngFile(t, 1, 1),
	}
	src := &switchSource{folders: [2]Source{NewFSSource(one, nil), NewFSSource(three, nil)}}
	l := NewLoader(src, WithExtensions("png"), WithMaxMisses(1))

	records, stats := l.Snapshot()
	assert.Empty(t, records)
	assert.Equal(t, Stats{}, stats)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			src.which.Store(int32(i % 2))
			if _, err := l.Reload(context.Background()); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			records, stats := l.Snapshot()
			assert.Len(t, records, 3)
			assert.Equal(t, Stats{Loaded: 3, Scanned: 4}, stats)
			return
		default:
		}
		records, stats := l.Snapshot()
		require.Equal(t, len(records), stats.Loaded)
		if stats.Loaded > 0 {
			require.Equal(t, stats.Loaded+1, stats.Scanned)
		}
	}
}
