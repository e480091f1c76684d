package imgpdf

import (
	"context"
	"fmt"
	"io"
	"strconv"
)

// MaxImageBytes caps how much of a single image is read during a probe.
const MaxImageBytes = 64 << 20

// Discover scans src for numbered images ("1.png", "2.jpg", ...).
//
// Indices are probed one at a time starting at 1. For each index the
// configured extensions are tried in order and the first one that yields
// a decodable image wins. An index with no image counts as a miss; the
// scan stops after a run of consecutive misses (5 unless [WithMaxMisses]
// says otherwise) or once the index ceiling is passed. Fetch and decode
// failures only count as misses.
//
// The records are returned in increasing index order. An empty folder
// yields an empty slice and a nil error. The only error returned is the
// context's, in which case the partial result is dropped.
func Discover(ctx context.Context, src Source, opts ...ProbeOption) ([]Record, error) {
	cfg := defaultProbeConfig()
	for _, o := range opts {
		o(&cfg)
	}
	cfg.normalize()

	records := []Record{}
	misses := 0
	// normalize guarantees start <= maxIndex; the loop leaves at maxIndex
	// before index++ so it cannot wrap.
	for index := cfg.start; misses < cfg.maxMisses; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rec, ok := probeIndex(ctx, src, index, &cfg); ok {
			misses = 0
			records = append(records, rec)
		} else {
			misses++
		}
		if index == cfg.maxIndex {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg.logger.Debug("scan finished", "loaded", len(records), "misses", misses)
	return records, nil
}

// probeIndex tries every extension for index and stops at the first hit.
func probeIndex(ctx context.Context, src Source, index int, cfg *probeConfig) (Record, bool) {
	for _, ext := range cfg.extensions {
		name := strconv.Itoa(index) + "." + ext
		rec, err := fetchRecord(ctx, src, name)
		for _, fn := range cfg.observers {
			fn(ProbeResult{Index: index, Ext: ext, Found: err == nil})
		}
		if err != nil {
			cfg.logger.Debug("probe miss", "name", name, "err", err)
			continue
		}
		rec.Index = index
		rec.Ext = ext
		return rec, true
	}
	return Record{}, false
}

func fetchRecord(ctx context.Context, src Source, name string) (Record, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return Record{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageBytes+1))
	if err != nil {
		return Record{}, fmt.Errorf("imgpdf: reading %s: %w", name, err)
	}
	if len(data) > MaxImageBytes {
		return Record{}, fmt.Errorf("imgpdf: %s exceeds %d bytes", name, MaxImageBytes)
	}
	w, h, _, err := DecodeConfig(data)
	if err != nil {
		return Record{}, fmt.Errorf("imgpdf: %s: %w", name, err)
	}
	return Record{
		Name:     name,
		Location: src.Locate(name),
		Width:    w,
		Height:   h,
		Size:     estimateSize(len(data), w, h),
	}, nil
}
