package imgpdf

import (
	"math"
	"strconv"
)

// Record describes one discovered image. Records are never modified after
// a scan creates them.
type Record struct {
	Index    int    `json:"index"`
	Ext      string `json:"ext"`
	Name     string `json:"name"`     // "<index>.<ext>", relative to the folder
	Location string `json:"location"` // URL a renderer loads the image from
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"` // estimated size in bytes
}

// ProbeResult is the outcome of fetching one index+extension candidate.
type ProbeResult struct {
	Index int
	Ext   string
	Found bool
}

// Stats summarizes a finished scan.
type Stats struct {
	Loaded  int `json:"loaded"`
	Scanned int `json:"scanned"` // last index probed
}

// Progress returns the share of probed indices that held an image.
func (s Stats) Progress() float64 {
	return float64(s.Loaded) / float64(max(s.Scanned, 1))
}

// statsOf derives Stats from records alone, for callers that did not
// observe the scan.
func statsOf(records []Record) Stats {
	s := Stats{Loaded: len(records)}
	if n := len(records); n > 0 {
		s.Scanned = records[n-1].Index
	}
	return s
}

// estimateSize returns the fetched byte count, or the size of an
// uncompressed RGBA bitmap when nothing was counted.
func estimateSize(n int, width, height int) int64 {
	if n > 0 {
		return int64(n)
	}
	return int64(width) * int64(height) * 4
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with binary units and at most two
// decimals, e.g. "0 Bytes", "512 Bytes", "1.5 KB", "2.25 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
