package imgpdf

import (
	"log/slog"
	"math"
	"strings"
	"time"
)

// printerConfig holds internal configuration for a Printer.
type printerConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	autoDownload bool
	headless     string
	logger       *slog.Logger
}

func defaultConfig() printerConfig {
	return printerConfig{
		timeout:  30 * time.Second,
		headless: "new",
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Option configures a [Printer].
type Option func(*printerConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *printerConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration for a single print job.
// Defaults to 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *printerConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *printerConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload downloads a compatible Chromium build when no
// executable path was given with [WithChromePath] and no installed
// browser is found.
func WithAutoDownload() Option {
	return func(c *printerConfig) {
		c.autoDownload = true
	}
}

// WithLogger routes printer diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *printerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Scan defaults.
const (
	DefaultMaxMisses = 5
	DefaultMaxIndex  = 10000
	DefaultStart     = 1
)

// DefaultExtensions is the probe order used when none is configured.
var DefaultExtensions = []string{"png", "jpg", "jpeg", "gif", "webp", "bmp"}

// probeConfig holds the parameters of one scan.
type probeConfig struct {
	extensions []string
	maxMisses  int
	maxIndex   int
	start      int
	observers  []func(ProbeResult)
	logger     *slog.Logger
}

func defaultProbeConfig() probeConfig {
	return probeConfig{
		extensions: DefaultExtensions,
		maxMisses:  DefaultMaxMisses,
		maxIndex:   DefaultMaxIndex,
		start:      DefaultStart,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// normalize replaces out-of-range values with defaults.
func (c *probeConfig) normalize() {
	exts := make([]string, 0, len(c.extensions))
	for _, e := range c.extensions {
		e = strings.TrimLeft(strings.TrimSpace(e), ".")
		if e != "" {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	c.extensions = exts
	if c.maxMisses < 1 {
		c.maxMisses = DefaultMaxMisses
	}
	if c.start < 0 {
		c.start = DefaultStart
	}
	if c.maxIndex < c.start {
		c.maxIndex = math.MaxInt
		if c.start <= math.MaxInt-(DefaultMaxIndex-1) {
			c.maxIndex = c.start + DefaultMaxIndex - 1
		}
	}
}

// ProbeOption configures [Discover] and [Loader].
type ProbeOption func(*probeConfig)

// WithExtensions sets the extensions tried for every index, in order.
// Leading dots are ignored.
func WithExtensions(exts ...string) ProbeOption {
	return func(c *probeConfig) {
		c.extensions = exts
	}
}

// WithMaxMisses sets how many consecutive empty indices end the scan.
// Values below 1 select [DefaultMaxMisses].
func WithMaxMisses(n int) ProbeOption {
	return func(c *probeConfig) {
		c.maxMisses = n
	}
}

// WithMaxIndex sets the highest index that is ever probed.
func WithMaxIndex(n int) ProbeOption {
	return func(c *probeConfig) {
		c.maxIndex = n
	}
}

// WithStart sets the first index probed. Defaults to 1.
func WithStart(n int) ProbeOption {
	return func(c *probeConfig) {
		c.start = n
	}
}

// WithObserver registers fn to receive every probe result. Observers run
// synchronously on the scanning goroutine.
func WithObserver(fn func(ProbeResult)) ProbeOption {
	return func(c *probeConfig) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithProbeLogger logs probe misses at debug level to l.
func WithProbeLogger(l *slog.Logger) ProbeOption {
	return func(c *probeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
