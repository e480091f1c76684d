// Package config resolves imgpdf settings from defaults, a .env file,
// IMGPDF_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	imgpdf "github.com/porticus-lab/go-img-pdf"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "IMGPDF_"

// Environment keys, without EnvPrefix.
const (
	KeyFolder       = "FOLDER"
	KeyExtensions   = "EXTENSIONS"
	KeyMaxMisses    = "MAX_MISSES"
	KeyMaxIndex     = "MAX_INDEX"
	KeyLang         = "LANG"
	KeyChromePath   = "CHROME_PATH"
	KeyNoSandbox    = "NO_SANDBOX"
	KeyAutoDownload = "AUTO_DOWNLOAD"
	KeyTimeout      = "TIMEOUT"
	KeyPaper        = "PAPER"
	KeyLandscape    = "LANDSCAPE"
)

// DefaultFolder is scanned when nothing else is configured.
const DefaultFolder = "src/"

// Config is the fully resolved configuration.
type Config struct {
	Folder     string
	Extensions []string
	MaxMisses  int
	MaxIndex   int
	Lang       string

	ChromePath   string
	NoSandbox    bool
	AutoDownload bool
	Timeout      time.Duration
	Paper        string
	Landscape    bool
}

// Error reports a setting that could not be used.
type Error struct {
	Key   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Folder:     DefaultFolder,
		Extensions: append([]string(nil), imgpdf.DefaultExtensions...),
		MaxMisses:  imgpdf.DefaultMaxMisses,
		MaxIndex:   imgpdf.DefaultMaxIndex,
		Lang:       "en",
		Timeout:    30 * time.Second,
		Paper:      "a4",
	}
}

// Load starts from [Default], applies envFile (a missing file is not an
// error) and then the variables visible through lookup. Real environment
// variables win over the file. A nil lookup uses [os.LookupEnv].
//
// Only malformed values are reported here. Range checks are left to
// [Config.Validate] so that flags bound later can still correct them.
func Load(envFile string, lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, &Error{Key: "env_file", Value: envFile, Err: err}
		}
	}
	get := func(key string) (string, bool) {
		key = EnvPrefix + key
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	cfg := Default()
	if v, ok := get(KeyFolder); ok && strings.TrimSpace(v) != "" {
		cfg.Folder = strings.TrimSpace(v)
	}
	if v, ok := get(KeyExtensions); ok {
		cfg.Extensions = splitList(v)
	}
	if v, ok := get(KeyLang); ok && v != "" {
		cfg.Lang = v
	}
	if v, ok := get(KeyChromePath); ok {
		cfg.ChromePath = v
	}
	if v, ok := get(KeyPaper); ok && v != "" {
		cfg.Paper = strings.ToLower(strings.TrimSpace(v))
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyMaxMisses, &cfg.MaxMisses},
		{KeyMaxIndex, &cfg.MaxIndex},
	}
	for _, it := range ints {
		v, ok := get(it.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, &Error{Key: EnvPrefix + it.key, Value: v, Err: err}
		}
		*it.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{KeyNoSandbox, &cfg.NoSandbox},
		{KeyAutoDownload, &cfg.AutoDownload},
		{KeyLandscape, &cfg.Landscape},
	}
	for _, it := range bools {
		v, ok := get(it.key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, &Error{Key: EnvPrefix + it.key, Value: v, Err: err}
		}
		*it.dst = b
	}

	if v, ok := get(KeyTimeout); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return Config{}, &Error{Key: EnvPrefix + KeyTimeout, Value: v, Err: err}
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Folder) == "":
		return &Error{Key: EnvPrefix + KeyFolder, Value: c.Folder, Err: errors.New("must not be empty")}
	case len(c.Extensions) == 0:
		return &Error{Key: EnvPrefix + KeyExtensions, Err: errors.New("at least one extension is required")}
	case c.MaxMisses < 1:
		return &Error{Key: EnvPrefix + KeyMaxMisses, Value: strconv.Itoa(c.MaxMisses), Err: errors.New("must be at least 1")}
	case c.MaxIndex < 1:
		return &Error{Key: EnvPrefix + KeyMaxIndex, Value: strconv.Itoa(c.MaxIndex), Err: errors.New("must be at least 1")}
	case c.Timeout < 0:
		return &Error{Key: EnvPrefix + KeyTimeout, Value: c.Timeout.String(), Err: errors.New("must not be negative")}
	}
	if _, ok := imgpdf.PageSizes[c.Paper]; !ok {
		return &Error{Key: EnvPrefix + KeyPaper, Value: c.Paper, Err: errors.New("unknown paper size")}
	}
	return nil
}

// Bind registers flags on set whose defaults are the current values of c,
// so only flags given on the command line change c.
func (c *Config) Bind(set *flag.FlagSet) {
	set.Var((*listValue)(&c.Extensions), "ext", "comma-separated extensions, tried in order")
	set.IntVar(&c.MaxMisses, "misses", c.MaxMisses, "consecutive empty indices that end the scan")
	set.IntVar(&c.MaxIndex, "max-index", c.MaxIndex, "highest index probed")
	set.StringVar(&c.Lang, "lang", c.Lang, "caption language (en, zh)")
	set.StringVar(&c.ChromePath, "chrome", c.ChromePath, "Chrome/Chromium executable")
	set.BoolVar(&c.NoSandbox, "no-sandbox", c.NoSandbox, "disable the Chrome sandbox")
	set.BoolVar(&c.AutoDownload, "download-browser", c.AutoDownload, "download Chromium when none is installed")
	set.DurationVar(&c.Timeout, "timeout", c.Timeout, "per print job timeout")
	set.StringVar(&c.Paper, "paper", c.Paper, "paper size: a3, a4, a5, letter, legal, tabloid")
	set.BoolVar(&c.Landscape, "landscape", c.Landscape, "landscape orientation")
}

// ProbeOptions returns the scan options described by c.
func (c Config) ProbeOptions(logger *slog.Logger) []imgpdf.ProbeOption {
	return []imgpdf.ProbeOption{
		imgpdf.WithExtensions(c.Extensions...),
		imgpdf.WithMaxMisses(c.MaxMisses),
		imgpdf.WithMaxIndex(c.MaxIndex),
		imgpdf.WithProbeLogger(logger),
	}
}

// PrinterOptions returns the browser options described by c.
func (c Config) PrinterOptions(logger *slog.Logger) []imgpdf.Option {
	opts := []imgpdf.Option{
		imgpdf.WithTimeout(c.Timeout),
		imgpdf.WithLogger(logger),
	}
	if c.ChromePath != "" {
		opts = append(opts, imgpdf.WithChromePath(c.ChromePath))
	}
	if c.NoSandbox {
		opts = append(opts, imgpdf.WithNoSandbox())
	}
	if c.AutoDownload {
		opts = append(opts, imgpdf.WithAutoDownload())
	}
	return opts
}

// PageConfig returns the paper layout described by c.
func (c Config) PageConfig() *imgpdf.PageConfig {
	pg := imgpdf.DefaultPageConfig()
	if size, ok := imgpdf.PageSizes[c.Paper]; ok {
		pg.Size = size
	}
	if c.Landscape {
		pg.Orientation = imgpdf.Landscape
	}
	return &pg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimLeft(strings.TrimSpace(part), ".")
		if part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// listValue is a comma-separated flag.Value.
type listValue []string

func (l *listValue) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *listValue) Set(s string) error {
	v := splitList(s)
	if len(v) == 0 {
		return errors.New("empty extension list")
	}
	*l = v
	return nil
}
