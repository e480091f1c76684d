package imgpdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/porticus-lab/go-img-pdf/internal/httpx"
)

// Source fetches images by file name from a folder that cannot be listed.
type Source interface {
	// Open returns the content of name. A missing file is reported as an
	// error wrapping [ErrNotFound].
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Locate returns the URL a renderer uses to display name.
	Locate(name string) string
}

// FSSource reads images from an [fs.FS].
type FSSource struct {
	fsys   fs.FS
	locate func(name string) string
}

// NewFSSource returns a Source over fsys. locate maps a file name to the
// URL used by renderers; if nil, the name itself is used.
func NewFSSource(fsys fs.FS, locate func(name string) string) *FSSource {
	if locate == nil {
		locate = func(name string) string { return name }
	}
	return &FSSource{fsys: fsys, locate: locate}
}

// NewDirSource returns a Source over the local directory dir. Images are
// located with file:// URLs.
func NewDirSource(dir string) (*FSSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("imgpdf: resolving path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("imgpdf: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("imgpdf: %s is not a directory", abs)
	}
	return NewFSSource(os.DirFS(abs), func(name string) string {
		return fileURL(filepath.Join(abs, filepath.FromSlash(name)))
	}), nil
}

func (s *FSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return f, nil
}

func (s *FSSource) Locate(name string) string {
	return s.locate(name)
}

// fileURL converts an absolute OS path to a file:// URL.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// HTTPSource fetches images relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource returns a Source that issues GET requests below base.
// A nil client selects one with bounded retries and a 20 second timeout.
func NewHTTPSource(base string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("imgpdf: invalid URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("imgpdf: unsupported URL scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = httpx.NewClient(0)
	}
	return &HTTPSource{base: u, client: client}, nil
}

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Locate(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("imgpdf: fetching %s: %s", name, resp.Status)
	}
	return resp.Body, nil
}

// Locate resolves name against the base URL. The base query, such as a
// signed access token, is carried over to every image URL.
func (s *HTTPSource) Locate(name string) string {
	u := s.base.ResolveReference(&url.URL{Path: name})
	u.RawQuery = s.base.RawQuery
	return u.String()
}

// OpenSource returns an [HTTPSource] when folder is an http(s) URL and a
// directory source otherwise.
func OpenSource(folder string, client *http.Client) (Source, error) {
	if strings.HasPrefix(folder, "http://") || strings.HasPrefix(folder, "https://") {
		return NewHTTPSource(folder, client)
	}
	return NewDirSource(folder)
}
