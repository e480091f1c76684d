package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"sync"
	"time"

	imgpdf "github.com/porticus-lab/go-img-pdf"
	"github.com/porticus-lab/go-img-pdf/internal/config"
)

// printer is the part of *imgpdf.Printer the server needs.
type printer interface {
	Print(ctx context.Context, records []imgpdf.Record, pg *imgpdf.PageConfig) (*imgpdf.Result, error)
	Close() error
}

// server exposes a Loader over HTTP: the gallery page, a reload action,
// PDF export and the image bytes themselves.
type server struct {
	src    imgpdf.Source
	loader *imgpdf.Loader
	cfg    config.Config
	logger *slog.Logger

	newPrinter func() (printer, error)

	mu      sync.Mutex
	printer printer
}

func newServer(src imgpdf.Source, cfg config.Config, logger *slog.Logger) *server {
	return &server{
		src:    src,
		loader: imgpdf.NewLoader(src, cfg.ProbeOptions(logger)...),
		cfg:    cfg,
		logger: logger,
		newPrinter: func() (printer, error) {
			return imgpdf.NewPrinter(cfg.PrinterOptions(logger)...)
		},
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleGallery)
	mux.HandleFunc("GET /reload", s.handleReload)
	mux.HandleFunc("GET /export.pdf", s.handleExport)
	mux.HandleFunc("GET /images/{name}", s.handleImage)
	return mux
}

func (s *server) handleGallery(w http.ResponseWriter, r *http.Request) {
	records, stats := s.loader.Snapshot()
	var buf bytes.Buffer
	err := imgpdf.RenderGallery(&buf, records, imgpdf.GalleryOptions{
		Lang:      s.cfg.Lang,
		Stats:     stats,
		ReloadURL: "/reload",
		ExportURL: "/export.pdf",
		ImageURL: func(rec imgpdf.Record) string {
			return "/images/" + rec.Name
		},
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	records, err := s.loader.Reload(r.Context())
	switch {
	case errors.Is(err, imgpdf.ErrSuperseded):
		s.logger.Debug("reload superseded")
	case err != nil:
		s.fail(w, err)
		return
	default:
		s.logger.Info("reloaded", "images", len(records))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	records := s.loader.Records()
	if len(records) == 0 {
		http.Error(w, imgpdf.ErrNoImages.Error(), http.StatusNotFound)
		return
	}
	p, err := s.getPrinter()
	if err != nil {
		s.fail(w, err)
		return
	}
	res, err := p.Print(r.Context(), records, s.cfg.PageConfig())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="images.pdf"`)
	_, _ = res.WriteTo(w)
}

// handleImage serves only names that belong to the committed scan.
func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	known := false
	for _, rec := range s.loader.Records() {
		if rec.Name == name {
			known = true
			break
		}
	}
	if !known {
		http.NotFound(w, r)
		return
	}

	rc, err := s.src.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, imgpdf.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, err)
		return
	}
	defer rc.Close()
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = io.Copy(w, rc)
}

func (s *server) getPrinter() (printer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printer == nil {
		p, err := s.newPrinter()
		if err != nil {
			return nil, err
		}
		s.printer = p
	}
	return s.printer, nil
}

func (s *server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printer != nil {
		_ = s.printer.Close()
		s.printer = nil
	}
}

func (s *server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// runServe implements the "serve" command.
func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	addr := "127.0.0.1:8080"
	c, err := parse("serve", args, stderr, func(set *flag.FlagSet) {
		set.StringVar(&addr, "addr", addr, "listen address")
	})
	if err != nil {
		return err
	}

	src, err := imgpdf.OpenSource(c.cfg.Folder, nil)
	if err != nil {
		return err
	}
	s := newServer(src, c.cfg, c.logger)
	defer s.close()

	records, err := s.loader.Reload(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		c.logger.Warn(imgpdf.ErrNoImages.Error(), "folder", c.cfg.Folder)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	c.logger.Info("serving gallery", "url", fmt.Sprintf("http://%s/", addr), "images", len(records))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
