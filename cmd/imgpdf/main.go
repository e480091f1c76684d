// imgpdf finds numbered images (1.png, 2.jpg, ...) in a folder or below a
// URL and prints them to a PDF, one image per page.
//
// Usage:
//
//	imgpdf list   [options] [folder]
//	imgpdf export [options] [-o out.pdf] [folder]
//	imgpdf serve  [options] [-addr host:port] [folder]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	imgpdf "github.com/porticus-lab/go-img-pdf"
	"github.com/porticus-lab/go-img-pdf/internal/config"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "list":
		err = runList(ctx, args[1:], stdout, stderr)
	case "export":
		err = runExport(ctx, args[1:], stderr)
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	var ue usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `imgpdf - print numbered images to PDF

Usage:
  imgpdf list   [options] [folder]
  imgpdf export [options] [-o out.pdf] [folder]
  imgpdf serve  [options] [-addr host:port] [folder]

Commands:
  list      Scan the folder and print one line per image found
  export    Scan the folder and print the images to a PDF file
  serve     Serve the image gallery with reload and export links

The folder is a local directory or an http(s) URL (default "src/").
Images are named 1.png, 2.jpg, ... and the scan stops after a run of
missing numbers.

Settings are read from .env (or $IMGPDF_ENV_FILE), then IMGPDF_*
environment variables, then flags. Run "imgpdf <command> -h" for flags.

Examples:
  imgpdf list scans/
  imgpdf export -ext png,jpg -misses 3 -o book.pdf scans/
  imgpdf serve -addr 127.0.0.1:8080 https://example.com/pages/
`)
}

// usageError marks errors caused by bad command-line input.
type usageError struct{ error }

// command is the state shared by every subcommand.
type command struct {
	cfg     config.Config
	verbose bool
	logger  *slog.Logger
}

// parse loads the configuration, binds the shared flags plus the ones
// added by extra, and applies the optional folder argument.
func parse(name string, args []string, stderr io.Writer, extra func(*flag.FlagSet)) (*command, error) {
	envFile := os.Getenv("IMGPDF_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile, nil)
	if err != nil {
		return nil, usageError{err}
	}

	c := &command{cfg: cfg}
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(stderr)
	c.cfg.Bind(set)
	set.BoolVar(&c.verbose, "v", false, "log every probe")
	if extra != nil {
		extra(set)
	}
	if err := set.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, usageError{err}
	}
	switch set.NArg() {
	case 0:
	case 1:
		c.cfg.Folder = set.Arg(0)
	default:
		return nil, usageError{fmt.Errorf("expected one folder, got %d arguments", set.NArg())}
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, usageError{err}
	}

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return c, nil
}

func (c *command) discover(ctx context.Context) (imgpdf.Source, []imgpdf.Record, error) {
	src, err := imgpdf.OpenSource(c.cfg.Folder, nil)
	if err != nil {
		return nil, nil, err
	}
	records, err := imgpdf.Discover(ctx, src, c.cfg.ProbeOptions(c.logger)...)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Info("scan finished", "folder", c.cfg.Folder, "images", len(records))
	return src, records, nil
}

// runList implements the "list" command.
func runList(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var asJSON bool
	c, err := parse("list", args, stderr, func(set *flag.FlagSet) {
		set.BoolVar(&asJSON, "json", false, "print records as JSON")
	})
	if err != nil {
		return err
	}

	_, records, err := c.discover(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}
	if len(records) == 0 {
		c.logger.Warn(imgpdf.ErrNoImages.Error(), "folder", c.cfg.Folder)
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(stdout, "%d\t%s\t%d×%d\t%s\n", r.Index, r.Name, r.Width, r.Height, imgpdf.FormatSize(r.Size))
	}
	return nil
}

// runExport implements the "export" command.
func runExport(ctx context.Context, args []string, stderr io.Writer) error {
	output := "output.pdf"
	c, err := parse("export", args, stderr, func(set *flag.FlagSet) {
		set.StringVar(&output, "o", output, "output PDF file")
	})
	if err != nil {
		return err
	}

	_, records, err := c.discover(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return imgpdf.ErrNoImages
	}

	p, err := imgpdf.NewPrinter(c.cfg.PrinterOptions(c.logger)...)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.Print(ctx, records, c.cfg.PageConfig())
	if err != nil {
		return err
	}
	if err := res.WriteToFile(output, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	c.logger.Info("pdf written", "path", output, "pages", res.Images(), "size", imgpdf.FormatSize(int64(res.Len())))
	return nil
}
