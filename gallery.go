package imgpdf

import (
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/language"
)

// GalleryOptions controls how [RenderGallery] lays out the page.
type GalleryOptions struct {
	// Title is the document title. Defaults to the localized tool name.
	Title string

	// Lang is a BCP 47 tag selecting the caption language. English and
	// Chinese are available; anything else falls back to English.
	Lang string

	// PrintMode leaves out the toolbar, the stats line and the captions.
	PrintMode bool

	// Stats overrides the counters shown in the stats line. When zero they
	// are derived from the records.
	Stats Stats

	// ReloadURL and ExportURL add toolbar links when set.
	ReloadURL string
	ExportURL string

	// ImageURL maps a record to its <img> source. Defaults to
	// Record.Location.
	ImageURL func(Record) string
}

type galleryLabels struct {
	Title    string
	Image    string
	Loaded   string
	Progress string
	Hint     string
	Reload   string
	Export   string
	Empty    string
}

var galleryTags = []language.Tag{language.English, language.Chinese}

var galleryCatalog = []galleryLabels{
	{
		Title:    "Images to PDF",
		Image:    "Image",
		Loaded:   "Loaded %d images",
		Progress: "Progress: %d",
		Hint:     "Reload to rescan",
		Reload:   "Reload",
		Export:   "Export PDF",
		Empty:    "No images found",
	},
	{
		Title:    "图片转PDF",
		Image:    "图片",
		Loaded:   "已加载 %d 张图片",
		Progress: "当前进度: %d",
		Hint:     "重新加载以重新扫描",
		Reload:   "重新加载",
		Export:   "导出PDF",
		Empty:    "未找到图片",
	},
}

var galleryMatcher = language.NewMatcher(galleryTags)

// labelsFor picks the closest catalog entry for lang.
func labelsFor(lang string) galleryLabels {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	_, i, _ := galleryMatcher.Match(tag)
	return galleryCatalog[i]
}

type galleryItem struct {
	Record
	Src template.URL
}

type galleryView struct {
	L         galleryLabels
	Lang      string
	Title     string
	PrintMode bool
	Stats     Stats
	ReloadURL string
	ExportURL string
	Items     []galleryItem
}

var galleryTmpl = template.Must(template.New("gallery").Funcs(template.FuncMap{
	"size": FormatSize,
}).Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { margin: 0; }
  * { box-sizing: border-box; }
  body { margin: 0; font-family: system-ui, sans-serif; background: #f5f5f7; }
  .toolbar, .stats { text-align: center; padding: 0.75rem; }
  .toolbar a { display: inline-block; margin: 0 0.5rem; padding: 0.5rem 1.25rem;
    border-radius: 20px; background: #667eea; color: #fff; text-decoration: none; }
  .image-container { display: flex; flex-direction: column; align-items: center; }
  .image-item { width: 100%; text-align: center; break-after: page; page-break-after: always; }
  .image-item:last-child { break-after: auto; page-break-after: auto; }
  .image-item img { display: block; margin: 0 auto; max-width: 100%; max-height: 100vh; object-fit: contain; }
  .image-info { padding: 0.25rem 0 1rem; color: #555; font-size: 0.875rem; }
  .empty { padding: 4rem; color: #a33; text-align: center; }
  @media print {
    body { background: #fff; }
    .no-print { display: none !important; }
  }
</style>
</head>
<body>
{{- if not .PrintMode}}
<div class="toolbar no-print">
{{- if .ReloadURL}}<a class="reload" href="{{.ReloadURL}}">{{.L.Reload}}</a>{{end}}
{{- if .ExportURL}}<a class="export" href="{{.ExportURL}}">{{.L.Export}}</a>{{end}}
</div>
<div class="stats no-print">{{printf .L.Loaded .Stats.Loaded}} | {{printf .L.Progress .Stats.Scanned}} | {{.L.Hint}}</div>
{{- end}}
<div class="image-container">
{{- range .Items}}
<div class="image-item" data-index="{{.Index}}">
<img src="{{.Src}}" alt="{{$.L.Image}} {{.Index}}" width="{{.Width}}" height="{{.Height}}">
{{- if not $.PrintMode}}
<div class="image-info no-print">{{$.L.Image}} {{.Index}} | {{.Width}}×{{.Height}} | {{size .Size}}</div>
{{- end}}
</div>
{{- else}}
<div class="empty">{{$.L.Empty}}</div>
{{- end}}
</div>
</body>
</html>
`))

// RenderGallery writes an HTML page showing records in order, one image
// per printed page.
func RenderGallery(w io.Writer, records []Record, opts GalleryOptions) error {
	l := labelsFor(opts.Lang)
	v := galleryView{
		L:         l,
		Lang:      opts.Lang,
		Title:     opts.Title,
		PrintMode: opts.PrintMode,
		Stats:     opts.Stats,
		ReloadURL: opts.ReloadURL,
		ExportURL: opts.ExportURL,
		Items:     make([]galleryItem, 0, len(records)),
	}
	if v.Title == "" {
		v.Title = l.Title
	}
	if v.Lang == "" {
		v.Lang = "en"
	}
	if v.Stats == (Stats{}) {
		v.Stats = statsOf(records)
	}
	for _, r := range records {
		src := r.Location
		if opts.ImageURL != nil {
			src = opts.ImageURL(r)
		}
		// Locations come from a Source, never from page input, so file://
		// URLs are allowed through.
		v.Items = append(v.Items, galleryItem{Record: r, Src: template.URL(src)})
	}
	if err := galleryTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("imgpdf: rendering gallery: %w", err)
	}
	return nil
}
