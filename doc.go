// Package imgpdf finds numbered images in a folder and prints them to PDF
// through headless Chrome.
//
// # Discovery
//
// Folders are never listed. [Discover] guesses file names instead: it
// tries "1.png", "1.jpg", ... then "2.png" and so on, and gives up after a
// run of empty indices:
//
//	src, err := imgpdf.OpenSource("scans/", nil) // or "https://host/scans/"
//	if err != nil {
//	    log.Fatal(err)
//	}
//	records, err := imgpdf.Discover(ctx, src,
//	    imgpdf.WithExtensions("png", "jpg"),
//	    imgpdf.WithMaxMisses(3),
//	)
//
// A [Loader] keeps the latest scan and lets a newer reload supersede the
// one in flight:
//
//	l := imgpdf.NewLoader(src)
//	records, err := l.Reload(ctx)
//
// # Printing
//
// [RenderGallery] lays the records out as an HTML page. A [Printer] loads
// that page in a reused browser and prints it, one image per page:
//
//	p, err := imgpdf.NewPrinter(imgpdf.WithNoSandbox())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	res, err := p.Print(ctx, records, nil)
//	res.WriteToFile("out.pdf", 0o644)
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload]:
//
//	p, err := imgpdf.NewPrinter(imgpdf.WithAutoDownload())
package imgpdf
