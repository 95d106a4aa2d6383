package extract

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	// Decoders for the accepted raster upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// imageExts is the accepted raster extension set, matching the original
// upload whitelist.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
}

// Detect returns the document format for a declared filename, or
// ErrUnsupportedFormat. Detection happens before any byte is inspected so an
// unsupported upload is rejected up front.
func Detect(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return FormatPDF, nil
	case imageExts[ext]:
		return FormatImage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadDocument opens an upload and splits it into ordered pages. For PDFs the
// native text layer is read per page and the page's embedded raster images
// are pulled out for the OCR fallback. Image uploads become a single page
// with no native text.
func ReadDocument(data []byte, filename string) (*Document, error) {
	format, err := Detect(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return readPDF(data, filename)
	default:
		return readImage(data, filename)
	}
}

func readImage(data []byte, filename string) (*Document, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", filename, err)
	}
	return &Document{
		Filename: filename,
		Format:   FormatImage,
		Pages: []Page{
			{Index: 0, Images: [][]byte{data}},
		},
	}, nil
}

// readPDF opens the upload with both PDF layers: ledongthuc/pdf for the
// native text and pdfcpu for page structure and embedded images. Either layer
// may fail on an odd file; the document is only rejected when both do.
func readPDF(data []byte, filename string) (*Document, error) {
	var (
		textReader *pdf.Reader
		pctx       *model.Context
	)

	textReader, textErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	pctx, rasterErr := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())

	if textErr != nil && rasterErr != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", filename, textErr)
	}
	if textErr != nil {
		slog.Warn("extract: native text layer unavailable", "file", filename, "error", textErr)
	}
	if rasterErr != nil {
		slog.Warn("extract: image layer unavailable", "file", filename, "error", rasterErr)
	}

	pageCount := 0
	if pctx != nil {
		pageCount = pctx.PageCount
	}
	if textReader != nil && textReader.NumPage() > pageCount {
		pageCount = textReader.NumPage()
	}
	if pageCount == 0 {
		return nil, ErrNoPages
	}

	doc := &Document{
		Filename: filename,
		Format:   FormatPDF,
		Pages:    make([]Page, pageCount),
	}

	for i := 0; i < pageCount; i++ {
		page := Page{Index: i}

		if textReader != nil && i < textReader.NumPage() {
			p := textReader.Page(i + 1)
			if !p.V.IsNull() {
				if text, err := p.GetPlainText(nil); err == nil {
					page.NativeText = text
				}
			}
		}

		if pctx != nil && i < pctx.PageCount {
			page.Images = pageImages(pctx, i+1, filename)
		}

		doc.Pages[i] = page
	}

	return doc, nil
}

// pageImages extracts the embedded raster images of one PDF page. Extraction
// problems are logged, not fatal: the page simply has nothing to OCR.
func pageImages(pctx *model.Context, pageNr int, filename string) [][]byte {
	imgs, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
	if err != nil {
		slog.Warn("extract: page image extraction failed",
			"file", filename, "page", pageNr, "error", err)
		return nil
	}

	// Map iteration order is random; collect by ascending object number so
	// repeated runs see the same payload order.
	objNrs := make([]int, 0, len(imgs))
	for nr := range imgs {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	var out [][]byte
	for _, nr := range objNrs {
		img := imgs[nr]
		payload, err := io.ReadAll(img)
		if err != nil || len(payload) == 0 {
			continue
		}
		out = append(out, payload)
	}
	return out
}
