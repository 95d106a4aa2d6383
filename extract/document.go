// Package extract turns an uploaded clinical document (PDF or raster image)
// into one page-ordered text string. Each page prefers its native PDF text
// layer; pages without one are handed to OCR. Pages never disappear: a page
// that yields no text stays in the output as an empty segment so offsets
// remain traceable to pages.
package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions outside the
	// accepted upload set, before any extraction attempt.
	ErrUnsupportedFormat = errors.New("extract: unsupported file format")

	// ErrNoPages is returned for a document with no pages at all.
	ErrNoPages = errors.New("extract: document has no pages")

	// ErrNoText is returned when neither native text nor OCR recovers any
	// content from any page.
	ErrNoText = errors.New("extract: no text recoverable from any page")
)

// PageBreak separates per-page segments in the merged document text.
const PageBreak = "\f"

// Document is an in-memory upload split into ordered pages. It is owned by a
// single pipeline invocation and never shared.
type Document struct {
	Filename string
	Format   Format
	Pages    []Page
}

// Page is one renderable page of a document.
type Page struct {
	// Index is the zero-based page position.
	Index int

	// NativeText is the document's own text layer, if any.
	NativeText string

	// Images are the page's raster payloads, in object order. For a scanned
	// PDF this is typically the single full-page scan; for an image upload
	// it is the upload itself.
	Images [][]byte
}

// Format identifies an accepted upload type.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatImage Format = "image"
)
