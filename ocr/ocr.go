// Package ocr provides the optical character recognition capability used for
// pages without a usable native text layer.
//
// The default engine wraps Tesseract via gosseract, which requires the
// Tesseract libraries to be installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev tesseract-ocr
package ocr

import "context"

// Engine recognizes text in a single raster image. Implementations must be
// safe for concurrent use: page-level OCR runs in parallel.
type Engine interface {
	// Recognize returns the text found in the image (PNG, JPEG, TIFF, ...),
	// trimmed of leading/trailing whitespace. An image with no recognizable
	// text yields an empty string, not an error.
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Config configures the Tesseract engine.
type Config struct {
	// Languages are the Tesseract language codes to load (default: eng).
	// Multiple languages improve recognition of mixed-language records.
	Languages []string `json:"languages" yaml:"languages"`

	// DPI is reported to Tesseract for images without density metadata.
	// Page rasters produced by the extractor use this value too.
	DPI int `json:"dpi" yaml:"dpi"`
}

func (c *Config) defaults() {
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
}
