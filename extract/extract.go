package extract

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/simerusm/emr-dashboard/ocr"
)

// Config configures the text extractor.
type Config struct {
	// OCRConcurrency bounds how many pages are OCRed at once (default 4).
	OCRConcurrency int `json:"ocr_concurrency" yaml:"ocr_concurrency"`
}

func (c *Config) defaults() {
	if c.OCRConcurrency <= 0 {
		c.OCRConcurrency = 4
	}
}

// Extractor recovers one ordered text string from a Document.
type Extractor struct {
	cfg Config
	ocr ocr.Engine
}

// New creates an Extractor backed by the given OCR engine.
func New(engine ocr.Engine, cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, ocr: engine}
}

// Extract produces the merged document text. Per page the normalized native
// text layer wins when non-empty; otherwise the page's raster images are
// OCRed. OCR is best-effort with no retry or quality scoring; the correction
// stage downstream absorbs minor recognition noise. Page texts are joined in
// page order with PageBreak, keeping empty segments for pages that yielded
// nothing.
func (e *Extractor) Extract(ctx context.Context, doc *Document) (string, error) {
	if len(doc.Pages) == 0 {
		return "", ErrNoPages
	}

	texts := make([]string, len(doc.Pages))
	var needOCR []int

	for i, page := range doc.Pages {
		native := Normalize(page.NativeText)
		if native != "" {
			texts[i] = native
			continue
		}
		if len(page.Images) > 0 {
			needOCR = append(needOCR, i)
		}
	}

	if len(needOCR) > 0 {
		e.runOCR(ctx, doc, needOCR, texts)
	}

	empty := true
	for _, t := range texts {
		if t != "" {
			empty = false
			break
		}
	}
	if empty {
		return "", ErrNoText
	}

	return strings.Join(texts, PageBreak), nil
}

// runOCR recognizes the given pages in parallel, bounded by OCRConcurrency.
// Results land in texts by page index, so the page order of the merged
// output never depends on scheduling.
func (e *Extractor) runOCR(ctx context.Context, doc *Document, pages []int, texts []string) {
	start := time.Now()
	sem := make(chan struct{}, e.cfg.OCRConcurrency)
	var wg sync.WaitGroup

	for _, idx := range pages {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			texts[idx] = e.ocrPage(ctx, doc, idx)
		}(idx)
	}

	wg.Wait()
	slog.Info("extract: ocr complete",
		"file", doc.Filename, "pages", len(pages),
		"elapsed", time.Since(start).Round(time.Millisecond))
}

// ocrPage runs every raster of one page through the engine and joins the
// results. Recognition failures degrade to an empty segment.
func (e *Extractor) ocrPage(ctx context.Context, doc *Document, idx int) string {
	var parts []string
	for _, img := range doc.Pages[idx].Images {
		if ctx.Err() != nil {
			return ""
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			slog.Warn("extract: ocr failed on page image",
				"file", doc.Filename, "page", idx, "error", err)
			continue
		}
		if text = Normalize(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
