package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the gosseract-backed Engine. A fresh gosseract client is
// created per call because the underlying handle is not safe for concurrent
// use.
type Tesseract struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs a Tesseract-backed OCR engine.
func NewTesseract(cfg Config) *Tesseract {
	cfg.defaults()
	return &Tesseract{
		cfg:           cfg,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize performs OCR on a single image.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.cfg.Languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(t.cfg.DPI)); err != nil {
		return "", fmt.Errorf("set dpi: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
