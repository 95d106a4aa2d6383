package emrdash

import (
	"github.com/simerusm/emr-dashboard/correct"
	"github.com/simerusm/emr-dashboard/extract"
	"github.com/simerusm/emr-dashboard/llm"
	"github.com/simerusm/emr-dashboard/ocr"
)

// Config holds all configuration for the analysis engine.
type Config struct {
	// LLM configures the correction model endpoint.
	LLM llm.Config `json:"llm" yaml:"llm"`

	// Correction configures the request to the model (timeout, temperature).
	Correction correct.Config `json:"correction" yaml:"correction"`

	// OCR configures the Tesseract engine (languages, DPI).
	OCR ocr.Config `json:"ocr" yaml:"ocr"`

	// Extract configures the text extractor (OCR parallelism).
	Extract extract.Config `json:"extract" yaml:"extract"`

	// TraceDB is an optional path to a SQLite diagnostics journal. Empty
	// keeps diagnostics in a bounded in-memory recorder.
	TraceDB string `json:"trace_db" yaml:"trace_db"`
}

// DefaultConfig returns a Config with sensible defaults: OpenAI for
// corrections, English OCR at 150 DPI, diagnostics in memory.
func DefaultConfig() Config {
	return Config{
		LLM: llm.Config{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		OCR: ocr.Config{
			Languages: []string{"eng"},
			DPI:       150,
		},
	}
}
