// Package emrdash analyzes scanned or digitally authored clinical documents.
//
// One invocation runs a strictly linear pipeline: recover text from the
// upload (native PDF text layer, OCR fallback), ask a language model for a
// section-structured correction, reconcile the model's declared change spans
// into a validated section list, and hand the keyed result back to the
// caller. The engine holds no state between invocations; persistence,
// authentication, and rendering are the caller's concern.
package emrdash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/simerusm/emr-dashboard/correct"
	"github.com/simerusm/emr-dashboard/extract"
	"github.com/simerusm/emr-dashboard/llm"
	"github.com/simerusm/emr-dashboard/ocr"
	"github.com/simerusm/emr-dashboard/reconcile"
	"github.com/simerusm/emr-dashboard/section"
	"github.com/simerusm/emr-dashboard/trace"
)

// Analyzer is the main entry point for document analysis.
type Analyzer interface {
	// Analyze runs the full pipeline over an uploaded document and returns
	// the keyed, section-structured result.
	Analyze(ctx context.Context, data []byte, filename string, opts ...AnalyzeOption) (*AnalysisResult, error)

	// CorrectPlain extracts the document text and returns a flat corrected
	// rewrite alongside the extraction, without section structure.
	CorrectPlain(ctx context.Context, data []byte, filename string) (*PlainResult, error)

	// Close releases the diagnostics recorder.
	Close() error
}

// AnalysisResult is the sole externally delivered artifact of an analysis.
// Once returned it is owned by the caller; the engine keeps no reference.
type AnalysisResult struct {
	// FileID keys the result for external storage and rendering.
	FileID string `json:"fileId"`

	// Sections is the validated, ordered section list.
	Sections []section.Section `json:"data"`

	// Anomalies are the reconciliation diagnostics recorded while
	// validating the model output. Internal: not part of the wire contract.
	Anomalies []reconcile.Anomaly `json:"-"`
}

// PlainResult is the flat correction surface: the extracted text and the
// model's cleaned rewrite.
type PlainResult struct {
	FileID       string `json:"fileId"`
	OriginalText string `json:"original_text"`
	CleanedText  string `json:"cleaned_text"`
}

// AnalyzeOption configures a single analysis invocation.
type AnalyzeOption func(*analyzeOptions)

type analyzeOptions struct {
	fileID string
}

// WithFileID supplies the caller's result key instead of a generated one.
func WithFileID(id string) AnalyzeOption {
	return func(o *analyzeOptions) { o.fileID = id }
}

// Option configures engine construction.
type Option func(*engine)

// WithProvider overrides the LLM provider built from Config.LLM.
func WithProvider(p llm.Provider) Option {
	return func(e *engine) { e.provider = p }
}

// WithOCR overrides the Tesseract engine built from Config.OCR.
func WithOCR(o ocr.Engine) Option {
	return func(e *engine) { e.ocrEngine = o }
}

// WithRecorder overrides the diagnostics recorder.
func WithRecorder(r trace.Recorder) Option {
	return func(e *engine) { e.recorder = r }
}

// engine is the concrete Analyzer.
type engine struct {
	cfg       Config
	provider  llm.Provider
	ocrEngine ocr.Engine
	requester *correct.Requester
	extractor *extract.Extractor
	recorder  trace.Recorder
}

// New creates an analysis engine from the given configuration.
func New(cfg Config, opts ...Option) (Analyzer, error) {
	e := &engine{cfg: cfg}
	for _, o := range opts {
		o(e)
	}

	if e.provider == nil {
		p, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		e.provider = p
	}
	if e.ocrEngine == nil {
		e.ocrEngine = ocr.NewTesseract(cfg.OCR)
	}
	if e.recorder == nil {
		if cfg.TraceDB != "" {
			s, err := trace.NewStore(cfg.TraceDB)
			if err != nil {
				return nil, fmt.Errorf("opening trace store: %w", err)
			}
			e.recorder = s
		} else {
			e.recorder = trace.NewMemory(0)
		}
	}

	e.requester = correct.New(e.provider, cfg.Correction)
	e.extractor = extract.New(e.ocrEngine, cfg.Extract)
	return e, nil
}

// Analyze runs the pipeline: Received → Extracting → Correcting →
// Reconciling → Assembled → Delivered, failing terminally from whichever
// stage first prevents a usable result.
func (e *engine) Analyze(ctx context.Context, data []byte, filename string, opts ...AnalyzeOption) (*AnalysisResult, error) {
	options := &analyzeOptions{}
	for _, o := range opts {
		o(options)
	}
	fileID := options.fileID
	if fileID == "" {
		fileID = uuid.NewString()
	}

	e.record(fileID, StageReceived, "stage", filename)
	slog.Info("analyze: received", "file", filename, "file_id", fileID, "bytes", len(data))

	// Extract.
	extracted, err := e.extract(ctx, fileID, data, filename)
	if err != nil {
		return nil, err
	}

	// Correct.
	e.record(fileID, StageCorrecting, "stage", "")
	correctStart := time.Now()
	declared, err := e.requester.Request(ctx, extracted)
	if err != nil {
		return nil, e.fail(fileID, StageCorrecting, fmt.Errorf("%w: %v", ErrCorrection, err))
	}
	slog.Info("analyze: correction complete",
		"file_id", fileID, "sections", len(declared),
		"elapsed", time.Since(correctStart).Round(time.Millisecond))

	// Reconcile and assemble.
	e.record(fileID, StageReconciling, "stage", "")
	normalized, anomalies := reconcile.Normalize(declared, extracted)
	sections, dropped := reconcile.Assemble(normalized)
	anomalies = append(anomalies, dropped...)

	for _, a := range anomalies {
		e.record(fileID, StageReconciling, "anomaly", a.String())
		slog.Warn("analyze: reconciliation anomaly", "file_id", fileID, "anomaly", a.String())
	}

	if len(sections) == 0 {
		// The model responded but nothing survived validation; there is no
		// usable result to deliver.
		return nil, e.fail(fileID, StageReconciling,
			fmt.Errorf("%w: no valid sections in model response", ErrCorrection))
	}

	e.record(fileID, StageAssembled, "stage", fmt.Sprintf("%d sections", len(sections)))

	result := &AnalysisResult{
		FileID:    fileID,
		Sections:  sections,
		Anomalies: anomalies,
	}

	e.record(fileID, StageDelivered, "stage", "")
	slog.Info("analyze: delivered",
		"file_id", fileID, "sections", len(sections), "anomalies", len(anomalies))
	return result, nil
}

// CorrectPlain runs extraction plus the flat correction call.
func (e *engine) CorrectPlain(ctx context.Context, data []byte, filename string) (*PlainResult, error) {
	fileID := uuid.NewString()
	e.record(fileID, StageReceived, "stage", filename)

	extracted, err := e.extract(ctx, fileID, data, filename)
	if err != nil {
		return nil, err
	}

	e.record(fileID, StageCorrecting, "stage", "plain")
	cleaned, err := e.requester.CorrectPlain(ctx, extracted)
	if err != nil {
		return nil, e.fail(fileID, StageCorrecting, fmt.Errorf("%w: %v", ErrCorrection, err))
	}

	e.record(fileID, StageDelivered, "stage", "plain")
	return &PlainResult{FileID: fileID, OriginalText: extracted, CleanedText: cleaned}, nil
}

// extract runs the Extracting stage: read the upload into pages and merge
// the per-page text.
func (e *engine) extract(ctx context.Context, fileID string, data []byte, filename string) (string, error) {
	e.record(fileID, StageExtracting, "stage", "")
	start := time.Now()

	doc, err := extract.ReadDocument(data, filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return "", e.fail(fileID, StageExtracting, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err))
		}
		return "", e.fail(fileID, StageExtracting, fmt.Errorf("%w: %v", ErrExtraction, err))
	}

	extracted, err := e.extractor.Extract(ctx, doc)
	if err != nil {
		return "", e.fail(fileID, StageExtracting, fmt.Errorf("%w: %v", ErrExtraction, err))
	}

	slog.Info("analyze: extraction complete",
		"file_id", fileID, "pages", len(doc.Pages), "chars", len(extracted),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return extracted, nil
}

func (e *engine) record(fileID string, stage Stage, kind, detail string) {
	e.recorder.Record(trace.Event{
		FileID: fileID,
		Stage:  string(stage),
		Kind:   kind,
		Detail: detail,
	})
}

// fail records the terminal failure and wraps it with the failing stage.
func (e *engine) fail(fileID string, stage Stage, err error) error {
	e.record(fileID, stage, "failure", err.Error())
	slog.Error("analyze: stage failed", "file_id", fileID, "stage", stage, "error", err)
	return &StageError{Stage: stage, Err: err}
}

// Close releases the diagnostics recorder.
func (e *engine) Close() error {
	return e.recorder.Close()
}
