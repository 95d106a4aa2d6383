// Package correct sends extracted document text to the language model and
// parses the structured correction it returns.
//
// The request asks the model to emit the Section/ContentSpan shape directly
// (a JSON array of {title, content} objects) rather than a flat corrected
// string. That shifts change identification onto the model and keeps the
// reconciler out of the business of aligning paraphrased text. The declared
// {original, suggested} pairs are validated downstream, not trusted as exact
// substrings.
package correct

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/simerusm/emr-dashboard/llm"
	"github.com/simerusm/emr-dashboard/section"
)

// Config configures the correction requester.
type Config struct {
	// Timeout bounds a single correction request end to end, including the
	// transport retries inside the llm client (default 5m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Temperature for the correction call. Low by default: corrections
	// should be conservative and reproducible.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
}

// Requester asks the model for a section-structured correction.
type Requester struct {
	provider llm.Provider
	cfg      Config
}

// New creates a Requester on top of the given provider.
func New(provider llm.Provider, cfg Config) *Requester {
	cfg.defaults()
	return &Requester{provider: provider, cfg: cfg}
}

// ParseError reports a model response that could not be parsed after repair.
// Raw retains the unmodified response for diagnostics. Parse failures are
// never retried: a second identical request does not fix a structural
// formatting problem.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Request sends the extracted text and returns the declared sections. A
// transport or timeout failure surfaces as the llm client's error after its
// bounded retries; a response that fails to parse after repair surfaces as a
// *ParseError.
func (r *Requester) Request(ctx context.Context, extracted string) ([]section.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a precise medical document analyzer."},
			{Role: "user", Content: fmt.Sprintf(sectionPrompt, extracted)},
		},
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("correction chat: %w", err)
	}

	slog.Info("correct: model responded",
		"tokens", resp.TotalTokens,
		"elapsed", time.Since(start).Round(time.Millisecond))

	sections, err := parseSections(resp.Content)
	if err != nil {
		return nil, &ParseError{Raw: resp.Content, Err: err}
	}
	return sections, nil
}

// CorrectPlain asks for a flat corrected rewrite of the extracted text.
func (r *Requester) CorrectPlain(ctx context.Context, extracted string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resp, err := r.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: fmt.Sprintf(plainPrompt, extracted)},
		},
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("correction chat: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// codeFenceRe matches a response wrapped in a single markdown code fence,
// with an optional language tag after the opening delimiter.
var codeFenceRe = regexp.MustCompile("(?s)\\A```[a-zA-Z]*\\s*\\n?(.*?)\\n?```\\s*\\z")

// repair applies the response repair policy, in order: strip one wrapping
// code fence if present, then trim surrounding whitespace. Nothing beyond
// that: a response this can't fix is reported, not guessed at.
func repair(raw string) string {
	s := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

// parseSections repairs the raw response and runs the strict schema parse.
func parseSections(raw string) ([]section.Section, error) {
	repaired := repair(raw)

	var sections []section.Section
	dec := json.NewDecoder(strings.NewReader(repaired))
	if err := dec.Decode(&sections); err != nil {
		return nil, fmt.Errorf("decoding sections: %w", err)
	}
	return sections, nil
}
