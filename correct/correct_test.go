package correct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/simerusm/emr-dashboard/llm"
	"github.com/simerusm/emr-dashboard/section"
)

// fakeProvider returns canned responses and counts calls.
type fakeProvider struct {
	calls   int
	content string
	err     error
	lastReq llm.ChatRequest
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content, TotalTokens: 100}, nil
}

const sectionsJSON = `[
	{"title": "Assessment", "content": [
		"Patient has ",
		{"original": "htn and dm", "suggested": "hypertension and diabetes mellitus", "reason": "Expanded abbreviations."},
		"."
	]}
]`

func TestRequestParsesSections(t *testing.T) {
	p := &fakeProvider{content: sectionsJSON}
	r := New(p, Config{})

	secs, err := r.Request(context.Background(), "Patient has htn and dm.")
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if len(secs) != 1 || secs[0].Title != "Assessment" {
		t.Fatalf("sections = %#v", secs)
	}
	if len(secs[0].Content) != 3 {
		t.Errorf("spans = %d, want 3", len(secs[0].Content))
	}
	if _, ok := secs[0].Content[1].(*section.Change); !ok {
		t.Errorf("span[1] = %#v, want *Change", secs[0].Content[1])
	}
	if !strings.Contains(p.lastReq.Messages[1].Content, "Patient has htn and dm.") {
		t.Errorf("prompt does not embed the extracted text")
	}
}

// TestRequestStripsCodeFence covers the model wrapping its JSON in a
// markdown fence with a language tag.
func TestRequestStripsCodeFence(t *testing.T) {
	p := &fakeProvider{content: "```json\n" + sectionsJSON + "\n```"}
	r := New(p, Config{})

	secs, err := r.Request(context.Background(), "text")
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if len(secs) != 1 {
		t.Errorf("sections = %d, want 1", len(secs))
	}
}

func TestRequestUnparsableResponse(t *testing.T) {
	const raw = "I'm sorry, I cannot produce JSON for this document."
	p := &fakeProvider{content: raw}
	r := New(p, Config{})

	_, err := r.Request(context.Background(), "text")
	if err == nil {
		t.Fatal("Request returned nil error for unparsable response")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *ParseError", err)
	}
	if pe.Raw != raw {
		t.Errorf("ParseError.Raw = %q, want the unmodified response", pe.Raw)
	}
	// Parse failures must not trigger a second model call.
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
}

func TestRequestProviderError(t *testing.T) {
	wantErr := errors.New("connection refused")
	p := &fakeProvider{err: wantErr}
	r := New(p, Config{})

	_, err := r.Request(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestCorrectPlain(t *testing.T) {
	p := &fakeProvider{content: "  Patient has hypertension and diabetes mellitus.\n"}
	r := New(p, Config{})

	got, err := r.CorrectPlain(context.Background(), "Patient has htn and dm.")
	if err != nil {
		t.Fatalf("CorrectPlain returned error: %v", err)
	}
	if got != "Patient has hypertension and diabetes mellitus." {
		t.Errorf("CorrectPlain = %q", got)
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"whitespace", "  [1]  \n", "[1]"},
		{"bare fence", "```\n[1]\n```", "[1]"},
		{"tagged fence", "```json\n[1]\n```", "[1]"},
		{"fence with trailing space", "```json\n[1]\n```  ", "[1]"},
		{"interior fence untouched", "before ```json\n[1]\n``` after", "before ```json\n[1]\n``` after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repair(tt.raw); got != tt.want {
				t.Errorf("repair(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.defaults()
	if c.Timeout <= 0 {
		t.Errorf("Timeout default = %v", c.Timeout)
	}
	if c.Temperature != 0.1 {
		t.Errorf("Temperature default = %v", c.Temperature)
	}
}
