// Package section defines the section-oriented document model shared by the
// correction and reconciliation stages, together with its wire JSON encoding.
//
// A Section is a titled, ordered run of content spans. Each span is either a
// literal string carried over unchanged from the corrected text, or a Change
// record flagging a single edit with its original text, suggested replacement,
// and rationale. On the wire a span is encoded as a bare JSON string or as a
// {original, suggested, reason} object, the exact shape the rendering layer
// consumes.
package section

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Span is one element of a section's content: either a Literal or a Change.
type Span interface {
	// Visible returns the text a reader sees when the section is rendered
	// (the literal text, or the suggested replacement for a change).
	Visible() string

	span()
}

// Literal is a run of corrected text with no flagged edit.
type Literal string

func (l Literal) Visible() string { return string(l) }
func (Literal) span()             {}

// Change is a single flagged edit. Original and Suggested are always
// non-empty and never equal after reconciliation.
type Change struct {
	Original  string `json:"original"`
	Suggested string `json:"suggested"`
	Reason    string `json:"reason"`
}

func (c *Change) Visible() string { return c.Suggested }
func (*Change) span()             {}

// Content is an ordered span sequence with the string-or-object wire encoding.
type Content []Span

// Section is one logical document region: a title plus its content spans.
type Section struct {
	Title   string  `json:"title"`
	Content Content `json:"content"`
}

// Visible returns the full corrected body text of the section: the
// concatenation of every span's visible text, in order.
func (s Section) Visible() string {
	var b strings.Builder
	for _, sp := range s.Content {
		b.WriteString(sp.Visible())
	}
	return b.String()
}

// MarshalJSON encodes literals as JSON strings and changes as objects.
func (c Content) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(c))
	for _, sp := range c {
		var (
			data []byte
			err  error
		)
		switch v := sp.(type) {
		case Literal:
			data, err = json.Marshal(string(v))
		case *Change:
			data, err = json.Marshal(v)
		default:
			return nil, fmt.Errorf("unknown span type %T", sp)
		}
		if err != nil {
			return nil, err
		}
		raw = append(raw, data)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the content array, accepting only the two declared
// variants. Anything else (numbers, nested arrays, objects missing the change
// keys) is an error so malformed model output fails the parse as a whole
// instead of slipping through as an empty span.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	spans := make(Content, 0, len(raw))
	for i, r := range raw {
		sp, err := decodeSpan(r)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		spans = append(spans, sp)
	}
	*c = spans
	return nil
}

func decodeSpan(data []byte) (Span, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Literal(s), nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Original  *string `json:"original"`
			Suggested *string `json:"suggested"`
			Reason    string  `json:"reason"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		if obj.Original == nil || obj.Suggested == nil {
			return nil, fmt.Errorf("change object missing original/suggested")
		}
		return &Change{Original: *obj.Original, Suggested: *obj.Suggested, Reason: obj.Reason}, nil
	}
	return nil, fmt.Errorf("span is neither a string nor a change object")
}
