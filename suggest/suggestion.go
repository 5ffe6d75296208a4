package suggest

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags a suggestion record
type Kind uint8

const (
	KindSuggestion Kind = iota
	KindAutoCompletion
)

// ErrWordMissing is returned when an autocompletion does not preserve a typed word
var ErrWordMissing = errors.New("autocompletion must contain every typed word")

// Suggestion is an immutable (source, suggestion, help) triple with cached nearness
type Suggestion struct {
	source     string
	suggestion string
	help       string
	kind       Kind
	nearness   float64
}

// New builds a plain suggestion
func New(source, suggestion, help string) Suggestion {
	return Suggestion{
		source:     source,
		suggestion: suggestion,
		help:       help,
		kind:       KindSuggestion,
		nearness:   Nearness(Canonical(source), Canonical(suggestion)),
	}
}

// NewAutoCompletion builds an autocompletion, validating that every whitespace-separated
// word of source occurs in suggestion (compared under equivalence classes, case-insensitive)
func NewAutoCompletion(source, suggestion, help string) (Suggestion, error) {
	if suggestion != "" {
		canonSug := Canonical(suggestion)
		for _, word := range strings.Fields(Canonical(source)) {
			if !strings.Contains(canonSug, word) {
				return Suggestion{}, fmt.Errorf("%w: %q not in %q", ErrWordMissing, word, suggestion)
			}
		}
	}
	s := New(source, suggestion, help)
	s.kind = KindAutoCompletion
	return s, nil
}

// EmptyAutoCompletion is the autocompletion used when nothing matches
func EmptyAutoCompletion(source string) Suggestion {
	return Suggestion{source: source, kind: KindAutoCompletion}
}

func (s Suggestion) Source() string         { return s.source }
func (s Suggestion) Text() string           { return s.suggestion }
func (s Suggestion) Help() string           { return s.help }
func (s Suggestion) Kind() Kind             { return s.kind }
func (s Suggestion) Nearness() float64      { return s.nearness }
func (s Suggestion) IsEmpty() bool          { return s.suggestion == "" }
func (s Suggestion) IsAutoCompletion() bool { return s.kind == KindAutoCompletion }

// Markup returns the XML-ish rendering: <kept> for verbatim typed runs, <ins> for inserted
// completions, <alt> for substitutions, and a trailing <help> for the help remainder
func (s Suggestion) Markup() string {
	var b strings.Builder
	for _, seg := range Segments(s.source, s.suggestion) {
		b.WriteString(seg.Open())
		b.WriteString(escape(seg.Text))
		b.WriteString(seg.Close())
	}
	if s.help != "" {
		b.WriteString("<help>")
		b.WriteString(escape(s.help))
		b.WriteString("</help>")
	}
	return b.String()
}

func (s Suggestion) String() string {
	if s.help != "" {
		return s.suggestion + " " + s.help
	}
	return s.suggestion
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}
