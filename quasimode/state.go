package quasimode

import "unicode"

// State is the quasimode lifecycle
type State uint8

const (
	StateIdle State = iota
	StateActive
	StateWaitingToRedraw
)

var stateNames = [...]string{
	StateIdle:            "Idle",
	StateActive:          "Active",
	StateWaitingToRedraw: "WaitingToRedraw",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// TypedState is the live input buffer of a session
// Whitespace is collapsed as it is typed: no leading space and no space runs
type TypedState struct {
	text   []rune
	active int
	dirty  bool
}

// Append adds r, collapsing whitespace
func (t *TypedState) Append(r rune) {
	if unicode.IsSpace(r) {
		if len(t.text) == 0 || t.text[len(t.text)-1] == ' ' {
			return
		}
		r = ' '
	}
	t.text = append(t.text, r)
	t.active = 0
	t.dirty = true
}

// Backspace removes the last character; no-op on empty text
func (t *TypedState) Backspace() {
	if len(t.text) == 0 {
		return
	}
	t.text = t.text[:len(t.text)-1]
	t.active = 0
	t.dirty = true
}

// Set replaces the text, collapsing whitespace
func (t *TypedState) Set(s string) {
	t.text = t.text[:0]
	for _, r := range s {
		t.Append(r)
	}
	t.active = 0
	t.dirty = true
}

// Clear empties the text and active index
func (t *TypedState) Clear() {
	t.text = t.text[:0]
	t.active = 0
	t.dirty = true
}

func (t *TypedState) Text() string { return string(t.text) }
func (t *TypedState) Len() int     { return len(t.text) }
func (t *TypedState) Active() int  { return t.active }
func (t *TypedState) Dirty() bool  { return t.dirty }
