package selection

// FormatID is a platform clipboard format code
type FormatID uint32

// RenderFunc produces the payload of a deferred format when the host application asks for it
type RenderFunc func(id FormatID) []byte

// Clipboard is the platform clipboard consumed by the bridge
// Open must be paired with Close; Open fails with ErrClipboardBusy while another owner holds it
type Clipboard interface {
	Open() error
	Close() error
	RegisterFormat(name string) (FormatID, error)
	// Sequence is a change counter advanced on every clipboard modification
	Sequence() uint64
	Read(id FormatID) ([]byte, bool)
	Write(id FormatID, data []byte) error
	// Defer announces ids with delayed rendering; render runs when a consumer pulls one
	Defer(ids []FormatID, render RenderFunc) error
	Empty() error
}

// EagerRenderer is implemented by clipboards whose Defer renders at once
// On such clipboards a paste gives no signal of when the host pulled the payload
type EagerRenderer interface {
	RendersEagerly() bool
}

// Keystroker synthesises keystrokes into the foreground window
// Each chord is sent in order, "ctrl+c", "Escape", "w"
type Keystroker interface {
	Send(chords ...string) error
}

// WindowInspector identifies the foreground application
type WindowInspector interface {
	ForegroundClass() (string, error)
}
