package parameter

import "time"

// Identity
const (
	AppName = "Enso"
	Version = "0.4.0"
)

// Quasimode Defaults
const (
	SuggestionDelay         = 200 * time.Millisecond
	TrailingSuggestionDelay = 100 * time.Millisecond
	MaxSuggestions          = 10
	MinAutocompleteChars    = 1
	BadCommandMinChars      = 2

	// WelcomeText is shown as the description line while nothing is typed
	WelcomeText = "Welcome to Enso! Enter a command, or type “help” for assistance."

	// NoMatchText is shown as the description line when typed text names no command
	NoMatchText = "No command matches your input."
)

// Message Timing
const (
	PrimaryGrace      = 80 * time.Millisecond
	PrimaryFadeOut    = 250 * time.Millisecond
	MiniPollInterval  = 100 * time.Millisecond
	MiniSlideDuration = 200 * time.Millisecond
	MaxMiniMessages   = 8
)

// Layout
const (
	RagIterations = 8
	RagDelta      = 5.0

	// Ellipsis appended to content that does not fit at the smallest size
	Ellipsis = "…"
)

// Selection Bridge Timing
const (
	SelectionTimeout     = 250 * time.Millisecond
	SelectionFileTimeout = 1 * time.Second
	ClipboardOpenTimeout = 1 * time.Second
	ClipboardOpenStep    = 10 * time.Millisecond
	SelectionPollStep    = 10 * time.Millisecond
)

// Scripts & Services
const (
	ScriptCommandPrefix = "cmd_"
	ScriptExtension     = ".yaml"
	RCTimeout           = 5 * time.Second
	WebUIAddr           = "127.0.0.1:31750"
	WebUIShutdown       = 2 * time.Second
)
