package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/parameter"
)

// ErrUnknownOption is returned for option names outside the recognised set
var ErrUnknownOption = errors.New("unknown config option")

// Config is the resolved option set
type Config struct {
	QuasimodeStartKey  event.KeyCode
	QuasimodeEndKey    event.KeyCode
	QuasimodeCancelKey event.KeyCode
	IsQuasimodeModal   bool

	SuggestionDelay         time.Duration
	TrailingSuggestionDelay time.Duration
	MaxSuggestions          int
	MinAutocompleteChars    int
	BadCommandMinChars      int

	ColorTheme string
	Plugins    []string
	Providers  []string
	UserDir    string

	DisabledCommands    []string
	TrackCommandChanges bool

	EnableWebUI bool
	WebUIAddr   string

	IdleInterval  time.Duration
	TickInterval  time.Duration
	SoundFeedback bool

	SelectionTimeout     time.Duration
	SelectionFileTimeout time.Duration
	ClipboardOpenTimeout time.Duration
	ClipboardOpenStep    time.Duration
	SelectionContexts    map[string]string

	PrimaryGrace     time.Duration
	MiniPollInterval time.Duration

	RagIterations int
	RagDelta      float64
	HUDWidth      int
}

// Default returns the built-in option values
func Default() *Config {
	return &Config{
		QuasimodeStartKey:       event.VKCapital,
		QuasimodeEndKey:         event.VKReturn,
		QuasimodeCancelKey:      event.VKEscape,
		IsQuasimodeModal:        true,
		SuggestionDelay:         parameter.SuggestionDelay,
		TrailingSuggestionDelay: parameter.TrailingSuggestionDelay,
		MaxSuggestions:          parameter.MaxSuggestions,
		MinAutocompleteChars:    parameter.MinAutocompleteChars,
		BadCommandMinChars:      parameter.BadCommandMinChars,
		ColorTheme:              "green",
		Plugins:                 []string{"scripts", "shortcuts", "builtins"},
		Providers:               []string{"terminal", "clipboard", "xdotool", "audio"},
		UserDir:                 DefaultUserDir(),
		DisabledCommands:        []string{},
		TrackCommandChanges:     false,
		EnableWebUI:             true,
		WebUIAddr:               parameter.WebUIAddr,
		IdleInterval:            parameter.IdleInterval,
		TickInterval:            parameter.TickInterval,
		SoundFeedback:           false,
		SelectionTimeout:        parameter.SelectionTimeout,
		SelectionFileTimeout:    parameter.SelectionFileTimeout,
		ClipboardOpenTimeout:    parameter.ClipboardOpenTimeout,
		ClipboardOpenStep:       parameter.ClipboardOpenStep,
		SelectionContexts:       map[string]string{},
		PrimaryGrace:            parameter.PrimaryGrace,
		MiniPollInterval:        parameter.MiniPollInterval,
		RagIterations:           parameter.RagIterations,
		RagDelta:                parameter.RagDelta,
		HUDWidth:                80,
	}
}

// DefaultUserDir resolves ENSO_USER_DIR from the environment or the platform config directory
func DefaultUserDir() string {
	if dir := os.Getenv("ENSO_USER_DIR"); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "enso")
	}
	return ".enso"
}

// CommandsDir holds script files
func (c *Config) CommandsDir() string { return filepath.Join(c.UserDir, "commands") }

// SecondaryCommandsDir holds additional user script files
func (c *Config) SecondaryCommandsDir() string { return filepath.Join(c.UserDir, "commands", "user") }

// LearnedDir holds learned shortcut descriptors
func (c *Config) LearnedDir() string { return filepath.Join(c.UserDir, "commands", "learned") }

// LogDir holds the rotated log file
func (c *Config) LogDir() string { return filepath.Join(c.UserDir, "logs") }

// CfgPath is the persisted configuration file
func (c *Config) CfgPath() string { return filepath.Join(c.UserDir, "enso.cfg") }

// RCPath is the executable rc file
func (c *Config) RCPath() string { return filepath.Join(c.UserDir, "ensorc") }

// TasksPath is the one-shot startup script
func (c *Config) TasksPath() string { return filepath.Join(c.UserDir, "tasks"+parameter.ScriptExtension) }

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	n := *c
	n.Plugins = append([]string(nil), c.Plugins...)
	n.Providers = append([]string(nil), c.Providers...)
	n.DisabledCommands = append([]string(nil), c.DisabledCommands...)
	n.SelectionContexts = make(map[string]string, len(c.SelectionContexts))
	for k, v := range c.SelectionContexts {
		n.SelectionContexts[k] = v
	}
	return &n
}
