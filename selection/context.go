package selection

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Context captures how a class of foreground applications exchanges selections
// A context without Paste chords rejects every set
type Context struct {
	Name  string
	Copy  []string
	Paste []string
	Cut   []string

	// Unreadable contexts resolve every get to the empty selection
	Unreadable bool
	// CutBeforePaste is set for applications whose paste does not replace the selection
	CutBeforePaste bool
	// LongWait selects the file/HTML read budget
	LongWait bool
}

const (
	ContextDefault      = "default"
	ContextNonReplacing = "nonreplacing"
	ContextTerminal     = "terminal"
	ContextEmacs        = "emacs"
	ContextFileManager  = "filemanager"
	ContextBrowser      = "browser"
	ContextSelf         = "self"
)

// SelfClass is reported for the launcher's own window; no keystrokes are sent to it
const SelfClass = "enso"


var builtinContexts = map[string]Context{
	ContextDefault: {
		Name:  ContextDefault,
		Copy:  []string{"ctrl+c"},
		Paste: []string{"ctrl+v"},
		Cut:   []string{"ctrl+x"},
	},
	ContextNonReplacing: {
		Name:           ContextNonReplacing,
		Copy:           []string{"ctrl+c"},
		Paste:          []string{"ctrl+v"},
		Cut:            []string{"ctrl+x"},
		CutBeforePaste: true,
	},
	ContextTerminal: {
		Name:       ContextTerminal,
		Paste:      []string{"ctrl+shift+v"},
		Unreadable: true,
	},
	ContextSelf: {
		Name:       ContextSelf,
		Unreadable: true,
	},
	ContextEmacs: {
		Name:  ContextEmacs,
		Copy:  []string{"Escape", "w"},
		Paste: []string{"ctrl+y"},
		Cut:   []string{"ctrl+w"},
	},
	ContextFileManager: {
		Name:     ContextFileManager,
		Copy:     []string{"ctrl+c"},
		Paste:    []string{"ctrl+v"},
		Cut:      []string{"ctrl+x"},
		LongWait: true,
	},
	ContextBrowser: {
		Name:     ContextBrowser,
		Copy:     []string{"ctrl+c"},
		Paste:    []string{"ctrl+v"},
		Cut:      []string{"ctrl+x"},
		LongWait: true,
	},
}

// builtinClasses maps lowercased window classes to context names
var builtinClasses = map[string]string{
	SelfClass:               ContextSelf,
	"emacs":                 ContextEmacs,
	"xterm":                 ContextTerminal,
	"uxterm":                ContextTerminal,
	"gnome-terminal-server": ContextTerminal,
	"konsole":               ContextTerminal,
	"alacritty":             ContextTerminal,
	"kitty":                 ContextTerminal,
	"xfce4-terminal":        ContextTerminal,
	"nautilus":              ContextFileManager,
	"dolphin":               ContextFileManager,
	"thunar":                ContextFileManager,
	"pcmanfm":               ContextFileManager,
	"firefox":               ContextBrowser,
	"chromium":              ContextBrowser,
	"google-chrome":         ContextBrowser,
	"scite":                 ContextNonReplacing,
	"gvim":                  ContextNonReplacing,
}

// ContextTable classifies window classes into contexts; user overrides win over built-ins
type ContextTable struct {
	mu      sync.RWMutex
	classes map[string]string
}

// NewContextTable returns the built-in table
func NewContextTable() *ContextTable {
	return &ContextTable{classes: maps.Clone(builtinClasses)}
}

// Override installs class -> context entries from configuration
func (t *ContextTable) Override(entries map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for class, name := range entries {
		if _, ok := builtinContexts[name]; !ok {
			return fmt.Errorf("selection context %q for class %q: unknown context", name, class)
		}
		t.classes[strings.ToLower(class)] = name
	}
	return nil
}

// Classify returns the context for a window class; unknown classes use the default
func (t *ContextTable) Classify(class string) Context {
	t.mu.RLock()
	name, ok := t.classes[strings.ToLower(strings.TrimSpace(class))]
	t.mu.RUnlock()
	if !ok {
		name = ContextDefault
	}
	return builtinContexts[name]
}

// ContextNames returns the known context names, sorted
func ContextNames() []string {
	return slices.Sorted(maps.Keys(builtinContexts))
}
