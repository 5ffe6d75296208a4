package selection

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atotto/clipboard"
)

// SystemClipboard is the text-only clipboard backend over atotto/clipboard
// Deferred formats render eagerly; formats other than text are accepted and dropped
type SystemClipboard struct {
	held atomic.Bool

	mu       sync.Mutex
	formats  map[string]FormatID
	next     FormatID
	seq      uint64
	lastHash uint64

	readAll  func() (string, error)
	writeAll func(string) error
}

// NewSystemClipboard returns the backend, or an error when no clipboard utility is present
func NewSystemClipboard() (*SystemClipboard, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("system clipboard unsupported on this host")
	}
	return &SystemClipboard{
		formats:  make(map[string]FormatID),
		next:     1,
		readAll:  clipboard.ReadAll,
		writeAll: clipboard.WriteAll,
	}, nil
}

func (c *SystemClipboard) Open() error {
	if !c.held.CompareAndSwap(false, true) {
		return ErrClipboardBusy
	}
	return nil
}

func (c *SystemClipboard) Close() error {
	c.held.Store(false)
	return nil
}

func (c *SystemClipboard) RegisterFormat(name string) (FormatID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.formats[name]; ok {
		return id, nil
	}
	id := c.next
	c.next++
	c.formats[name] = id
	return id, nil
}

func (c *SystemClipboard) isText(id FormatID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formats[string(FormatText)] == id
}

// Sequence advances whenever the observed text differs from the last observation
func (c *SystemClipboard) Sequence() uint64 {
	text, err := c.readAll()
	if err != nil {
		text = ""
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	sum := h.Sum64()

	c.mu.Lock()
	defer c.mu.Unlock()
	if sum != c.lastHash {
		c.lastHash = sum
		c.seq++
	}
	return c.seq
}

func (c *SystemClipboard) Read(id FormatID) ([]byte, bool) {
	if !c.isText(id) {
		return nil, false
	}
	text, err := c.readAll()
	if err != nil || text == "" {
		return nil, false
	}
	return []byte(text), true
}

func (c *SystemClipboard) Write(id FormatID, data []byte) error {
	if !c.isText(id) {
		return nil
	}
	return c.writeAll(string(data))
}

// Defer renders the text format immediately; with no text offered the first other format is used
func (c *SystemClipboard) Defer(ids []FormatID, render RenderFunc) error {
	for _, id := range ids {
		if c.isText(id) {
			return c.writeAll(string(render(id)))
		}
	}
	for _, id := range ids {
		if data := render(id); len(data) > 0 {
			return c.writeAll(string(data))
		}
	}
	return nil
}

// RendersEagerly reports true: the host pull is not observable through atotto/clipboard
func (c *SystemClipboard) RendersEagerly() bool { return true }

func (c *SystemClipboard) Empty() error {
	return c.writeAll("")
}

// CommandRunner runs an external program and returns its stdout
type CommandRunner interface {
	Output(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Xdotool drives the X11 foreground window through the xdotool utility
type Xdotool struct {
	bin  string
	run  CommandRunner
	self string // launcher's own window id, empty when unknown
}

// NewXdotool locates xdotool on PATH
func NewXdotool() (*Xdotool, error) {
	bin, err := exec.LookPath("xdotool")
	if err != nil {
		return nil, fmt.Errorf("xdotool not found: %w", err)
	}
	return &Xdotool{bin: bin, run: execRunner{}}, nil
}

// NewXdotoolWith uses run instead of executing processes
func NewXdotoolWith(bin string, run CommandRunner) *Xdotool {
	return &Xdotool{bin: bin, run: run}
}

func (x *Xdotool) Send(chords ...string) error {
	if len(chords) == 0 {
		return nil
	}
	args := append([]string{"key", "--clearmodifiers"}, chords...)
	if _, err := x.run.Output(x.bin, args...); err != nil {
		return fmt.Errorf("xdotool key %s: %w", strings.Join(chords, " "), err)
	}
	return nil
}

// MarkSelf records the launcher's own window, reported as SelfClass from then on
// An empty windowID falls back to the currently active window
func (x *Xdotool) MarkSelf(windowID string) error {
	windowID = strings.TrimSpace(windowID)
	if windowID == "" {
		out, err := x.run.Output(x.bin, "getactivewindow")
		if err != nil {
			return fmt.Errorf("xdotool getactivewindow: %w", err)
		}
		windowID = string(bytes.TrimSpace(out))
	}
	x.self = windowID
	return nil
}

func (x *Xdotool) ForegroundClass() (string, error) {
	if x.self == "" {
		out, err := x.run.Output(x.bin, "getactivewindow", "getwindowclassname")
		if err != nil {
			return "", fmt.Errorf("xdotool getwindowclassname: %w", err)
		}
		return string(bytes.TrimSpace(out)), nil
	}

	out, err := x.run.Output(x.bin, "getactivewindow")
	if err != nil {
		return "", fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	active := string(bytes.TrimSpace(out))
	if active == x.self {
		return SelfClass, nil
	}
	out, err = x.run.Output(x.bin, "getwindowclassname", active)
	if err != nil {
		return "", fmt.Errorf("xdotool getwindowclassname: %w", err)
	}
	return string(bytes.TrimSpace(out)), nil
}
