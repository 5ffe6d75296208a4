package script

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/parameter"
)

// Registrar is the part of the command registry the tracker mutates
type Registrar interface {
	Register(cmd command.Command) error
	Unregister(expr string) error
}

// Subscriber is the part of the event bus the tracker needs
type Subscriber interface {
	Subscribe(topic event.Topic, r event.Responder) error
	Unsubscribe(r event.Responder)
}

// FailureSink receives script load failures
type FailureSink interface {
	ScriptFailed(path string, err error)
}

// Options configures a Tracker
type Options struct {
	Dirs     []string // primary first, then secondary
	TrackAll bool     // TRACK_COMMAND_CHANGES
	Starter  Starter
	Failures FailureSink
	OnReload func(commands int)
	Log      *zap.SugaredLogger
}

// Tracker loads script files as commands and reloads them when they change
// All methods except the watcher callback run on the main loop
type Tracker struct {
	opts Options
	reg  Registrar
	bus  Subscriber
	log  *zap.SugaredLogger

	mtimes  map[string]time.Time
	tracked map[string]struct{}
	owned   []string
	hooks   []*event.FuncResponder
	loaded  bool

	watcher *Watcher
	dirty   atomic.Bool
	startR  *event.FuncResponder
}

// NewTracker returns a tracker feeding reg; call Init to perform the first load
func NewTracker(reg Registrar, bus Subscriber, opts Options) *Tracker {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Starter == nil {
		opts.Starter = ExecStarter{}
	}
	t := &Tracker{
		opts:    opts,
		reg:     reg,
		bus:     bus,
		log:     opts.Log,
		mtimes:  make(map[string]time.Time),
		tracked: make(map[string]struct{}),
	}
	t.dirty.Store(true)
	return t
}

// Init loads every script file and subscribes the session-start rescan
func (t *Tracker) Init() error {
	t.Reload()
	t.startR = event.NewResponder(func(event.Event) { t.Check() })
	return t.bus.Subscribe(event.TopicStartQuasimode, t.startR)
}

// Watch starts the fsnotify change feed; without it every Check scans
func (t *Tracker) Watch() error {
	w, err := NewWatcher(t.opts.Dirs, func() { t.dirty.Store(true) }, t.log)
	if err != nil {
		return err
	}
	t.watcher = w
	return nil
}

// Close stops watching and removes every command and hook the tracker owns
func (t *Tracker) Close() error {
	if t.startR != nil {
		t.bus.Unsubscribe(t.startR)
	}
	t.clear()
	if t.watcher != nil {
		return t.watcher.Close()
	}
	return nil
}

// watched reports whether the watcher covers every directory
func (t *Tracker) watched() bool {
	return t.watcher != nil && len(t.watcher.Watching()) == len(t.opts.Dirs)
}

// Check rescans modification times and reloads when anything changed
func (t *Tracker) Check() bool {
	if t.loaded && t.watched() && !t.dirty.Swap(false) {
		return false
	}
	if !t.changed() {
		return false
	}
	t.Reload()
	return true
}

// changed compares the remembered mtime table against disk
// Once loaded with TrackAll off, only files marked track are compared
func (t *Tracker) changed() bool {
	if !t.loaded {
		return true
	}
	if !t.opts.TrackAll {
		for path := range t.tracked {
			info, err := os.Stat(path)
			if err != nil || !info.ModTime().Equal(t.mtimes[path]) {
				return true
			}
		}
		return false
	}

	current := t.scan()
	if len(current) != len(t.mtimes) {
		return true
	}
	for path, mt := range current {
		if old, ok := t.mtimes[path]; !ok || !old.Equal(mt) {
			return true
		}
	}
	return false
}

// scan lists script files of every directory with their mtimes
func (t *Tracker) scan() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, dir := range t.opts.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				t.log.Warnw("script dir unreadable", "dir", dir, "error", err)
			}
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), parameter.ScriptExtension) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			out[filepath.Join(dir, e.Name())] = info.ModTime()
		}
	}
	return out
}

// Reload unregisters everything the tracker owns and loads every file afresh
func (t *Tracker) Reload() {
	t.clear()
	files := t.scan()
	t.mtimes = files
	t.tracked = make(map[string]struct{})

	for _, path := range slices.Sorted(maps.Keys(files)) {
		f, err := ReadFile(path)
		if err == nil {
			err = t.install(f)
		}
		if err != nil {
			t.log.Warnw("script load failed", "path", path, "error", err)
			if t.opts.Failures != nil {
				t.opts.Failures.ScriptFailed(path, err)
			}
			continue
		}
		if f.Track {
			t.tracked[path] = struct{}{}
		}
	}
	t.loaded = true
	t.log.Debugw("scripts loaded", "files", len(files), "commands", len(t.owned))
	if t.opts.OnReload != nil {
		t.opts.OnReload(len(t.owned))
	}
}

// install registers every command of f or none of them
func (t *Tracker) install(f *File) error {
	var done []string
	var hooks []*event.FuncResponder
	rollback := func() {
		for _, expr := range done {
			_ = t.reg.Unregister(expr)
		}
		for _, h := range hooks {
			t.bus.Unsubscribe(h)
		}
	}

	for _, spec := range f.Commands {
		cmd := &scriptCommand{spec: spec, starter: t.opts.Starter}
		cmd.desc = spec.Descriptor(t.hookFor(spec))
		if err := t.reg.Register(cmd); err != nil {
			rollback()
			return fmt.Errorf("%s: %w", spec.Key, err)
		}
		done = append(done, spec.Expression)
		if cmd.desc.OnQuasimodeStart != nil {
			h := event.NewResponder(func(event.Event) { cmd.desc.OnQuasimodeStart() })
			if err := t.bus.Subscribe(event.TopicStartQuasimode, h); err != nil {
				rollback()
				return fmt.Errorf("%s hook: %w", spec.Key, err)
			}
			hooks = append(hooks, h)
		}
	}
	t.owned = append(t.owned, done...)
	t.hooks = append(t.hooks, hooks...)
	return nil
}

// hookFor starts the session-start argv of spec without waiting for it
func (t *Tracker) hookFor(spec Spec) func() {
	argv := spec.Body.OnQuasimodeStart
	return func() {
		if _, err := t.opts.Starter.Start(argv, ""); err != nil {
			t.log.Warnw("quasimode start hook failed", "command", spec.Expression, "error", err)
		}
	}
}

func (t *Tracker) clear() {
	for _, h := range t.hooks {
		t.bus.Unsubscribe(h)
	}
	for _, expr := range t.owned {
		if err := t.reg.Unregister(expr); err != nil && !errors.Is(err, command.ErrUnknown) {
			t.log.Warnw("script command unregister failed", "expression", expr, "error", err)
		}
	}
	t.hooks = nil
	t.owned = nil
}

// Commands returns the expressions the tracker registered, sorted
func (t *Tracker) Commands() []string {
	return slices.Sorted(slices.Values(t.owned))
}

// Files returns the script files of the last load, sorted
func (t *Tracker) Files() []string {
	return slices.Sorted(maps.Keys(t.mtimes))
}
