package command

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/suggest"
)

type factory struct {
	expr Expression
	cmd  Command
}

// Match is the result of resolving typed text to a command
type Match struct {
	Command Command
	Name    string // registered expression
	Arg     string
}

// Registry holds zero-argument commands by exact name and parameterized factories by prefix
// Mutation happens on the main loop; reads may come from the settings server goroutine
type Registry struct {
	mu        sync.RWMutex
	direct    map[string]Command
	factories []factory // sorted by prefix for deterministic iteration
	disabled  map[string]struct{}
	log       *zap.SugaredLogger
}

// NewRegistry returns an empty registry
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		direct:   make(map[string]Command),
		disabled: make(map[string]struct{}),
		log:      log,
	}
}

// SetDisabled replaces the set of suppressed expressions
// Commands already registered under a disabled name are not removed
func (r *Registry) SetDisabled(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled = make(map[string]struct{}, len(names))
	for _, n := range names {
		r.disabled[normalize(n)] = struct{}{}
	}
}

// IsDisabled reports whether expr is suppressed by configuration
func (r *Registry) IsDisabled(expr string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.disabled[normalize(expr)]
	return ok
}

func normalize(expr string) string {
	return strings.ToLower(strings.Join(strings.Fields(expr), " "))
}

// Register adds cmd under its descriptor expression
// Disabled commands are skipped without error
func (r *Registry) Register(cmd Command) error {
	d := cmd.Describe()
	expr, err := ParseExpression(d.Expression)
	if err != nil {
		return err
	}
	if expr.HasSlot() && d.Kind == ArgNone {
		return fmt.Errorf("%w: %q has a slot but no argument kind", ErrExpression, d.Expression)
	}
	if !expr.HasSlot() && d.Kind != ArgNone {
		return fmt.Errorf("%w: %q takes an argument but has no slot", ErrExpression, d.Expression)
	}
	key := normalize(d.Expression)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, off := r.disabled[key]; off {
		r.log.Debugw("command disabled", "expression", key)
		return nil
	}
	if r.existsLocked(key) {
		return fmt.Errorf("%w: %q", ErrDuplicate, key)
	}

	if !expr.HasSlot() {
		r.direct[key] = cmd
		return nil
	}
	expr.Name = strings.ToLower(expr.Name)
	expr.Prefix = strings.ToLower(expr.Prefix)
	idx, _ := slices.BinarySearchFunc(r.factories, expr.Prefix, func(f factory, p string) int {
		return strings.Compare(f.expr.Prefix, p)
	})
	r.factories = slices.Insert(r.factories, idx, factory{expr: expr, cmd: cmd})
	return nil
}

func (r *Registry) existsLocked(key string) bool {
	if _, ok := r.direct[key]; ok {
		return true
	}
	for _, f := range r.factories {
		if f.key() == key {
			return true
		}
	}
	return false
}

func (f factory) key() string {
	return f.expr.Prefix + "{" + f.expr.Slot + "}"
}

// Unregister removes the command registered under expr
func (r *Registry) Unregister(expr string) error {
	key := normalize(expr)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.direct[key]; ok {
		delete(r.direct, key)
		return nil
	}
	for i, f := range r.factories {
		if f.key() == key {
			r.factories = slices.Delete(r.factories, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknown, key)
}

// Lookup resolves input to a command and its argument
// Direct names match exactly; among factories the longest matching prefix wins,
// ties broken by prefix order
func (r *Registry) Lookup(input string) (Match, bool) {
	key := normalize(input)
	if key == "" {
		return Match{}, false
	}
	// raw keeps the typed case for arguments
	raw := strings.Join(strings.Fields(input), " ")
	if len(raw) != len(key) {
		raw = key
	}
	// keep a trailing space so "open " still resolves against the prefix
	if strings.HasSuffix(input, " ") {
		key += " "
		raw += " "
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.direct[strings.TrimSpace(key)]; ok {
		return Match{Command: cmd, Name: strings.TrimSpace(key)}, true
	}

	var (
		best  factory
		arg   string
		found bool
	)
	for _, f := range r.factories {
		var candidate string
		switch {
		case strings.HasPrefix(key, f.expr.Prefix):
			candidate = strings.TrimSpace(raw[len(f.expr.Prefix):])
		case strings.TrimSpace(key) == f.expr.Name:
			candidate = ""
		default:
			continue
		}
		resolved, ok := accepts(f, candidate)
		if !ok {
			continue
		}
		if !found || len(f.expr.Prefix) > len(best.expr.Prefix) {
			best, arg, found = f, resolved, true
		}
	}
	if !found {
		return Match{}, false
	}
	return Match{Command: best.cmd, Name: best.key(), Arg: arg}, true
}

// accepts checks the argument against the factory kind
// Bounded arguments resolve to the published spelling
func accepts(f factory, arg string) (string, bool) {
	d := f.cmd.Describe()
	if d.Kind == ArgArbitrary {
		return arg, true
	}
	if d.Source == nil || arg == "" {
		return "", false
	}
	for _, valid := range d.Source.Args() {
		if strings.EqualFold(valid, arg) {
			return valid, true
		}
	}
	return "", false
}

// Describe returns the description of the command input would run,
// falling back to the factory whose prefix input starts with
func (r *Registry) Describe(input string) (Descriptor, bool) {
	if m, ok := r.Lookup(input); ok {
		return m.Command.Describe(), true
	}
	key := normalize(input)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.factories {
		if key == f.expr.Name || strings.HasPrefix(key+" ", f.expr.Prefix) {
			return f.cmd.Describe(), true
		}
	}
	return Descriptor{}, false
}

// All returns a copy of the registry keyed by expression
func (r *Registry) All() map[string]Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make(map[string]Command, len(r.direct)+len(r.factories))
	for k, c := range r.direct {
		all[k] = c
	}
	for _, f := range r.factories {
		all[f.key()] = f.cmd
	}
	return all
}

// Expressions returns every registered expression in sorted order
func (r *Registry) Expressions() []string {
	all := r.All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of registered commands
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.direct) + len(r.factories)
}

// Entries implements suggest.Catalog: direct names plus every bounded expansion
func (r *Registry) Entries() []suggest.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]suggest.Entry, 0, len(r.direct))
	for name := range r.direct {
		entries = append(entries, suggest.Entry{Name: name})
	}
	for _, f := range r.factories {
		d := f.cmd.Describe()
		if d.Kind != ArgBounded || d.Source == nil {
			continue
		}
		for _, arg := range d.Source.Args() {
			entries = append(entries, suggest.Entry{Name: f.expr.Prefix + arg})
		}
	}
	slices.SortFunc(entries, func(a, b suggest.Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries
}

// Factories implements suggest.Catalog
func (r *Registry) Factories() []suggest.Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]suggest.Factory, 0, len(r.factories))
	for _, f := range r.factories {
		d := f.cmd.Describe()
		sf := suggest.Factory{
			Prefix:    f.expr.Prefix,
			Slot:      f.expr.Slot,
			Arbitrary: d.Kind == ArgArbitrary,
		}
		if d.Kind == ArgBounded && d.Source != nil {
			sf.Args = d.Source.Args()
		}
		out = append(out, sf)
	}
	return out
}
