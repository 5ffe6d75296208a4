package shortcut

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/enso/parameter"
)

var (
	ErrNotFound  = errors.New("shortcut not found")
	ErrName      = errors.New("invalid shortcut name")
	ErrNoTarget  = errors.New("nothing to learn")
	ErrUndoEmpty = errors.New("nothing to undo")
)

// Kind classifies the target of a learned shortcut
type Kind string

const (
	KindExecutable   Kind = "executable"
	KindFolder       Kind = "folder"
	KindURL          Kind = "url"
	KindDocument     Kind = "document"
	KindControlPanel Kind = "control-panel"
)

// Shortcut is a persisted learned target
type Shortcut struct {
	Kind   Kind   `yaml:"kind"`
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

var urlPattern = regexp.MustCompile(`(?i)^(https?://|www\.)\S+$`)

// IsURL reports whether s reads as a web address
func IsURL(s string) bool {
	return urlPattern.MatchString(strings.TrimSpace(s))
}

// InferKind classifies target by its form, extension and file mode
func InferKind(target string) Kind {
	if IsURL(target) {
		return KindURL
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".exe", ".sh", ".bin", ".bat", ".cmd":
		return KindExecutable
	case ".cpl":
		return KindControlPanel
	}
	info, err := os.Stat(target)
	if err != nil {
		return KindDocument
	}
	if info.IsDir() {
		return KindFolder
	}
	if info.Mode().Perm()&0o111 != 0 {
		return KindExecutable
	}
	return KindDocument
}

// Store keeps one descriptor file per shortcut with an undo stack of removals
type Store struct {
	mu      sync.RWMutex
	dir     string
	byName  map[string]Shortcut
	removed []Shortcut
}

// NewStore returns a store rooted at dir; call Load to read existing descriptors
func NewStore(dir string) *Store {
	return &Store{dir: dir, byName: make(map[string]Shortcut)}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// fileName maps a shortcut name to its descriptor path
func (s *Store) fileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return filepath.Join(s.dir, safe+parameter.ScriptExtension)
}

// Load reads every descriptor in the store directory; unreadable files are returned as a joined error
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	loaded := make(map[string]Shortcut)
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != parameter.ScriptExtension {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		var sc Shortcut
		if err := yaml.Unmarshal(data, &sc); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		sc.Name = normalizeName(sc.Name)
		if sc.Name == "" || sc.Target == "" {
			errs = append(errs, fmt.Errorf("%s: %w", path, ErrName))
			continue
		}
		if sc.Kind == "" {
			sc.Kind = InferKind(sc.Target)
		}
		loaded[sc.Name] = sc
	}

	s.mu.Lock()
	s.byName = loaded
	s.mu.Unlock()
	return errors.Join(errs...)
}

// Learn persists a shortcut named name pointing at target, replacing any previous one
func (s *Store) Learn(name, target string) (Shortcut, error) {
	name = normalizeName(name)
	if name == "" {
		return Shortcut{}, ErrName
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return Shortcut{}, ErrNoTarget
	}
	sc := Shortcut{Kind: InferKind(target), Name: name, Target: target}
	if err := s.write(sc); err != nil {
		return Shortcut{}, err
	}
	s.mu.Lock()
	s.byName[name] = sc
	s.mu.Unlock()
	return sc, nil
}

func (s *Store) write(sc Shortcut) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.fileName(sc.Name), data, 0o644)
}

// Unlearn removes the shortcut and remembers it for Undo
func (s *Store) Unlearn(name string) (Shortcut, error) {
	name = normalizeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.byName[name]
	if !ok {
		return Shortcut{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := os.Remove(s.fileName(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Shortcut{}, err
	}
	delete(s.byName, name)
	s.removed = append(s.removed, sc)
	return sc, nil
}

// Undo restores the most recently unlearned shortcut
func (s *Store) Undo() (Shortcut, error) {
	s.mu.Lock()
	if len(s.removed) == 0 {
		s.mu.Unlock()
		return Shortcut{}, ErrUndoEmpty
	}
	sc := s.removed[len(s.removed)-1]
	s.removed = s.removed[:len(s.removed)-1]
	s.mu.Unlock()

	if err := s.write(sc); err != nil {
		s.mu.Lock()
		s.removed = append(s.removed, sc)
		s.mu.Unlock()
		return Shortcut{}, err
	}
	s.mu.Lock()
	s.byName[sc.Name] = sc
	s.mu.Unlock()
	return sc, nil
}

// Get returns the shortcut named name
func (s *Store) Get(name string) (Shortcut, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.byName[normalizeName(name)]
	return sc, ok
}

// Names returns every learned name, sorted; it is the argument source of the open commands
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// UndoDepth returns the number of removals that can be undone
func (s *Store) UndoDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.removed)
}
