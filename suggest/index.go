package suggest

import (
	"slices"
	"strings"
)

// Entry is a matchable command name with an optional help remainder
type Entry struct {
	Name string
	Help string
}

// Factory describes a parameterized command by its literal prefix and argument slot
type Factory struct {
	Prefix    string // literal text before the slot, including the trailing space
	Slot      string // slot name shown as help
	Args      []string
	Arbitrary bool
}

// Catalog is the read side of the command registry consumed by the index
type Catalog interface {
	Entries() []Entry
	Factories() []Factory
}

// List is a suggestion snapshot: element 0 is the autocompletion, the rest are near matches
type List []Suggestion

// AutoCompletion returns element 0 or the empty autocompletion
func (l List) AutoCompletion() Suggestion {
	if len(l) == 0 {
		return EmptyAutoCompletion("")
	}
	return l[0]
}

// Rotate returns (active+delta) modulo the list length
func (l List) Rotate(active, delta int) int {
	n := len(l)
	if n == 0 {
		return 0
	}
	return ((active+delta)%n + n) % n
}

// Index ranks catalog names against typed text
type Index struct {
	catalog  Catalog
	minChars int
	max      int
}

// NewIndex returns an index over catalog with the autocompletion threshold and suggestion cap
func NewIndex(catalog Catalog, minChars, maxSuggestions int) *Index {
	return &Index{catalog: catalog, minChars: minChars, max: maxSuggestions}
}

// SetLimits updates the thresholds after a config change
func (x *Index) SetLimits(minChars, maxSuggestions int) {
	x.minChars = minChars
	x.max = maxSuggestions
}

// Max returns the suggestion cap
func (x *Index) Max() int { return x.max }

func (x *Index) tooShort(typed string) bool {
	return typed == "" || runeLen(typed) < x.minChars
}

// AutoComplete returns the shortest name beginning with typed, ties broken alphabetically
// The result is the empty autocompletion when nothing matches
func (x *Index) AutoComplete(typed string) Suggestion {
	if x.tooShort(typed) {
		return EmptyAutoCompletion(typed)
	}

	var candidates []Entry
	canonTyped := Canonical(typed)
	for _, f := range x.catalog.Factories() {
		canonPrefix := Canonical(f.Prefix)
		switch {
		case strings.HasPrefix(canonTyped, canonPrefix):
			rest := string([]rune(typed)[runeLen(f.Prefix):])
			if f.Arbitrary {
				e := Entry{Name: f.Prefix + rest}
				if rest == "" {
					e.Help = f.Slot
				}
				candidates = append(candidates, e)
				continue
			}
			re := prefixPattern(rest)
			for _, arg := range f.Args {
				if re.MatchString(arg) {
					candidates = append(candidates, Entry{Name: f.Prefix + arg})
				}
			}
		case strings.HasPrefix(canonPrefix, canonTyped):
			candidates = append(candidates, Entry{Name: f.Prefix, Help: f.Slot})
		}
	}

	re := prefixPattern(typed)
	for _, e := range x.catalog.Entries() {
		if re.MatchString(e.Name) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return EmptyAutoCompletion(typed)
	}

	best := slices.MinFunc(candidates, func(a, b Entry) int {
		if d := runeLen(a.Name) - runeLen(b.Name); d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
	s, err := NewAutoCompletion(typed, best.Name, best.Help)
	if err != nil {
		return EmptyAutoCompletion(typed)
	}
	return s
}

// Suggestions returns up to limit names containing typed, sorted by nearness descending
//
// Candidates are pruned by a nearness threshold raised in 0.05 steps while more than
// limit remain. The set from the step before the last is kept, so the result is never
// shorter than limit when at least limit candidates exist
func (x *Index) Suggestions(typed string, limit int) []Suggestion {
	if limit <= 0 || x.tooShort(typed) {
		return nil
	}

	re := containsPattern(typed)
	var found []Suggestion
	seen := make(map[string]struct{})
	add := func(name, help string) {
		if _, dup := seen[name]; dup {
			return
		}
		if re.MatchString(name) {
			seen[name] = struct{}{}
			found = append(found, New(typed, name, help))
		}
	}
	for _, e := range x.catalog.Entries() {
		add(e.Name, e.Help)
	}
	for _, f := range x.catalog.Factories() {
		if f.Arbitrary {
			add(strings.TrimSpace(f.Prefix), f.Slot)
		}
	}

	found = prune(found, limit)
	slices.SortStableFunc(found, func(a, b Suggestion) int {
		switch {
		case a.nearness > b.nearness:
			return -1
		case a.nearness < b.nearness:
			return 1
		}
		return strings.Compare(a.suggestion, b.suggestion)
	})
	if len(found) > limit {
		found = found[:limit]
	}
	return found
}

const pruneStep = 0.05

func prune(found []Suggestion, limit int) []Suggestion {
	if len(found) <= limit {
		return found
	}
	previous := found
	current := found
	threshold := 0.0
	for len(current) > limit {
		previous = current
		threshold += pruneStep
		current = slices.DeleteFunc(slices.Clone(current), func(s Suggestion) bool {
			return s.nearness < threshold
		})
	}
	return previous
}

// Snapshot builds the suggestion list shown in the HUD for typed
func (x *Index) Snapshot(typed string) List {
	auto := x.AutoComplete(typed)
	list := List{auto}
	for _, s := range x.Suggestions(typed, x.max+1) {
		if !auto.IsEmpty() && strings.EqualFold(s.suggestion, auto.suggestion) {
			continue
		}
		if len(list) > x.max {
			break
		}
		list = append(list, s)
	}
	return list
}

// Nearest returns the catalog name nearest to typed regardless of pattern match
func (x *Index) Nearest(typed string) (Suggestion, bool) {
	if typed == "" {
		return Suggestion{}, false
	}
	var best Suggestion
	found := false
	for _, e := range x.catalog.Entries() {
		s := New(typed, e.Name, e.Help)
		if !found || s.nearness > best.nearness ||
			(s.nearness == best.nearness && s.suggestion < best.suggestion) {
			best, found = s, true
		}
	}
	return best, found
}
