package suggest

import (
	"regexp"
	"strings"
	"unicode"
)

// equivalents pairs each unshifted key with its shifted symbol on a US keyboard
var equivalents = [][2]rune{
	{'1', '!'}, {'2', '@'}, {'3', '#'}, {'4', '$'}, {'5', '%'},
	{'6', '^'}, {'7', '&'}, {'8', '*'}, {'9', '('}, {'0', ')'},
	{'-', '_'}, {'=', '+'}, {'[', '{'}, {']', '}'}, {'\\', '|'},
	{';', ':'}, {'\'', '"'}, {',', '<'}, {'.', '>'}, {'/', '?'},
	{'`', '~'},
}

// classOf maps a rune to the canonical (unshifted) member of its equivalence class
var classOf = func() map[rune]rune {
	m := make(map[rune]rune, len(equivalents)*2)
	for _, pair := range equivalents {
		m[pair[0]] = pair[0]
		m[pair[1]] = pair[0]
	}
	return m
}()

var membersOf = func() map[rune][]rune {
	m := make(map[rune][]rune, len(equivalents))
	for _, pair := range equivalents {
		m[pair[0]] = []rune{pair[0], pair[1]}
	}
	return m
}()

// Canonical lowercases s and folds every rune to its equivalence class representative
func Canonical(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		r = unicode.ToLower(r)
		if c, ok := classOf[r]; ok {
			r = c
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CollapseSpace trims s and reduces every whitespace run to a single space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// patternBody converts typed text into a regular expression body
// Each rune becomes a class of its equivalents and each space run becomes " +"
func patternBody(typed string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range typed {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteString(" +")
				inSpace = true
			}
			continue
		}
		inSpace = false

		c := r
		if rep, ok := classOf[r]; ok {
			c = rep
		}
		if members, ok := membersOf[c]; ok {
			b.WriteByte('[')
			for _, m := range members {
				b.WriteString(regexp.QuoteMeta(string(m)))
			}
			b.WriteByte(']')
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// prefixPattern matches names beginning with typed
func prefixPattern(typed string) *regexp.Regexp {
	return regexp.MustCompile("(?i)^" + patternBody(typed))
}

// containsPattern matches names containing typed anywhere
func containsPattern(typed string) *regexp.Regexp {
	return regexp.MustCompile("(?i)^.*" + patternBody(typed))
}
