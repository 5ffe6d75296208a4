package suggest

import "unicode"

// SegmentKind classifies a run of suggestion characters
type SegmentKind uint8

const (
	SegmentKept SegmentKind = iota
	SegmentInserted
	SegmentAltered
)

var segmentTags = [...]string{
	SegmentKept:     "kept",
	SegmentInserted: "ins",
	SegmentAltered:  "alt",
}

// Segment is a run of suggestion text with its classification
type Segment struct {
	Kind SegmentKind
	Text string
}

func (s Segment) Open() string  { return "<" + segmentTags[s.Kind] + ">" }
func (s Segment) Close() string { return "</" + segmentTags[s.Kind] + ">" }

// Segments walks source left to right, greedily matching the longest initial run of the
// remaining source that occurs in the remaining suggestion
// Skipped suggestion characters are inserted, or altered when unmatched source preceded them
func Segments(source, suggestion string) []Segment {
	src := foldRunes(source)
	orig := []rune(suggestion)
	sug := foldRunes(suggestion)

	var out []Segment
	emit := func(kind SegmentKind, runes []rune) {
		if len(runes) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Kind == kind {
			out[n-1].Text += string(runes)
			return
		}
		out = append(out, Segment{Kind: kind, Text: string(runes)})
	}

	si, gi := 0, 0
	unmatched := false
	for si < len(src) && gi < len(sug) {
		length, pos := longestRun(src[si:], sug[gi:])
		if length == 0 {
			unmatched = true
			si++
			continue
		}
		pos += gi
		if pos > gi {
			emit(gapKind(unmatched), orig[gi:pos])
		}
		emit(SegmentKept, orig[pos:pos+length])
		unmatched = false
		gi = pos + length
		si += length
	}
	if si < len(src) {
		unmatched = true
	}
	if gi < len(orig) {
		emit(gapKind(unmatched), orig[gi:])
	}
	return out
}

func gapKind(unmatched bool) SegmentKind {
	if unmatched {
		return SegmentAltered
	}
	return SegmentInserted
}

// longestRun finds the longest prefix of needle occurring in hay; returns length and index in hay
func longestRun(needle, hay []rune) (int, int) {
	for l := len(needle); l > 0; l-- {
		if idx := indexRunes(hay, needle[:l]); idx >= 0 {
			return l, idx
		}
	}
	return 0, -1
}

func indexRunes(hay, needle []rune) int {
	if len(needle) > len(hay) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j, r := range needle {
			if hay[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

// foldRunes lowercases and folds equivalence classes rune by rune, keeping positions aligned
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		r = unicode.ToLower(r)
		if c, ok := classOf[r]; ok {
			r = c
		}
		runes[i] = r
	}
	return runes
}
