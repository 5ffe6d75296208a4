package layout

import (
	"html"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Span is a run of visible text under a markup tag
type Span struct {
	Tag  string // innermost enclosing tag, empty at top level
	Text string
}

type token struct {
	tag     string // element name for tags
	closing bool
	void    bool   // self-closing, as in <br/>
	text    string // raw text or entity
}

// tokenize splits XML-ish markup into tags, entities and text runs
func tokenize(markup string) []token {
	var out []token
	for len(markup) > 0 {
		switch markup[0] {
		case '<':
			end := strings.IndexByte(markup, '>')
			if end < 0 {
				out = append(out, token{text: markup})
				return out
			}
			void := strings.HasSuffix(markup[1:end], "/")
			body := strings.TrimSuffix(markup[1:end], "/")
			closing := strings.HasPrefix(body, "/")
			name := strings.Fields(strings.TrimPrefix(body, "/"))
			tag := ""
			if len(name) > 0 {
				tag = name[0]
			}
			out = append(out, token{tag: tag, closing: closing, void: void && !closing})
			markup = markup[end+1:]
		case '&':
			end := strings.IndexByte(markup, ';')
			if end < 0 {
				out = append(out, token{text: "&"})
				markup = markup[1:]
				continue
			}
			out = append(out, token{text: markup[:end+1]})
			markup = markup[end+1:]
		default:
			end := strings.IndexAny(markup, "<&")
			if end < 0 {
				end = len(markup)
			}
			out = append(out, token{text: markup[:end]})
			markup = markup[end:]
		}
	}
	return out
}

func (t token) isTag() bool { return t.text == "" && (t.tag != "" || t.closing) }

// Spans flattens markup into styled runs of unescaped text
func Spans(markup string) []Span {
	var (
		stack []string
		out   []Span
	)
	for _, t := range tokenize(markup) {
		if t.isTag() {
			switch {
			case t.void:
			case t.closing:
				if n := len(stack); n > 0 {
					stack = stack[:n-1]
				}
			default:
				stack = append(stack, t.tag)
			}
			continue
		}
		tag := ""
		if n := len(stack); n > 0 {
			tag = stack[n-1]
		}
		text := html.UnescapeString(t.text)
		if n := len(out); n > 0 && out[n-1].Tag == tag {
			out[n-1].Text += text
			continue
		}
		out = append(out, Span{Tag: tag, Text: text})
	}
	return out
}

// Plain returns the visible text of markup
func Plain(markup string) string {
	var b strings.Builder
	for _, s := range Spans(markup) {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Ellipsize truncates the visible text of markup to at most cells terminal cells,
// ending with the ellipsis inside the current element and closing every open tag
func Ellipsize(markup string, cells int, ellipsis string) string {
	if runewidth.StringWidth(Plain(markup)) <= cells {
		return markup
	}
	budget := cells - runewidth.StringWidth(ellipsis)
	var (
		b     strings.Builder
		stack []string
		used  int
	)
	closeAll := func() {
		b.WriteString(ellipsis)
		for i := len(stack) - 1; i >= 0; i-- {
			b.WriteString("</" + stack[i] + ">")
		}
	}
	for _, t := range tokenize(markup) {
		if t.isTag() {
			switch {
			case t.void:
				b.WriteString("<" + t.tag + "/>")
			case t.closing:
				if n := len(stack); n > 0 {
					b.WriteString("</" + stack[n-1] + ">")
					stack = stack[:n-1]
				}
			default:
				stack = append(stack, t.tag)
				b.WriteString("<" + t.tag + ">")
			}
			continue
		}
		if strings.HasPrefix(t.text, "&") {
			w := runewidth.StringWidth(html.UnescapeString(t.text))
			if used+w > budget {
				closeAll()
				return b.String()
			}
			used += w
			b.WriteString(t.text)
			continue
		}
		for _, r := range t.text {
			w := runewidth.RuneWidth(r)
			if used+w > budget {
				closeAll()
				return b.String()
			}
			used += w
			b.WriteRune(r)
		}
	}
	closeAll()
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
