package message

import (
	"html"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Message is a user notification; Primary and Mini are independent
type Message struct {
	ID      string
	Content string // XML-ish fragment
	Caption string // shown when a mini message is hovered
	Primary bool
	Mini    bool

	// Finished releases a mini message once true; nil keeps it until dismissed by overflow
	Finished func() bool
}

// Primary builds a transient overlay message
func Primary(content string) *Message {
	return &Message{Content: content, Primary: true}
}

// Mini builds a persistent toast
func Mini(content, caption string, finished func() bool) *Message {
	return &Message{Content: content, Caption: caption, Mini: true, Finished: finished}
}

// Both builds a primary message that moves to the mini stack on dismissal
func Both(content, caption string, finished func() bool) *Message {
	return &Message{Content: content, Caption: caption, Primary: true, Mini: true, Finished: finished}
}

func (m *Message) ensureID() {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
}

func (m *Message) finished() bool {
	return m.Finished != nil && m.Finished()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text strips markup from an XML-ish fragment, collapsing block tags to spaces
func Text(content string) string {
	content = strings.NewReplacer("</p>", " ", "<br/>", " ", "<br>", " ").Replace(content)
	plain := html.UnescapeString(tagPattern.ReplaceAllString(content, ""))
	return strings.Join(strings.Fields(plain), " ")
}

// Escape quotes text for inclusion in a message fragment
func Escape(s string) string {
	return html.EscapeString(s)
}
