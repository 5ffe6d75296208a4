package selection

import (
	"errors"
	"strings"
)

// ErrClipboardBusy is returned when the clipboard stays held by another application past the retry budget
var ErrClipboardBusy = errors.New("clipboard busy")

// Format is a selection format tag
type Format string

const (
	FormatText   Format = "text"
	FormatHTML   Format = "html"
	FormatRTF    Format = "rtf"
	FormatBitmap Format = "bitmap"
	FormatFiles  Format = "files"

	// FormatIgnore marks synthesised writes for clipboard history tools
	FormatIgnore Format = "Clipboard Viewer Ignore"
)

// snapshotFormats are saved and restored around every get and set
var snapshotFormats = []Format{FormatText, FormatHTML, FormatRTF, FormatBitmap}

// writeOrder lists deliverable formats richest first
var writeOrder = []Format{FormatHTML, FormatText, FormatFiles}

// Dict is the selection dictionary; the zero value is no selection
type Dict struct {
	Text  string
	HTML  string
	Files []string
}

// IsEmpty reports whether no recognised format is present
func (d Dict) IsEmpty() bool {
	return d.Text == "" && d.HTML == "" && len(d.Files) == 0
}

// Has reports whether tag carries a payload
func (d Dict) Has(f Format) bool {
	switch f {
	case FormatText:
		return d.Text != ""
	case FormatHTML:
		return d.HTML != ""
	case FormatFiles:
		return len(d.Files) > 0
	}
	return false
}

// Formats returns the present tags in write order
func (d Dict) Formats() []Format {
	var out []Format
	for _, f := range writeOrder {
		if d.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (d Dict) encode(f Format) []byte {
	switch f {
	case FormatText:
		return []byte(d.Text)
	case FormatHTML:
		return []byte(d.HTML)
	case FormatFiles:
		return []byte(strings.Join(d.Files, "\n"))
	}
	return nil
}

func (d *Dict) decode(f Format, data []byte) {
	switch f {
	case FormatText:
		d.Text = string(data)
	case FormatHTML:
		d.HTML = string(data)
	case FormatFiles:
		for _, p := range strings.Split(string(data), "\n") {
			if p = strings.TrimSpace(p); p != "" {
				d.Files = append(d.Files, p)
			}
		}
	}
}

// Contains reports whether every recognised tag of want is present in d with equal payload
func (d Dict) Contains(want Dict) bool {
	if want.Text != "" && d.Text != want.Text {
		return false
	}
	if want.HTML != "" && d.HTML != want.HTML {
		return false
	}
	if len(want.Files) > 0 {
		if len(d.Files) != len(want.Files) {
			return false
		}
		for i := range want.Files {
			if d.Files[i] != want.Files[i] {
				return false
			}
		}
	}
	return true
}
