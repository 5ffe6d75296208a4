package layout

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/enso/parameter"
	"github.com/lixenwraith/enso/suggest"
)

// Role identifies the kind of a HUD line
type Role uint8

const (
	RoleDescription Role = iota
	RoleAutoCompletion
	RoleSuggestion
)

// Corners is the set of rounded right-hand corners of a line
type Corners uint8

const (
	CornerUpperRight Corners = 1 << iota
	CornerLowerRight
)

func (c Corners) Has(x Corners) bool { return c&x != 0 }

// Line is one entry of the draw list
type Line struct {
	Role       Role
	Markup     string
	Size       float64
	Foreground RGB
	Background RGB
	Corners    Corners
	RagWidth   float64
	Active     bool
	Ellipsized bool
}

// Frame is the ordered draw list handed to the renderer
type Frame struct {
	Lines   []Line
	Palette Palette
}

// Measurer reports the horizontal extent of plain text at a font size
type Measurer interface {
	Width(text string, size float64) float64
}

// PointMeasurer approximates proportional fonts: every cell advances Advance x size points
type PointMeasurer struct {
	Advance float64
}

func (m PointMeasurer) Width(text string, size float64) float64 {
	adv := m.Advance
	if adv == 0 {
		adv = 0.6
	}
	return float64(runewidth.StringWidth(text)) * size * adv
}

// CellMeasurer measures in terminal cells regardless of size
type CellMeasurer struct{}

func (CellMeasurer) Width(text string, _ float64) float64 {
	return float64(runewidth.StringWidth(text))
}

// Style is the resolved style of one line kind
type Style struct {
	Sizes   []float64 // candidates, largest first
	Padding float64
}

// Styles holds the three style registries
type Styles struct {
	Description    Style
	AutoCompletion Style
	Suggestion     Style
}

// DefaultStyles returns the point-based registries
func DefaultStyles() Styles {
	return Styles{
		Description:    Style{Sizes: []float64{12, 11, 10}, Padding: 8},
		AutoCompletion: Style{Sizes: []float64{24, 22, 20, 18, 16}, Padding: 8},
		Suggestion:     Style{Sizes: []float64{18, 16, 14, 12}, Padding: 8},
	}
}

// CellStyles returns registries for a character-cell display
func CellStyles() Styles {
	one := Style{Sizes: []float64{1}, Padding: 1}
	return Styles{Description: one, AutoCompletion: one, Suggestion: one}
}

// FitStatus is the outcome of fitting a line
type FitStatus uint8

const (
	FitOK FitStatus = iota
	FitOverflow
)

// FitResult carries the measured extent of a fit attempt
type FitResult struct {
	Status FitStatus
	Width  float64
}

// Input is everything a frame is computed from
type Input struct {
	Description string // markup
	List        suggest.List
	Active      int
	// SuggestionsPending omits suggestion lines while the spring-loaded delay runs
	SuggestionsPending bool
}

// Layout turns input snapshots into draw lists
type Layout struct {
	measurer   Measurer
	styles     Styles
	palette    Palette
	width      float64
	iterations int
	delta      float64
	ellipsis   string
}

// New returns a layout bounded by width in measurer units
func New(m Measurer, styles Styles, palette Palette, width float64) *Layout {
	return &Layout{
		measurer:   m,
		styles:     styles,
		palette:    palette,
		width:      width,
		iterations: parameter.RagIterations,
		delta:      parameter.RagDelta,
		ellipsis:   parameter.Ellipsis,
	}
}

// SetRag configures the smoothing pass
func (l *Layout) SetRag(iterations int, delta float64) {
	l.iterations = iterations
	l.delta = delta
}

// SetPalette switches theme
func (l *Layout) SetPalette(p Palette) { l.palette = p }

// Palette returns the current theme
func (l *Layout) Palette() Palette { return l.palette }

// Fit measures markup at size against the available width
func (l *Layout) Fit(markup string, size, padding float64) FitResult {
	w := l.measurer.Width(Plain(markup), size) + 2*padding
	if w > l.width {
		return FitResult{Status: FitOverflow, Width: w}
	}
	return FitResult{Status: FitOK, Width: w}
}

// Compose lays out description, autocompletion and suggestions into a frame
func (l *Layout) Compose(in Input) Frame {
	p := l.palette
	lines := []Line{l.line(RoleDescription, in.Description, l.styles.Description, p.DescriptionFg, p.DescriptionBg, false)}

	if len(in.List) > 0 {
		auto := in.List[0]
		markup := auto.Markup()
		if auto.IsEmpty() {
			markup = ""
			if auto.Source() != "" {
				markup = "<alt>" + escapeText(auto.Source()) + "</alt>"
			}
		}
		if markup != "" {
			active := in.Active == 0
			bg := p.InactiveBg
			if active {
				bg = p.ActiveBg
			}
			lines = append(lines, l.line(RoleAutoCompletion, markup, l.styles.AutoCompletion, p.Text, bg, active))
		}
		if !in.SuggestionsPending {
			for i, s := range in.List[1:] {
				active := in.Active == i+1
				bg := p.SuggestionBg
				if active {
					bg = p.SuggestionActiveBg
				}
				lines = append(lines, l.line(RoleSuggestion, s.Markup(), l.styles.Suggestion, p.Text, bg, active))
			}
		}
	}

	Smooth(lines, l.iterations, l.delta)
	RoundCorners(lines)
	return Frame{Lines: lines, Palette: p}
}

func (l *Layout) line(role Role, markup string, st Style, fg, bg RGB, active bool) Line {
	ln := Line{Role: role, Foreground: fg, Background: bg, Active: active}
	for _, size := range st.Sizes {
		if r := l.Fit(markup, size, st.Padding); r.Status == FitOK {
			ln.Markup, ln.Size, ln.RagWidth = markup, size, r.Width
			return ln
		}
	}

	smallest := 1.0
	if n := len(st.Sizes); n > 0 {
		smallest = st.Sizes[n-1]
	}
	cell := l.measurer.Width("M", smallest)
	cells := 0
	if cell > 0 {
		cells = int(math.Floor((l.width - 2*st.Padding) / cell))
	}
	ln.Markup = Ellipsize(markup, max(cells, 0), l.ellipsis)
	ln.Size = smallest
	ln.Ellipsized = true
	ln.RagWidth = min(l.Fit(ln.Markup, smallest, st.Padding).Width, l.width)
	return ln
}

// Smooth widens adjacent lines whose widths differ by less than delta to the wider,
// repeating until stable or iterations run out
func Smooth(lines []Line, iterations int, delta float64) {
	for range iterations {
		changed := false
		for i := 0; i+1 < len(lines); i++ {
			a, b := lines[i].RagWidth, lines[i+1].RagWidth
			if a == b || math.Abs(a-b) >= delta {
				continue
			}
			w := max(a, b)
			lines[i].RagWidth, lines[i+1].RagWidth = w, w
			changed = true
		}
		if !changed {
			return
		}
	}
}

// RoundCorners rounds a right-hand corner when the neighbour on that side is absent or narrower
func RoundCorners(lines []Line) {
	for i := range lines {
		var c Corners
		if i == 0 || lines[i-1].RagWidth < lines[i].RagWidth {
			c |= CornerUpperRight
		}
		if i == len(lines)-1 || lines[i+1].RagWidth < lines[i].RagWidth {
			c |= CornerLowerRight
		}
		lines[i].Corners = c
	}
}

func escapeText(s string) string {
	return htmlEscaper.Replace(s)
}
