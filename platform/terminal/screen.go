package terminal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/lixenwraith/enso/core"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/message"
)

var (
	// ErrScreen is returned when the terminal cannot be opened
	ErrScreen = errors.New("terminal screen unavailable")

	// ErrClosed is returned by Run once the screen was finalized
	ErrClosed = errors.New("terminal screen closed")
)

// Screen is the tcell input provider and HUD sink
// Drawing methods run on the main loop; Run owns the poll goroutine
type Screen struct {
	screen  tcell.Screen
	keys    Bindings
	palette layout.Palette
	log     *zap.SugaredLogger

	wake        chan struct{}
	onInterrupt func()
	mouse       bool

	frame        *layout.Frame
	primary      *message.Message
	primaryState message.PrimaryState
	minis        []message.MiniView
}

// New opens the controlling terminal
func New(keys Bindings, palette layout.Palette, log *zap.SugaredLogger) (*Screen, error) {
	sc, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreen, err)
	}
	return NewWith(sc, keys, palette, log), nil
}

// NewWith wraps an existing tcell screen, used with simulation screens in tests
func NewWith(sc tcell.Screen, keys Bindings, palette layout.Palette, log *zap.SugaredLogger) *Screen {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Screen{
		screen:  sc,
		keys:    keys,
		palette: palette,
		log:     log,
		wake:    make(chan struct{}, 1),
	}
}

// Init puts the terminal in raw mode
func (s *Screen) Init() error {
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrScreen, err)
	}
	s.screen.HideCursor()
	s.screen.Clear()
	s.screen.Show()
	return nil
}

// Fini restores the terminal
func (s *Screen) Fini() { s.screen.Fini() }

// Wake signals after every posted input so the loop can deliver it before the next tick
func (s *Screen) Wake() <-chan struct{} { return s.wake }

// OnInterrupt installs the Ctrl+C hook; it runs on the poll goroutine
func (s *Screen) OnInterrupt(fn func()) { s.onInterrupt = fn }

// SetPalette changes the colours of message overlays
func (s *Screen) SetPalette(p layout.Palette) {
	s.palette = p
	s.repaint()
}

// SetMouse toggles mouse capture
func (s *Screen) SetMouse(on bool) {
	if on == s.mouse {
		return
	}
	s.mouse = on
	if on {
		s.screen.EnableMouse(tcell.MouseMotionEvents)
	} else {
		s.screen.DisableMouse()
	}
}

// Run polls terminal events and posts them to p until ctx ends or the screen is finalized
func (s *Screen) Run(ctx context.Context, p Poster) error {
	done := make(chan struct{})
	defer close(done)
	core.Go(func() {
		select {
		case <-ctx.Done():
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	})

	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return ErrClosed
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		s.handle(ev, p)
	}
}

func (s *Screen) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Draw shows the HUD frame
func (s *Screen) Draw(frame layout.Frame) {
	s.frame = &frame
	s.repaint()
}

// Hide removes the HUD
func (s *Screen) Hide() {
	s.frame = nil
	s.repaint()
}

// PrimaryChanged follows the overlay message lifecycle
func (s *Screen) PrimaryChanged(m *message.Message, state message.PrimaryState) {
	if state == message.PrimaryHidden {
		m = nil
	}
	s.primary, s.primaryState = m, state
	s.repaint()
}

// MinisChanged redraws the mini stack
func (s *Screen) MinisChanged(stack []message.MiniView) {
	s.minis = slices.Clone(stack)
	s.repaint()
}

func (s *Screen) resize() {
	s.screen.Sync()
	s.repaint()
}

func (s *Screen) repaint() {
	s.screen.Clear()
	w, h := s.screen.Size()
	if s.frame != nil {
		s.drawFrame(*s.frame, w)
	}
	if s.primary != nil {
		s.drawPrimary(w, h)
	}
	s.drawMinis(w, h)
	s.screen.Show()
}

func (s *Screen) drawFrame(f layout.Frame, w int) {
	for y, ln := range f.Lines {
		width := min(int(math.Ceil(ln.RagWidth)), w)
		base := styleOf(ln.Foreground, ln.Background).Bold(ln.Active && ln.Role == layout.RoleAutoCompletion)
		s.fill(0, y, width, base)

		x := 1
		for _, sp := range layout.Spans(ln.Markup) {
			fg := ln.Foreground
			if sp.Tag != "" {
				fg = f.Palette.Tag(sp.Tag)
			}
			x = s.put(x, y, width-1, sp.Text, base.Foreground(rgb(fg)))
		}
		if r, ok := edgeRunes[ln.Corners]; ok && width > 0 {
			s.screen.SetContent(width-1, y, r, nil, base)
		}
	}
}

func (s *Screen) drawPrimary(w, h int) {
	lines := []string{message.Text(s.primary.Content)}
	if s.primary.Caption != "" {
		lines = append(lines, message.Text(s.primary.Caption))
	}
	width := 0
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(l))
	}
	width = min(width+4, w)

	st := styleOf(s.palette.DescriptionFg, s.palette.DescriptionBg).Dim(s.primaryState == message.PrimaryFading)
	x0 := max((w-width)/2, 0)
	y0 := max((h-len(lines))/2-1, 0)
	s.fill(x0, y0, width, st)
	for i, l := range lines {
		s.fill(x0, y0+i+1, width, st)
		s.put(x0+2, y0+i+1, x0+width-2, l, st)
	}
	s.fill(x0, y0+len(lines)+1, width, st)
}

func (s *Screen) drawMinis(w, h int) {
	y := h - 1
	for i := len(s.minis) - 1; i >= 0 && y >= 0; i-- {
		mv := s.minis[i]
		text := message.Text(mv.Message.Content)
		if mv.Hovered && mv.Message.Caption != "" {
			text = message.Text(mv.Message.Caption)
		}
		width := min(runewidth.StringWidth(text)+2, w)
		st := styleOf(s.palette.Text, s.palette.SuggestionBg).Dim(mv.Sliding)
		x0 := w - width
		s.fill(x0, y, width, st)
		s.put(x0+1, y, w-1, text, st)
		y--
	}
}

func (s *Screen) fill(x0, y, width int, st tcell.Style) {
	for x := x0; x < x0+width; x++ {
		s.screen.SetContent(x, y, ' ', nil, st)
	}
}

// put writes text from x up to limit (exclusive) and returns the next column
func (s *Screen) put(x, y, limit int, text string, st tcell.Style) int {
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if x+rw > limit {
			break
		}
		s.screen.SetContent(x, y, r, nil, st)
		x += rw
	}
	return x
}

var edgeRunes = map[layout.Corners]rune{
	layout.CornerUpperRight:                           '╮',
	layout.CornerLowerRight:                           '╯',
	layout.CornerUpperRight | layout.CornerLowerRight: '◗',
}

func styleOf(fg, bg layout.RGB) tcell.Style {
	return tcell.StyleDefault.Foreground(rgb(fg)).Background(rgb(bg))
}

func rgb(c layout.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
