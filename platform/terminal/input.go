package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/quasimode"
)

// Bindings are the virtual keys reported for the terminal chords
// Ctrl+Space starts a session, Enter ends it and Esc cancels it
type Bindings struct {
	Start  event.KeyCode
	End    event.KeyCode
	Cancel event.KeyCode
}

// Poster is the cross-thread side of the bus
type Poster interface {
	Post(topic event.Topic, payload any)
	Call(fn func())
}

// namedKeys are the non-character keys forwarded as key presses
var namedKeys = map[tcell.Key]event.KeyCode{
	tcell.KeyBackspace:  event.VKBack,
	tcell.KeyBackspace2: event.VKBack,
	tcell.KeyTab:        event.VKTab,
	tcell.KeyUp:         event.VKUp,
	tcell.KeyDown:       event.VKDown,
}

// handle translates one tcell event; runs on the poll goroutine
func (s *Screen) handle(ev tcell.Event, p Poster) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		s.handleKey(ev, p)
	case *tcell.EventMouse:
		x, y := ev.Position()
		me := event.MouseEvent{X: x, Y: y, Button: buttonOf(ev.Buttons())}
		if me.Button == 0 {
			p.Post(event.TopicMouseMove, me)
		} else {
			p.Post(event.TopicDismissal, me)
		}
	case *tcell.EventResize:
		p.Call(s.resize)
	default:
		return
	}
	s.signal()
}

func (s *Screen) handleKey(ev *tcell.EventKey, p Poster) {
	key := ev.Key()
	ctrl := ev.Modifiers()&tcell.ModCtrl != 0
	switch {
	case key == tcell.KeyCtrlC, key == tcell.KeyRune && ctrl && ev.Rune() == 'c':
		s.log.Debugw("terminal interrupt")
		if s.onInterrupt != nil {
			s.onInterrupt()
		}
	case key == tcell.KeyCtrlSpace, key == tcell.KeyRune && ctrl && ev.Rune() == ' ':
		p.Post(event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeStart, Code: s.keys.Start})
	case key == tcell.KeyEnter:
		p.Post(event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeEnd, Code: s.keys.End})
	case key == tcell.KeyEscape:
		p.Post(event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeCancel, Code: s.keys.Cancel})
	case key == tcell.KeyRune:
		code, shift, ok := quasimode.KeyForRune(ev.Rune())
		if !ok {
			return
		}
		press(p, code, shift)
	default:
		if code, ok := namedKeys[key]; ok {
			press(p, code, false)
		}
	}
}

// press reports a full key stroke; terminals deliver no releases so down and up are paired
func press(p Poster, code event.KeyCode, shift bool) {
	if shift {
		p.Post(event.TopicSomeKey, event.ModifierEvent{Code: event.VKShift, Down: true})
	}
	p.Post(event.TopicKey, event.KeyEvent{Kind: event.KeyDown, Code: code})
	p.Post(event.TopicKey, event.KeyEvent{Kind: event.KeyUp, Code: code})
	if shift {
		p.Post(event.TopicSomeKey, event.ModifierEvent{Code: event.VKShift, Down: false})
	}
}

func buttonOf(b tcell.ButtonMask) int {
	switch {
	case b&tcell.Button1 != 0:
		return 1
	case b&tcell.Button2 != 0:
		return 2
	case b&tcell.Button3 != 0:
		return 3
	default:
		return 0
	}
}
