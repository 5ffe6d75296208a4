package event

import "time"

// Event is a published occurrence on a topic
type Event struct {
	Topic   Topic
	Payload any
	At      time.Time
}

// KeyEvent is delivered by the input provider on the key topic
type KeyEvent struct {
	Kind KeyKind
	Code KeyCode
}

// ModifierEvent reports a non-quasimodal key, used to track shift state
type ModifierEvent struct {
	Code KeyCode
	Down bool
}

// MouseEvent carries pointer position; Button is zero for pure moves
type MouseEvent struct {
	X, Y   int
	Button int
}

// EndQuasimode accompanies endQuasimode publications
type EndQuasimode struct {
	Cancelled bool
}

// TrayEvent names the tray menu entry that was selected
type TrayEvent struct {
	Item string
}

// Func is a posted closure executed on the main thread during Pump
// Used by worker goroutines (web UI, background tasks) to reach core state
type Func func()
