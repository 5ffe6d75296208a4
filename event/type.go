package event

// Topic names a channel of the responder table
type Topic string

// Built-in topics; the set is closed except for topics added through Bus.CreateTopic
const (
	TopicInit      Topic = "init"
	TopicTimer     Topic = "timer"
	TopicKey       Topic = "key"
	TopicSomeKey   Topic = "somekey"   // Non-quasimodal keys and modifier changes
	TopicDismissal Topic = "dismissal" // Any input event
	TopicMouseMove Topic = "mousemove"
	TopicTrayMenu  Topic = "traymenu"
	TopicIdle      Topic = "idle"
)

// Dynamic topics created by the quasimode at startup
const (
	TopicStartQuasimode Topic = "startQuasimode"
	TopicEndQuasimode   Topic = "endQuasimode"
)

var builtinTopics = []Topic{
	TopicInit,
	TopicTimer,
	TopicKey,
	TopicSomeKey,
	TopicDismissal,
	TopicMouseMove,
	TopicTrayMenu,
	TopicIdle,
}

// KeyKind classifies a key event delivered by the input provider
type KeyKind uint8

const (
	KeyQuasimodeStart KeyKind = iota
	KeyQuasimodeEnd
	KeyQuasimodeCancel
	KeyDown
	KeyUp
)

var keyKindNames = [...]string{
	KeyQuasimodeStart:  "QuasimodeStart",
	KeyQuasimodeEnd:    "QuasimodeEnd",
	KeyQuasimodeCancel: "QuasimodeCancel",
	KeyDown:            "KeyDown",
	KeyUp:              "KeyUp",
}

func (k KeyKind) String() string {
	if int(k) < len(keyKindNames) {
		return keyKindNames[k]
	}
	return "Unknown"
}
