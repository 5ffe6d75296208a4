package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/lixenwraith/enso/message"
)

const sampleRate = beep.SampleRate(44100)

// Output plays streamers; speakerOutput is the real device
type Output interface {
	Init(rate beep.SampleRate, buffer int) error
	Play(s beep.Streamer)
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, buffer int) error { return speaker.Init(rate, buffer) }
func (speakerOutput) Play(s beep.Streamer)                        { speaker.Play(s) }
func (speakerOutput) Close()                                      { speaker.Close() }

// Player renders cues on the speaker; a disabled or failed player is silent
type Player struct {
	mu      sync.Mutex
	out     Output
	volume  float64
	enabled bool
	started bool
	played  [cueCount]int
	log     *zap.SugaredLogger
}

// NewPlayer returns a player on the system speaker
func NewPlayer(enabled bool, log *zap.SugaredLogger) *Player {
	return NewPlayerWith(speakerOutput{}, enabled, log)
}

// NewPlayerWith returns a player on out
func NewPlayerWith(out Output, enabled bool, log *zap.SugaredLogger) *Player {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Player{out: out, volume: 0.3, enabled: enabled, log: log}
}

// Start opens the output; failure is logged and leaves the player silent
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.started {
		return
	}
	if err := p.out.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		p.log.Warnw("audio unavailable", "error", err)
		p.enabled = false
		return
	}
	p.started = true
}

// SetVolume sets the master gain in [0, 1]
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = min(max(v, 0), 1)
	p.mu.Unlock()
}

// SetEnabled toggles playback; enabling starts the output lazily
func (p *Player) SetEnabled(on bool) {
	p.mu.Lock()
	p.enabled = on
	p.mu.Unlock()
	if on {
		p.Start()
	}
}

// Play queues cue c
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || !p.enabled {
		return
	}
	s := Synth(c, sampleRate, p.volume)
	if s == nil {
		return
	}
	p.played[c]++
	p.out.Play(s)
}

// Played returns how many times c was queued
func (p *Player) Played(c Cue) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c < 0 || c >= cueCount {
		return 0
	}
	return p.played[c]
}

// MessageShown rings the message cue for primary messages
func (p *Player) MessageShown(m *message.Message) {
	if m != nil && m.Primary {
		p.Play(CueMessage)
	}
}

// BadCommand buzzes for unknown typed text
func (p *Player) BadCommand(string) { p.Play(CueBadCommand) }

// Fini closes the output; it satisfies core.Finisher
func (p *Player) Fini() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.out.Close()
		p.started = false
	}
}
