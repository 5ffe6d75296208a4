package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Cue names a short feedback sound
type Cue int

const (
	CueBadCommand Cue = iota // Quasimode ended on unknown text
	CueMessage               // Primary message shown
	CueDone                  // Cooperative command finished
	cueCount
)

func (c Cue) String() string {
	switch c {
	case CueBadCommand:
		return "bad-command"
	case CueMessage:
		return "message"
	case CueDone:
		return "done"
	}
	return "unknown"
}

// Wave selects the oscillator shape
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// partial is one oscillator of a cue
type partial struct {
	freq    float64
	wave    Wave
	gain    float64
	delay   time.Duration // offset from the cue start
	length  time.Duration
	attack  time.Duration
	release time.Duration
}

// cueTable lists the partials mixed for each cue
var cueTable = [cueCount][]partial{
	CueBadCommand: {
		{freq: 110, wave: WaveSaw, gain: 0.8, length: 150 * time.Millisecond, attack: 5 * time.Millisecond, release: 60 * time.Millisecond},
		{freq: 220, wave: WaveSaw, gain: 0.2, length: 150 * time.Millisecond, attack: 5 * time.Millisecond, release: 60 * time.Millisecond},
	},
	CueMessage: {
		{freq: 880, wave: WaveSine, gain: 0.7, length: 400 * time.Millisecond, attack: 3 * time.Millisecond, release: 380 * time.Millisecond},
		{freq: 1760, wave: WaveSine, gain: 0.3, length: 400 * time.Millisecond, attack: 3 * time.Millisecond, release: 200 * time.Millisecond},
	},
	CueDone: {
		{freq: 987.77, wave: WaveSquare, gain: 0.5, length: 80 * time.Millisecond, attack: 2 * time.Millisecond, release: 40 * time.Millisecond},
		{freq: 1318.51, wave: WaveSquare, gain: 0.5, delay: 80 * time.Millisecond, length: 160 * time.Millisecond, attack: 2 * time.Millisecond, release: 120 * time.Millisecond},
	},
}

// Duration returns the total length of cue c
func Duration(c Cue) time.Duration {
	var d time.Duration
	if c < 0 || c >= cueCount {
		return 0
	}
	for _, p := range cueTable[c] {
		d = max(d, p.delay+p.length)
	}
	return d
}

// Synth renders cue c at rate scaled by volume; nil for unknown cues
func Synth(c Cue, rate beep.SampleRate, volume float64) beep.Streamer {
	if c < 0 || c >= cueCount {
		return nil
	}
	parts := make([]beep.Streamer, 0, len(cueTable[c]))
	for _, p := range cueTable[c] {
		var s beep.Streamer = newEnvelope(newOscillator(p.freq, p.length, p.wave, rate), p.length, p.attack, p.release, rate)
		s = newVolume(s, p.gain)
		if p.delay > 0 {
			s = beep.Seq(beep.Silence(rate.N(p.delay)), s)
		}
		parts = append(parts, s)
	}
	return newVolume(beep.Mix(parts...), volume)
}

// oscillator generates one raw wave for a fixed number of samples
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     Wave
	rate     beep.SampleRate
}

func newOscillator(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &oscillator{freq: freq, duration: rate.N(d), wave: wave, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1
			if o.phase >= 0.5 {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}
		samples[i][0], samples[i][1] = val, val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope shapes a stream with a linear attack and release
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, length, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{streamer: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(length)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.release > 0 && e.position >= releaseStart {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales linearly; zero or less is silent since Log2(0) is -Inf
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
