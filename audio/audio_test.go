package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/message"
)

// drain reads s to exhaustion and returns the sample count and the peak amplitude
func drain(s beep.Streamer) (int, float64) {
	buf := make([][2]float64, 512)
	total, peak := 0, 0.0
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestSynthLengthMatchesDuration(t *testing.T) {
	const rate = beep.SampleRate(8000)
	for c := Cue(0); c < cueCount; c++ {
		t.Run(c.String(), func(t *testing.T) {
			n, peak := drain(Synth(c, rate, 1))
			assert.Equal(t, rate.N(Duration(c)), n)
			assert.Greater(t, peak, 0.0)
			assert.LessOrEqual(t, peak, 1.0)
		})
	}
}

func TestSynthUnknownCue(t *testing.T) {
	assert.Nil(t, Synth(cueCount, sampleRate, 1))
	assert.Nil(t, Synth(-1, sampleRate, 1))
	assert.Zero(t, Duration(cueCount))
}

func TestSynthSilentAtZeroVolume(t *testing.T) {
	_, peak := drain(Synth(CueMessage, beep.SampleRate(8000), 0))
	assert.Zero(t, peak)
}

func TestEnvelopeShape(t *testing.T) {
	const rate = beep.SampleRate(1000)
	osc := newOscillator(0, 100*time.Millisecond, WaveSquare, rate)
	env := newEnvelope(osc, 100*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond, rate)
	buf := make([][2]float64, 100)
	n, _ := env.Stream(buf)
	require.Equal(t, 100, n)
	assert.Zero(t, buf[0][0], "attack starts silent")
	assert.Equal(t, 1.0, buf[50][0], "sustain at full level")
	assert.InDelta(t, 0.1, buf[99][0], 1e-9, "release ramps down")
}

type fakeOutput struct {
	initErr error
	inits   int
	plays   int
	closed  bool
}

func (o *fakeOutput) Init(beep.SampleRate, int) error {
	o.inits++
	return o.initErr
}
func (o *fakeOutput) Play(beep.Streamer) { o.plays++ }
func (o *fakeOutput) Close()             { o.closed = true }

func TestPlayerDisabledIsSilent(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayerWith(out, false, nil)
	p.Start()
	p.Play(CueMessage)
	assert.Zero(t, out.inits)
	assert.Zero(t, out.plays)
}

func TestPlayerInitFailureIsSilent(t *testing.T) {
	out := &fakeOutput{initErr: errors.New("no device")}
	p := NewPlayerWith(out, true, nil)
	p.Start()
	p.BadCommand("xyz")
	assert.Equal(t, 1, out.inits)
	assert.Zero(t, out.plays)
}

func TestPlayerCues(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayerWith(out, true, nil)
	p.Start()
	p.Start()
	assert.Equal(t, 1, out.inits)

	p.BadCommand("xyz")
	p.MessageShown(message.Primary("<p>hi</p>"))
	p.MessageShown(message.Mini("<p>quiet</p>", "", nil))
	assert.Equal(t, 2, out.plays)
	assert.Equal(t, 1, p.Played(CueBadCommand))
	assert.Equal(t, 1, p.Played(CueMessage))

	p.SetEnabled(false)
	p.Play(CueDone)
	assert.Equal(t, 2, out.plays)

	p.Fini()
	assert.True(t, out.closed)
}
