package audio

import (
	"io"
	"math"
	"time"
)

// Tone is a decaying sine burst in signed 16-bit little-endian PCM.
type Tone struct {
	freq       float64
	sampleRate int
	channels   int
	total      int // frames
	pos        int
}

func NewTone(freq float64, dur time.Duration, sampleRate, channels int) *Tone {
	if channels <= 0 {
		channels = 1
	}
	return &Tone{
		freq:       freq,
		sampleRate: sampleRate,
		channels:   channels,
		total:      int(float64(sampleRate) * dur.Seconds()),
	}
}

// Read implements io.Reader for oto.Player. Only whole frames are written.
func (t *Tone) Read(p []byte) (int, error) {
	if t.pos >= t.total {
		return 0, io.EOF
	}
	frameSize := 2 * t.channels
	frames := len(p) / frameSize
	if rest := t.total - t.pos; frames > rest {
		frames = rest
	}
	n := 0
	for i := 0; i < frames; i++ {
		env := math.Exp(-4 * float64(t.pos) / float64(t.total))
		s := math.Sin(2 * math.Pi * t.freq * float64(t.pos) / float64(t.sampleRate))
		v := int16(s * env * 0.5 * 32767)
		for ch := 0; ch < t.channels; ch++ {
			p[n] = byte(v)
			p[n+1] = byte(v >> 8)
			n += 2
		}
		t.pos++
	}
	return n, nil
}

// Len returns the total size of the tone in bytes.
func (t *Tone) Len() int { return t.total * 2 * t.channels }
