package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// Waveform shapes for generated cues
const (
	waveSine = iota
	waveSquare
	waveNoise
)

// tone is a finite oscillator with a linear attack/release envelope.
type tone struct {
	sr      beep.SampleRate
	wave    int
	freq    float64
	freqEnd float64 // Linear sweep target; equal to freq for a steady pitch
	total   int
	attack  int
	release int
	pos     int
	phase   float64
	rng     *rand.Rand
}

func newTone(sr beep.SampleRate, wave int, freq, freqEnd float64, d, attack, release time.Duration) *tone {
	return &tone{
		sr:      sr,
		wave:    wave,
		freq:    freq,
		freqEnd: freqEnd,
		total:   sr.N(d),
		attack:  sr.N(attack),
		release: sr.N(release),
		rng:     rand.New(rand.NewSource(1)),
	}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.total {
			return i, true
		}
		progress := float64(t.pos) / float64(t.total)
		freq := t.freq + (t.freqEnd-t.freq)*progress

		var v float64
		switch t.wave {
		case waveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case waveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case waveNoise:
			v = t.rng.Float64()*2 - 1
		}
		v *= t.envelope()

		samples[i][0] = v
		samples[i][1] = v

		t.phase += freq / float64(t.sr)
		if t.phase >= 1 {
			t.phase -= math.Floor(t.phase)
		}
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

func (t *tone) envelope() float64 {
	if t.attack > 0 && t.pos < t.attack {
		return float64(t.pos) / float64(t.attack)
	}
	releaseStart := t.total - t.release
	if t.release > 0 && t.pos >= releaseStart {
		return float64(t.total-t.pos) / float64(t.release)
	}
	return 1
}

// generate renders a cue into a buffer so it can be replayed from memory.
func generate(format beep.Format, c Cue) *beep.Buffer {
	sr := format.SampleRate
	buf := beep.NewBuffer(format)

	switch c {
	case CueHit:
		// Short bright blip
		buf.Append(newTone(sr, waveSquare, 880, 1320, 90*time.Millisecond, 5*time.Millisecond, 60*time.Millisecond))
	case CueExplosion:
		// Noise burst over a falling low tone
		buf.Append(beep.Mix(
			newVolume(newTone(sr, waveNoise, 0, 0, 350*time.Millisecond, 2*time.Millisecond, 300*time.Millisecond), 0.6),
			newVolume(newTone(sr, waveSine, 110, 40, 350*time.Millisecond, 2*time.Millisecond, 250*time.Millisecond), 0.4),
		))
	case CueLose:
		// Three descending notes
		buf.Append(beep.Seq(
			newTone(sr, waveSine, 523.25, 523.25, 250*time.Millisecond, 10*time.Millisecond, 80*time.Millisecond),
			newTone(sr, waveSine, 392.00, 392.00, 250*time.Millisecond, 10*time.Millisecond, 80*time.Millisecond),
			newTone(sr, waveSine, 261.63, 200.00, 600*time.Millisecond, 10*time.Millisecond, 400*time.Millisecond),
		))
	}
	return buf
}
