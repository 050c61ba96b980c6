// Package audio records the game's sound cues onto a track that follows the
// simulation clock, so a headless run still has its audio.
package audio

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"swarm-defense/internal/config"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// Cue identifies a sound effect.
type Cue int

const (
	CueHit       Cue = iota // Enemy destroyed by a click
	CueExplosion            // Enemy hit the base
	CueLose                 // Base destroyed
	numCues
)

func (c Cue) String() string {
	switch c {
	case CueHit:
		return "hit"
	case CueExplosion:
		return "explosion"
	case CueLose:
		return "lose"
	default:
		return "unknown"
	}
}

// MaxTrackLength caps how much audio a deck captures. The track is held in
// memory until Close (about 10 MB per minute at 44.1 kHz stereo).
const MaxTrackLength = 10 * time.Minute

// Deck mixes triggered cues and captures the mix as simulation time passes.
// Play and Advance are cheap and never block on I/O.
type Deck struct {
	mu sync.Mutex

	cfg    config.AudioConfig
	format beep.Format
	mixer  *beep.Mixer
	track  *beep.Buffer
	cues   [numCues]*beep.Buffer
	played [numCues]int

	maxSamples int
	full       bool
}

// NewDeck creates a deck with generated cues. Cue files named in cfg replace
// the generated sounds; a file that fails to load is logged and skipped.
func NewDeck(cfg config.AudioConfig) *Deck {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(cfg.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}

	d := &Deck{
		cfg:        cfg,
		format:     format,
		mixer:      &beep.Mixer{},
		track:      beep.NewBuffer(format),
		maxSamples: format.SampleRate.N(MaxTrackLength),
	}

	overrides := map[Cue]string{
		CueHit:       cfg.HitPath,
		CueExplosion: cfg.BreachPath,
		CueLose:      cfg.LosePath,
	}
	for c := Cue(0); c < numCues; c++ {
		if path := overrides[c]; path != "" {
			buf, err := loadOGG(path, format)
			if err == nil {
				d.cues[c] = buf
				log.Printf("✅ Cue %s loaded from %s", c, path)
				continue
			}
			log.Printf("⚠️ Cue %s: %v (using generated sound)", c, err)
		}
		d.cues[c] = generate(format, c)
	}

	return d
}

// loadOGG decodes an OGG Vorbis file fully into memory at the deck's rate.
func loadOGG(path string, format beep.Format) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cue: %w", err)
	}
	stream, srcFormat, err := vorbis.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode cue: %w", err)
	}
	defer stream.Close()

	var s beep.Streamer = stream
	if srcFormat.SampleRate != format.SampleRate {
		s = beep.Resample(4, srcFormat.SampleRate, format.SampleRate, stream)
	}
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode cue: %w", err)
	}
	return buf, nil
}

// newVolume scales s linearly; zero or negative volume is silent.
// math.Log2(0) is -Inf, hence the Silent flag.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Play starts a cue at the current point of the track.
func (d *Deck) Play(c Cue) {
	if c < 0 || c >= numCues {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.Enabled || d.full {
		return
	}
	buf := d.cues[c]
	d.mixer.Add(newVolume(buf.Streamer(0, buf.Len()), d.cfg.Volume))
	d.played[c]++
}

// Advance captures elapsed time of the current mix onto the track.
func (d *Deck) Advance(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.Enabled || d.full {
		return
	}
	n := d.format.SampleRate.N(elapsed)
	if room := d.maxSamples - d.track.Len(); n >= room {
		n = room
		d.full = true
		log.Printf("⚠️ Cue track reached %v, capture stopped", MaxTrackLength)
	}
	if n > 0 {
		d.track.Append(beep.Take(n, d.mixer))
	}
}

// Played returns how many times a cue was triggered.
func (d *Deck) Played(c Cue) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c < 0 || c >= numCues {
		return 0
	}
	return d.played[c]
}

// Length returns the captured track length.
func (d *Deck) Length() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format.SampleRate.D(d.track.Len())
}

// WriteWAV encodes the captured track.
func (d *Deck) WriteWAV(w io.WriteSeeker) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := wav.Encode(w, d.track.Streamer(0, d.track.Len()), d.format); err != nil {
		return fmt.Errorf("encode cue track: %w", err)
	}
	return nil
}

// Close writes the track to cfg.TrackPath, if one is set.
func (d *Deck) Close() error {
	if !d.cfg.Enabled || d.cfg.TrackPath == "" {
		return nil
	}
	f, err := os.Create(d.cfg.TrackPath)
	if err != nil {
		return fmt.Errorf("create cue track: %w", err)
	}
	if err := d.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close cue track: %w", err)
	}
	log.Printf("🔊 Cue track written to %s (%v)", d.cfg.TrackPath, d.Length())
	return nil
}
