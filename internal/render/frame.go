// Package render draws game snapshots into still frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"sync"

	"swarm-defense/internal/game"

	"github.com/fogleman/gg"
)

// Options configures the output frame.
type Options struct {
	Width, Height int // Output size in pixels

	// FontPath is an optional TTF for the HUD; the built-in face is used otherwise.
	FontPath string
	FontSize float64
}

// DefaultOptions renders at 640x360 with the built-in font.
func DefaultOptions() Options {
	return Options{Width: 640, Height: 360, FontSize: 16}
}

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorBase       = color.RGBA{0, 212, 255, 255}
	colorApproach   = color.RGBA{230, 60, 60, 255}
	colorAttack     = color.RGBA{255, 160, 0, 255}
	colorDying      = color.RGBA{120, 120, 120, 160}
	colorHUD        = color.RGBA{255, 255, 255, 255}
	colorOverlay    = color.RGBA{0, 0, 0, 170}
)

// Renderer draws snapshots with one reusable gg context.
type Renderer struct {
	opts Options
	mu   sync.Mutex
	dc   *gg.Context
}

// New creates a renderer. A font that fails to load is logged and skipped.
func New(opts Options) *Renderer {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultOptions().Width, DefaultOptions().Height
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions().FontSize
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	if opts.FontPath != "" {
		if err := dc.LoadFontFace(opts.FontPath, opts.FontSize); err != nil {
			log.Printf("⚠️ HUD font %s not loaded: %v", opts.FontPath, err)
		}
	}
	return &Renderer{opts: opts, dc: dc}
}

// Render draws snap and returns a copy of the frame.
func (r *Renderer) Render(snap *game.Snapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)

	src := r.dc.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.(*image.RGBA).Pix)
	return out
}

// EncodePNG draws snap and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, snap *game.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	if err := png.Encode(w, r.dc.Image()); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func (r *Renderer) draw(snap *game.Snapshot) {
	dc := r.dc
	w, h := float64(r.opts.Width), float64(r.opts.Height)

	dc.SetColor(colorBackground)
	dc.Clear()
	r.drawGrid(w, h)

	if snap == nil || snap.ScreenWidth <= 0 || snap.ScreenHeight <= 0 {
		return
	}

	// World units to pixels
	sx, sy := w/snap.ScreenWidth, h/snap.ScreenHeight

	b := snap.Base
	dc.SetColor(colorBase)
	dc.DrawRectangle((b.X-b.Size/2)*sx, (b.Y-b.Size/2)*sy, b.Size*sx, b.Size*sy)
	dc.Fill()

	for _, e := range snap.Enemies {
		switch e.State {
		case game.StateApproaching:
			dc.SetColor(colorApproach)
		case game.StateAttacking:
			dc.SetColor(colorAttack)
		default:
			dc.SetColor(colorDying)
		}
		dc.DrawRectangle((e.X-e.Size/2)*sx, (e.Y-e.Size/2)*sy, e.Size*sx, e.Size*sy)
		dc.Fill()
	}

	r.drawHUD(snap, w, h)
}

func (r *Renderer) drawGrid(w, h float64) {
	dc := r.dc
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	step := w / 8
	for x := step; x < w; x += step {
		dc.DrawLine(x, 0, x, h)
	}
	for y := step; y < h; y += step {
		dc.DrawLine(0, y, w, y)
	}
	dc.Stroke()
}

func (r *Renderer) drawHUD(snap *game.Snapshot, w, h float64) {
	dc := r.dc
	dc.SetColor(colorHUD)
	hud := fmt.Sprintf("HEALTH %d   SCORE %d   COINS %d   ENEMIES %d",
		snap.Health, snap.Score, snap.Coins, len(snap.Enemies))
	dc.DrawString(hud, 8, 8+r.opts.FontSize)

	if !snap.GameOver {
		return
	}
	dc.SetColor(colorOverlay)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	dc.SetColor(colorHUD)
	dc.DrawStringAnchored("GAME OVER", w/2, h/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("score %d", snap.Score), w/2, h/2+2*r.opts.FontSize, 0.5, 0.5)
}
