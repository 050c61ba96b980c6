package game

import (
	"sync/atomic"
	"time"
)

// EnemySnapshot is an immutable copy of one enemy for rendering
type EnemySnapshot struct {
	ID    int        `json:"id"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Size  float64    `json:"size"`
	State EnemyState `json:"-"`
	Label string     `json:"state"`
}

// BaseSnapshot describes the player base
type BaseSnapshot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Summary is the scoreboard of a run
type Summary struct {
	Health      int    `json:"health"`
	Score       int    `json:"score"`
	Coins       int    `json:"coins"`
	Spawned     int    `json:"spawned"`
	Ticks       uint64 `json:"ticks"`
	GameOver    bool   `json:"gameOver"`
	Multiplayer bool   `json:"multiplayer"`
}

// Snapshot is a complete immutable game state for the API and renderer.
// A published snapshot is never mutated again.
type Snapshot struct {
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	ScreenWidth  float64         `json:"screenWidth"`
	ScreenHeight float64         `json:"screenHeight"`
	Base         BaseSnapshot    `json:"base"`
	Enemies      []EnemySnapshot `json:"enemies"`
	Weapons      int             `json:"weapons"`
	Summary
}

// SnapshotStore hands the latest snapshot from the tick goroutine to readers
// without taking the engine lock.
type SnapshotStore struct {
	current  atomic.Pointer[Snapshot]
	sequence uint64 // only touched by the producer
}

// NewSnapshotStore creates a store holding an empty snapshot
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(&Snapshot{Enemies: []EnemySnapshot{}})
	return s
}

// Publish stamps and stores snap as the latest snapshot
func (s *SnapshotStore) Publish(snap *Snapshot) {
	s.sequence++
	snap.Sequence = s.sequence
	snap.Timestamp = time.Now()
	s.current.Store(snap)
}

// Latest returns the most recent snapshot (never nil)
func (s *SnapshotStore) Latest() *Snapshot {
	return s.current.Load()
}

// buildSnapshot copies controller state into a new snapshot
func buildSnapshot(w *WaveController, cfg WaveConfig, summary Summary, weapons int) *Snapshot {
	enemies := make([]EnemySnapshot, 0, w.Count())
	for _, e := range w.Enemies() {
		enemies = append(enemies, EnemySnapshot{
			ID:    e.ID,
			X:     e.Position.X,
			Y:     e.Position.Y,
			Size:  e.Size,
			State: e.State,
			Label: e.State.String(),
		})
	}
	base := w.Base()
	return &Snapshot{
		ScreenWidth:  cfg.ScreenWidth,
		ScreenHeight: cfg.ScreenHeight,
		Base:         BaseSnapshot{X: base.Center.X, Y: base.Center.Y, Size: base.HalfW * 2},
		Enemies:      enemies,
		Weapons:      weapons,
		Summary:      summary,
	}
}
