package game

import (
	"math/rand"
	"sort"
	"time"

	"swarm-defense/internal/game/spatial"
)

// WaveConfig holds the geometry and pacing of one swarm-defense run.
type WaveConfig struct {
	ScreenWidth   float64
	ScreenHeight  float64
	Base          Box           // Player base bounds; enemies home in on its centre
	EnemySize     float64       // Enemy square side length
	Speed         float64       // Units per second while approaching
	AttackCycle   time.Duration // Attack wind-up before the single hit lands
	DyingDuration time.Duration
	StartHealth   int
	CoinsPerKill  int
}

// RemovalReport summarizes one DrainRemovals pass.
type RemovalReport struct {
	Removed  int // Enemies erased this pass
	Breaches int // Subset of Removed that died attacking the base
}

// Kills returns the removed enemies that were destroyed by the player.
func (r RemovalReport) Kills() int {
	return r.Removed - r.Breaches
}

// WaveController owns the live enemies, the removal queue and the player's
// resources for a single run. It is not safe for concurrent use; the Engine
// serializes access.
type WaveController struct {
	cfg WaveConfig
	rng *rand.Rand

	// Slot store: enemies holds live entries, index maps id -> slot.
	enemies []*Enemy
	index   map[int]int

	pendingRemovals []int
	nextEnemyID     int

	// Broad phase for HitTest, rebuilt lazily after enemies move or change.
	grid      *spatial.Grid
	gridStale bool

	health   int
	score    int
	coins    int
	gameOver bool

	spawned int // Lifetime spawn count
}

// NewWaveController creates a controller with its own RNG seeded once.
// Health starts at no less than 1 so that a run can always end.
func NewWaveController(cfg WaveConfig, seed int64) *WaveController {
	if cfg.StartHealth < 1 {
		cfg.StartHealth = 1
	}
	return &WaveController{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		enemies: make([]*Enemy, 0, 64),
		index:   make(map[int]int, 64),
		health:  cfg.StartHealth,
		grid:    spatial.NewGrid(cfg.ScreenWidth, cfg.ScreenHeight, 4*cfg.EnemySize),
	}
}

// Spawn creates one enemy just outside a random corner of the screen, then
// slides it back along one axis by a random fraction of that screen dimension.
func (w *WaveController) Spawn() *Enemy {
	width, height := w.cfg.ScreenWidth, w.cfg.ScreenHeight
	half := w.cfg.EnemySize / 2

	percent := w.rng.Float64()
	isDown := w.rng.Intn(2) == 1
	isRight := w.rng.Intn(2) == 1
	isVerticalShift := w.rng.Intn(2) == 1

	var pos Vec2
	if isDown {
		pos.Y = height + half
	} else {
		pos.Y = -half
	}
	if isRight {
		pos.X = width + half
	} else {
		pos.X = -half
	}

	if isVerticalShift {
		if isDown {
			pos.Y -= percent * height
		} else {
			pos.Y += percent * height
		}
	} else {
		if isRight {
			pos.X -= percent * width
		} else {
			pos.X += percent * width
		}
	}

	return w.SpawnAt(pos)
}

// SpawnAt creates an enemy at an explicit position.
func (w *WaveController) SpawnAt(pos Vec2) *Enemy {
	e := NewEnemy(w.nextEnemyID, pos, w.cfg.EnemySize)
	w.nextEnemyID++
	w.index[e.ID] = len(w.enemies)
	w.enemies = append(w.enemies, e)
	w.spawned++
	w.gridStale = true
	return e
}

// Respawn spawns exactly 2 × netEliminated enemies and returns how many it created.
// Growth is intentionally unbounded: every confirmed kill adds two enemies.
func (w *WaveController) Respawn(netEliminated int) int {
	n := 2 * netEliminated
	for i := 0; i < n; i++ {
		w.Spawn()
	}
	if n < 0 {
		return 0
	}
	return n
}

// QueueForRemoval schedules an id for structural removal on the next drain.
// Enemies are never erased here, so callers may queue while iterating.
func (w *WaveController) QueueForRemoval(id int) {
	w.pendingRemovals = append(w.pendingRemovals, id)
}

// PendingRemovals returns the number of queued ids.
func (w *WaveController) PendingRemovals() int {
	return len(w.pendingRemovals)
}

// DrainRemovals erases every queued id that still names a live slot, in FIFO
// order. Stale ids are dropped silently. The queue is always empty afterwards.
func (w *WaveController) DrainRemovals() RemovalReport {
	var report RemovalReport
	for _, id := range w.pendingRemovals {
		e, ok := w.remove(id)
		if !ok {
			continue
		}
		report.Removed++
		if e.Cause == CauseBreach {
			report.Breaches++
		}
	}
	w.pendingRemovals = w.pendingRemovals[:0]
	return report
}

// remove frees the slot for id. Returns false when the id is not present.
func (w *WaveController) remove(id int) (*Enemy, bool) {
	slot, ok := w.index[id]
	if !ok {
		return nil, false
	}
	e := w.enemies[slot]
	last := len(w.enemies) - 1
	if slot != last {
		moved := w.enemies[last]
		w.enemies[slot] = moved
		w.index[moved.ID] = slot
	}
	w.enemies[last] = nil
	w.enemies = w.enemies[:last]
	delete(w.index, id)
	w.gridStale = true
	return e, true
}

// Advance moves every approaching enemy toward the base centre by elapsed × speed.
// Attacking, dying and dead enemies stay where they are.
func (w *WaveController) Advance(elapsed time.Duration) {
	step := elapsed.Seconds() * w.cfg.Speed
	target := w.cfg.Base.Center
	for _, e := range w.enemies {
		if e.State != StateApproaching {
			continue
		}
		e.Position = MoveToward(e.Position, target, step)
		w.gridStale = true
	}
}

// Age advances dying animations and queues enemies that reached Dead.
// Returns the number of enemies that died this call.
func (w *WaveController) Age(elapsed time.Duration) int {
	dead := 0
	for _, e := range w.enemies {
		if e.age(elapsed, w.cfg.DyingDuration) {
			w.QueueForRemoval(e.ID)
			dead++
		}
	}
	return dead
}

// Kill marks a live enemy as dying and credits the player.
// Click kills earn score and coins, weapon kills earn score only.
func (w *WaveController) Kill(id int, cause KillCause) bool {
	e := w.Get(id)
	if e == nil || !e.Kill(cause) {
		return false
	}
	if cause.IsKill() {
		w.score++
	}
	if cause == CauseClick {
		w.coins += w.cfg.CoinsPerKill
	}
	return true
}

// HitTest returns the ids of every live enemy whose bounds contain p, in
// ascending id order. A single click destroys all enemies stacked under the cursor.
func (w *WaveController) HitTest(p Vec2) []int {
	if w.gridStale {
		w.grid.Clear()
		for _, e := range w.enemies {
			w.grid.Insert(e.ID, e.Position.X, e.Position.Y)
		}
		w.gridStale = false
	}

	half := w.cfg.EnemySize / 2
	var ids []int
	for _, id := range w.grid.QueryRect(p.X-half, p.Y-half, p.X+half, p.Y+half) {
		e := w.Get(id)
		if e != nil && e.IsLive() && e.Bounds().Contains(p) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Damage removes one point of health. It returns true only on the call that
// brings health to zero; later calls neither decrement nor report again.
func (w *WaveController) Damage() bool {
	if w.gameOver || w.health <= 0 {
		return false
	}
	w.health--
	if w.health == 0 {
		w.gameOver = true
		return true
	}
	return false
}

// Spend deducts coins if the balance allows it.
func (w *WaveController) Spend(price int) bool {
	if price < 0 || w.coins < price {
		return false
	}
	w.coins -= price
	return true
}

// Get returns the enemy with the given id, or nil.
func (w *WaveController) Get(id int) *Enemy {
	slot, ok := w.index[id]
	if !ok {
		return nil
	}
	return w.enemies[slot]
}

// Enemies returns the live slot slice. Callers must not append to or reorder it.
func (w *WaveController) Enemies() []*Enemy { return w.enemies }

// Count returns the number of enemies in the store.
func (w *WaveController) Count() int { return len(w.enemies) }

// Base returns the player base bounds.
func (w *WaveController) Base() Box { return w.cfg.Base }

func (w *WaveController) Health() int    { return w.health }
func (w *WaveController) Score() int     { return w.score }
func (w *WaveController) Coins() int     { return w.coins }
func (w *WaveController) GameOver() bool { return w.gameOver }
func (w *WaveController) Spawned() int   { return w.spawned }
