package game

import (
	"math"
	"testing"
	"time"
)

func testWaveConfig() WaveConfig {
	return WaveConfig{
		ScreenWidth:  1280,
		ScreenHeight: 720,
		Base:         SquareBox(Vec2{640, 360}, 72),
		EnemySize:    18,
		Speed:        72,
		AttackCycle:  100 * time.Millisecond,
		StartHealth:  100,
		CoinsPerKill: 10,
	}
}

// TestSpawnAssignsMonotonicIDs verifies ids are unique and increasing
func TestSpawnAssignsMonotonicIDs(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)

	seen := make(map[int]bool)
	prev := -1
	for i := 0; i < 50; i++ {
		e := w.Spawn()
		if seen[e.ID] {
			t.Fatalf("Duplicate id %d", e.ID)
		}
		if e.ID <= prev {
			t.Fatalf("Id %d not greater than %d", e.ID, prev)
		}
		seen[e.ID] = true
		prev = e.ID
	}
	if w.Count() != 50 {
		t.Errorf("Expected 50 enemies, got %d", w.Count())
	}
}

// TestSpawnOffScreen verifies every spawn sits on an off-screen edge line
func TestSpawnOffScreen(t *testing.T) {
	cfg := testWaveConfig()
	w := NewWaveController(cfg, 42)
	half := cfg.EnemySize / 2

	for i := 0; i < 200; i++ {
		p := w.Spawn().Position
		onVerticalEdge := p.X == -half || p.X == cfg.ScreenWidth+half
		onHorizontalEdge := p.Y == -half || p.Y == cfg.ScreenHeight+half
		if !onVerticalEdge && !onHorizontalEdge {
			t.Fatalf("Spawn %v is not on an off-screen edge", p)
		}
		if p.X < -half || p.X > cfg.ScreenWidth+half || p.Y < -half || p.Y > cfg.ScreenHeight+half {
			t.Fatalf("Spawn %v is outside the spawn frame", p)
		}
	}
}

// TestSpawnDeterministicWithSeed verifies an injected seed reproduces a wave
func TestSpawnDeterministicWithSeed(t *testing.T) {
	a := NewWaveController(testWaveConfig(), 99)
	b := NewWaveController(testWaveConfig(), 99)

	for i := 0; i < 20; i++ {
		pa, pb := a.Spawn().Position, b.Spawn().Position
		if pa != pb {
			t.Fatalf("Spawn %d differs: %v vs %v", i, pa, pb)
		}
	}
}

// TestAdvanceTowardBase checks the 1000,1000 -> origin scenario
func TestAdvanceTowardBase(t *testing.T) {
	cfg := WaveConfig{
		Base:      SquareBox(Vec2{0, 0}, 20),
		EnemySize: 10,
		Speed:     50,
	}
	w := NewWaveController(cfg, 1)
	e := w.SpawnAt(Vec2{1000, 1000})

	before := Dist(e.Position, Vec2{})
	w.Advance(time.Second)
	after := Dist(e.Position, Vec2{})

	if math.Abs((before-after)-50) > 1e-6 {
		t.Errorf("Expected to close 50 units, closed %f", before-after)
	}
	// Still on the diagonal
	if math.Abs(e.Position.X-e.Position.Y) > 1e-9 {
		t.Errorf("Enemy left the direct line: %v", e.Position)
	}
}

// TestAdvanceSkipsNonApproaching verifies attacking and dying enemies hold still
func TestAdvanceSkipsNonApproaching(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	attacking := w.SpawnAt(Vec2{0, 0})
	attacking.StartAttack()
	dying := w.SpawnAt(Vec2{10, 0})
	dying.Kill(CauseClick)

	w.Advance(time.Second)

	if attacking.Position != (Vec2{0, 0}) {
		t.Errorf("Attacking enemy moved to %v", attacking.Position)
	}
	if dying.Position != (Vec2{10, 0}) {
		t.Errorf("Dying enemy moved to %v", dying.Position)
	}
}

// TestDrainRemovalsWithStaleID checks 3 valid + 1 stale ids
func TestDrainRemovalsWithStaleID(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	ids := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		ids = append(ids, w.SpawnAt(Vec2{float64(i), 0}).ID)
	}

	w.QueueForRemoval(ids[0])
	w.QueueForRemoval(ids[2])
	w.QueueForRemoval(ids[0]) // already queued: stale by the time it is reached
	w.QueueForRemoval(ids[3])

	if w.Count() != 4 {
		t.Fatalf("Queueing must not remove, count %d", w.Count())
	}

	report := w.DrainRemovals()
	if report.Removed != 3 {
		t.Errorf("Expected 3 removed, got %d", report.Removed)
	}
	if w.PendingRemovals() != 0 {
		t.Errorf("Queue should be empty, has %d", w.PendingRemovals())
	}
	if w.Count() != 1 || w.Get(ids[1]) == nil {
		t.Errorf("Only enemy %d should remain", ids[1])
	}

	spawned := w.Respawn(report.Removed)
	if spawned != 6 {
		t.Errorf("Expected 6 spawns, got %d", spawned)
	}
	if w.Count() != 7 {
		t.Errorf("Expected 7 enemies, got %d", w.Count())
	}
}

// TestDrainRemovalsEmpty verifies draining is idempotent and total
func TestDrainRemovalsEmpty(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)

	if r := w.DrainRemovals(); r.Removed != 0 {
		t.Errorf("Empty drain removed %d", r.Removed)
	}

	// Ids with no enemies at all are discarded, not deferred
	w.QueueForRemoval(12)
	w.QueueForRemoval(-3)
	if r := w.DrainRemovals(); r.Removed != 0 {
		t.Errorf("Stale drain removed %d", r.Removed)
	}
	if w.PendingRemovals() != 0 {
		t.Error("Stale ids should be discarded")
	}
	if r := w.DrainRemovals(); r.Removed != 0 {
		t.Error("Second drain should be a no-op")
	}
}

// TestDrainCountsBreaches verifies breach removals are reported separately
func TestDrainCountsBreaches(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	a := w.SpawnAt(Vec2{})
	b := w.SpawnAt(Vec2{})
	a.StartAttack()
	a.Kill(CauseBreach)
	w.Kill(b.ID, CauseClick)

	w.QueueForRemoval(a.ID)
	w.QueueForRemoval(b.ID)
	r := w.DrainRemovals()

	if r.Removed != 2 || r.Breaches != 1 || r.Kills() != 1 {
		t.Errorf("Unexpected report %+v", r)
	}
}

// TestSlotStoreKeepsIndexAfterRemoval verifies swap-removal keeps lookups valid
func TestSlotStoreKeepsIndexAfterRemoval(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	for i := 0; i < 5; i++ {
		w.SpawnAt(Vec2{float64(i), 0})
	}
	w.QueueForRemoval(1)
	w.DrainRemovals()

	for _, id := range []int{0, 2, 3, 4} {
		e := w.Get(id)
		if e == nil || e.ID != id {
			t.Fatalf("Lookup for %d broken after removal", id)
		}
	}
	if w.Get(1) != nil {
		t.Error("Removed enemy still reachable")
	}
}

// TestKillCredits verifies click kills pay coins and weapon kills do not
func TestKillCredits(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	a := w.SpawnAt(Vec2{})
	b := w.SpawnAt(Vec2{})

	if !w.Kill(a.ID, CauseClick) {
		t.Fatal("Click kill failed")
	}
	if w.Kill(a.ID, CauseClick) {
		t.Error("Second kill on the same enemy should fail")
	}
	if !w.Kill(b.ID, CauseWeapon) {
		t.Fatal("Weapon kill failed")
	}
	if w.Kill(999, CauseClick) {
		t.Error("Kill on unknown id should fail")
	}

	if w.Score() != 2 {
		t.Errorf("Expected score 2, got %d", w.Score())
	}
	if w.Coins() != 10 {
		t.Errorf("Expected 10 coins, got %d", w.Coins())
	}
}

// TestHitTest verifies clicks hit every live enemy under the cursor
func TestHitTest(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	a := w.SpawnAt(Vec2{100, 100})
	b := w.SpawnAt(Vec2{105, 100})
	w.SpawnAt(Vec2{300, 300})
	dead := w.SpawnAt(Vec2{100, 100})
	dead.Kill(CauseClick)

	ids := w.HitTest(Vec2{102, 100})
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Errorf("Expected hits [%d %d], got %v", a.ID, b.ID, ids)
	}
	if ids := w.HitTest(Vec2{0, 0}); len(ids) != 0 {
		t.Errorf("Expected no hits, got %v", ids)
	}
}

// TestDamageGameOverOnce verifies health floors at zero and game over fires once
func TestDamageGameOverOnce(t *testing.T) {
	cfg := testWaveConfig()
	cfg.StartHealth = 2
	w := NewWaveController(cfg, 1)

	if w.Damage() {
		t.Error("Game over reported too early")
	}
	if !w.Damage() {
		t.Error("Game over not reported at zero health")
	}
	if w.Damage() {
		t.Error("Game over reported twice")
	}
	if w.Health() != 0 {
		t.Errorf("Health went below zero: %d", w.Health())
	}
	if !w.GameOver() {
		t.Error("GameOver flag not set")
	}
}

// TestDamageNonPositiveStartHealth verifies a run without health still ends
func TestDamageNonPositiveStartHealth(t *testing.T) {
	for _, hp := range []int{0, -5} {
		cfg := testWaveConfig()
		cfg.StartHealth = hp
		w := NewWaveController(cfg, 1)

		if w.Health() != 1 {
			t.Errorf("StartHealth %d: expected health 1, got %d", hp, w.Health())
		}
		if !w.Damage() || !w.GameOver() {
			t.Errorf("StartHealth %d: first hit should end the run", hp)
		}
	}
}

// TestSpend verifies coin deduction
func TestSpend(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	w.Kill(w.SpawnAt(Vec2{}).ID, CauseClick)

	if w.Spend(11) {
		t.Error("Should not overspend")
	}
	if !w.Spend(10) {
		t.Error("Should afford 10")
	}
	if w.Coins() != 0 {
		t.Errorf("Expected 0 coins, got %d", w.Coins())
	}
}
