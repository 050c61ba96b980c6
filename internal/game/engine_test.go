package game

import (
	"errors"
	"testing"
	"time"
)

// testEngine builds a quiet engine: no random initial enemies, instant death
// animation and a short attack cycle so tests can drive it tick by tick.
func testEngine(peer Peer) *Engine {
	cfg := testWaveConfig()
	cfg.DyingDuration = 0
	return NewEngine(EngineConfig{
		Wave:     cfg,
		TickRate: 30,
		Seed:     7,
		Peer:     peer,
	})
}

// TestNewEngine verifies engine creation with correct defaults
func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		tickRate int
		initial  int
	}{
		{"standard 30 TPS", 30, 1},
		{"high 60 TPS", 60, 5},
		{"defaulted tick rate", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(EngineConfig{
				Wave:           testWaveConfig(),
				TickRate:       tt.tickRate,
				InitialEnemies: tt.initial,
				Seed:           1,
			})
			if engine == nil {
				t.Fatal("NewEngine returned nil")
			}
			snap := engine.Snapshot()
			if len(snap.Enemies) != tt.initial {
				t.Errorf("Expected %d initial enemies, got %d", tt.initial, len(snap.Enemies))
			}
			if snap.Health != 100 {
				t.Errorf("Expected health 100, got %d", snap.Health)
			}
		})
	}
}

// TestEngineStartStop verifies engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	engine := testEngine(nil)

	engine.Start()
	engine.Start() // second start is a no-op
	time.Sleep(100 * time.Millisecond)

	engine.Stop()
	engine.Stop()

	if engine.Summary().Ticks == 0 {
		t.Error("Expected the loop to have ticked")
	}
}

// TestClickKillRespawnsTwo verifies one click kill drains and spawns two enemies
func TestClickKillRespawnsTwo(t *testing.T) {
	engine := testEngine(nil)
	target := engine.wave.SpawnAt(Vec2{100, 100})

	if !engine.Click(100, 100) {
		t.Fatal("Click rejected")
	}
	rep := engine.Step(0)

	if rep.ClickKills != 1 || rep.Removed != 1 {
		t.Fatalf("Unexpected report %+v", rep)
	}
	if rep.Spawned != 2 {
		t.Errorf("Expected 2 spawns, got %d", rep.Spawned)
	}
	if engine.wave.Get(target.ID) != nil {
		t.Error("Killed enemy still present")
	}
	s := engine.Summary()
	if s.Score != 1 || s.Coins != 10 {
		t.Errorf("Expected score 1 coins 10, got %+v", s)
	}
}

// TestClickBeatsAttack verifies a click on an attacking enemy suppresses its hit
func TestClickBeatsAttack(t *testing.T) {
	engine := testEngine(nil)
	engine.cfg.Wave.AttackCycle = 0
	engine.resolver = NewCollisionResolver(0)
	center := engine.wave.Base().Center
	e := engine.wave.SpawnAt(center)

	engine.Step(10 * time.Millisecond)
	if e.State != StateAttacking {
		t.Fatalf("Expected attacking after contact, got %s", e.State)
	}

	engine.Click(center.X, center.Y)
	rep := engine.Step(10 * time.Millisecond)

	if rep.Breaches != 0 {
		t.Errorf("Attack landed despite click: %+v", rep)
	}
	if rep.ClickKills != 1 {
		t.Errorf("Expected click kill, got %+v", rep)
	}
	if engine.Summary().Health != 100 {
		t.Errorf("Health changed to %d", engine.Summary().Health)
	}
}

// TestSinglePlayerDrainScenario checks 3 valid + 1 stale removal -> 6 spawns
func TestSinglePlayerDrainScenario(t *testing.T) {
	engine := testEngine(nil)
	var ids []int
	for i := 0; i < 4; i++ {
		ids = append(ids, engine.wave.SpawnAt(Vec2{float64(100 + 50*i), 50}).ID)
	}
	engine.wave.QueueForRemoval(ids[0])
	engine.wave.QueueForRemoval(ids[1])
	engine.wave.QueueForRemoval(ids[2])
	engine.wave.QueueForRemoval(4242)

	rep := engine.Step(0)

	if rep.Removed != 3 {
		t.Errorf("Expected 3 removed, got %d", rep.Removed)
	}
	if rep.Sync.Net != 3 {
		t.Errorf("Expected net 3, got %d", rep.Sync.Net)
	}
	if rep.Spawned != 6 {
		t.Errorf("Expected 6 spawns, got %d", rep.Spawned)
	}
	if engine.wave.PendingRemovals() != 0 {
		t.Error("Queue not empty after tick")
	}
	if rep.Enemies != 7 {
		t.Errorf("Expected 7 enemies, got %d", rep.Enemies)
	}
}

// TestMultiplayerScenario checks local 2 kills + peer 1 -> send 2, net 3, 6 spawns
func TestMultiplayerScenario(t *testing.T) {
	var sent []uint32
	incoming := uint32(1)
	peer := PeerFuncs{
		Send: func(n uint32) { sent = append(sent, n) },
		Take: func() uint32 {
			n := incoming
			incoming = 0
			return n
		},
	}
	engine := testEngine(peer)
	engine.wave.SpawnAt(Vec2{100, 100})
	engine.wave.SpawnAt(Vec2{300, 100})
	engine.Click(100, 100)
	engine.Click(300, 100)

	rep := engine.Step(0)

	if len(sent) != 1 || sent[0] != 2 {
		t.Errorf("Expected one send of 2, got %v", sent)
	}
	if rep.Sync.Net != 3 {
		t.Errorf("Expected net 3, got %d", rep.Sync.Net)
	}
	if rep.Spawned != 6 {
		t.Errorf("Expected 6 spawns, got %d", rep.Spawned)
	}
	if !engine.Summary().Multiplayer {
		t.Error("Summary should report multiplayer")
	}
}

// TestBreachNotReportedToPeer verifies enemies that hit the base are not sent
func TestBreachNotReportedToPeer(t *testing.T) {
	var sent []uint32
	engine := testEngine(PeerFuncs{Send: func(n uint32) { sent = append(sent, n) }})
	engine.resolver = NewCollisionResolver(0)
	center := engine.wave.Base().Center
	engine.wave.SpawnAt(center)

	engine.Step(10 * time.Millisecond) // contact
	rep := engine.Step(10 * time.Millisecond)

	if rep.Breaches != 1 || rep.Removed != 1 {
		t.Fatalf("Unexpected report %+v", rep)
	}
	if len(sent) != 0 {
		t.Errorf("Breach should not be sent, got %v", sent)
	}
	if rep.Spawned != 2 {
		t.Errorf("Breach still adds respawn pressure, got %d spawns", rep.Spawned)
	}
	if engine.Summary().Health != 99 {
		t.Errorf("Expected health 99, got %d", engine.Summary().Health)
	}
}

// TestGameOverScenario checks health 1 + completed attack -> terminal state
func TestGameOverScenario(t *testing.T) {
	cfg := testWaveConfig()
	cfg.StartHealth = 1
	cfg.DyingDuration = 0
	engine := NewEngine(EngineConfig{Wave: cfg, TickRate: 30, Seed: 3})

	gameOvers := 0
	engine.OnGameOver = func(Summary) { gameOvers++ }

	center := engine.wave.Base().Center
	attacker := engine.wave.SpawnAt(center)
	walker := engine.wave.SpawnAt(Vec2{center.X + 300, center.Y})

	engine.Step(50 * time.Millisecond) // contact
	rep := engine.Step(100 * time.Millisecond)
	if !rep.GameOver {
		t.Fatalf("Expected game over, got %+v", rep)
	}
	if engine.Summary().Health != 0 {
		t.Errorf("Expected health 0, got %d", engine.Summary().Health)
	}

	pos := walker.Position
	ticks := engine.Summary().Ticks
	for i := 0; i < 5; i++ {
		rep = engine.Step(time.Second)
		if !rep.GameOver {
			t.Fatal("Game over must be terminal")
		}
	}
	if walker.Position != pos {
		t.Error("Enemies moved after game over")
	}
	if engine.Summary().Ticks != ticks {
		t.Error("Ticks advanced after game over")
	}
	if engine.Summary().Health != 0 {
		t.Errorf("Health changed after game over: %d", engine.Summary().Health)
	}
	if gameOvers != 1 {
		t.Errorf("Expected one game over callback, got %d", gameOvers)
	}
	if attacker.State != StateDying {
		t.Errorf("Attacker should be dying, got %s", attacker.State)
	}
	if engine.Click(center.X, center.Y) {
		t.Error("Clicks should be refused after game over")
	}
	if !engine.Snapshot().GameOver {
		t.Error("Snapshot should report game over")
	}
}

// TestPurchase tests shop refusals and effects
func TestPurchase(t *testing.T) {
	engine := testEngine(nil)

	if _, err := engine.Purchase("laser"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Expected ErrUnknownItem, got %v", err)
	}
	if _, err := engine.Purchase("sentry"); !errors.Is(err, ErrInsufficientCoins) {
		t.Errorf("Expected ErrInsufficientCoins, got %v", err)
	}

	engine.wave.coins = 150
	center := engine.wave.Base().Center
	engine.wave.SpawnAt(Vec2{center.X + 60, center.Y})
	engine.wave.SpawnAt(Vec2{center.X - 60, center.Y})

	killed, err := engine.Purchase("nova")
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if killed != 2 {
		t.Errorf("Expected nova to kill 2, got %d", killed)
	}
	if _, err := engine.Purchase("sentry"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if engine.Summary().Coins != 0 {
		t.Errorf("Expected 0 coins, got %d", engine.Summary().Coins)
	}
	if engine.Snapshot().Weapons != 1 {
		t.Errorf("Expected 1 installed weapon, got %d", engine.Snapshot().Weapons)
	}

	rep := engine.Step(0)
	if rep.Removed != 2 || rep.Spawned != 4 {
		t.Errorf("Nova kills should drain and respawn: %+v", rep)
	}
}

// TestRestart verifies a new run replaces the old one
func TestRestart(t *testing.T) {
	engine := testEngine(nil)
	engine.wave.SpawnAt(Vec2{100, 100})
	engine.Click(100, 100)
	engine.Step(0)

	engine.Restart()

	s := engine.Summary()
	if s.Score != 0 || s.Ticks != 0 || s.Health != 100 {
		t.Errorf("Restart did not reset the run: %+v", s)
	}
}

// TestRestartDiscardsPeerBacklog verifies kills reported during game over do
// not respawn into the next run
func TestRestartDiscardsPeerBacklog(t *testing.T) {
	cfg := testWaveConfig()
	cfg.StartHealth = 1
	cfg.DyingDuration = 0
	peer := &recordingPeer{}
	engine := NewEngine(EngineConfig{Wave: cfg, TickRate: 30, Seed: 3, Peer: peer})

	engine.wave.SpawnAt(engine.wave.Base().Center)
	engine.Step(50 * time.Millisecond)
	if rep := engine.Step(100 * time.Millisecond); !rep.GameOver {
		t.Fatalf("Expected game over, got %+v", rep)
	}

	for i := 0; i < 20; i++ {
		peer.incoming += 5
		engine.Step(time.Second / 30)
	}

	engine.Restart()
	rep := engine.Step(time.Second / 30)

	if rep.Sync.Received != 0 {
		t.Errorf("Expected no carried-over kills, got %d", rep.Sync.Received)
	}
	if rep.Spawned != 0 || rep.Enemies != 0 {
		t.Errorf("Backlog respawned: spawned=%d enemies=%d", rep.Spawned, rep.Enemies)
	}

	peer.incoming = 2
	if rep := engine.Step(time.Second / 30); rep.Sync.Received != 2 || rep.Spawned != 4 {
		t.Errorf("Fresh peer kills should still count: %+v", rep)
	}
}

// TestClickQueueBounded verifies the click queue cannot grow without limit
func TestClickQueueBounded(t *testing.T) {
	engine := testEngine(nil)
	for i := 0; i < MaxPendingClicks; i++ {
		if !engine.Click(1, 1) {
			t.Fatalf("Click %d rejected early", i)
		}
	}
	if engine.Click(1, 1) {
		t.Error("Click queue should be full")
	}
	engine.Step(0)
	if !engine.Click(1, 1) {
		t.Error("Queue should drain each tick")
	}
}

// TestOnKillCallback verifies kills are reported with their cause
func TestOnKillCallback(t *testing.T) {
	engine := testEngine(nil)
	var causes []KillCause
	engine.OnKill = func(_ EnemySnapshot, cause KillCause) { causes = append(causes, cause) }

	engine.wave.SpawnAt(Vec2{100, 100})
	engine.Click(100, 100)
	engine.Step(0)

	if len(causes) != 1 || causes[0] != CauseClick {
		t.Errorf("Expected one click kill, got %v", causes)
	}
}
