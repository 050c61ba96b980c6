package game

import (
	"log"
	"sync"
	"time"

	"swarm-defense/internal/config"
)

// MaxPendingClicks bounds the click queue between two ticks.
const MaxPendingClicks = 256

// EngineConfig configures a swarm-defense engine.
type EngineConfig struct {
	Wave           WaveConfig
	TickRate       int
	InitialEnemies int
	Seed           int64 // 0 = time based
	Peer           Peer  // nil = single player
}

// WaveConfigFrom derives the run geometry from the simulation settings.
// The base is a square centred on the screen.
func WaveConfigFrom(sim config.SimConfig) WaveConfig {
	center := Vec2{X: sim.ScreenWidth / 2, Y: sim.ScreenHeight / 2}
	return WaveConfig{
		ScreenWidth:   sim.ScreenWidth,
		ScreenHeight:  sim.ScreenHeight,
		Base:          SquareBox(center, sim.BaseSize),
		EnemySize:     sim.EnemySize,
		Speed:         sim.EnemySpeed,
		AttackCycle:   sim.AttackCycle,
		DyingDuration: sim.DyingDuration,
		StartHealth:   sim.StartHealth,
		CoinsPerKill:  sim.CoinsPerKill,
	}
}

// EngineConfigFrom builds an engine configuration from the app settings.
func EngineConfigFrom(sim config.SimConfig, peer Peer) EngineConfig {
	return EngineConfig{
		Wave:           WaveConfigFrom(sim),
		TickRate:       sim.TickRate,
		InitialEnemies: sim.InitialEnemies,
		Seed:           sim.Seed,
		Peer:           peer,
	}
}

// TickReport summarizes one simulation step.
type TickReport struct {
	Tick        uint64
	Elapsed     time.Duration
	Duration    time.Duration // Wall time spent in the step
	ClickKills  int
	WeaponKills int
	Breaches    int
	Removed     int
	Spawned     int
	Enemies     int
	Health      int
	Sync        Reconciliation
	GameOver    bool
}

// Engine runs the swarm-defense tick loop: it owns one run (wave controller,
// collision resolver, reconciler, armory) and serializes every access to it.
type Engine struct {
	mu sync.Mutex

	cfg        EngineConfig
	wave       *WaveController
	resolver   *CollisionResolver
	reconciler *Reconciler
	armory     *Armory

	clicks    []Vec2
	tickCount uint64
	seed      int64

	gameOverFired bool

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	snapshots *SnapshotStore
	eventLog  *EventLog

	// Event callbacks. They run on the tick goroutine while the engine lock
	// is held and must not call back into the Engine.
	OnKill     func(enemy EnemySnapshot, cause KillCause)
	OnBreach   func(health int)
	OnGameOver func(summary Summary)
	OnTick     func(report TickReport)
}

// NewEngine creates an engine and starts its first run.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 30
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:        cfg,
		seed:       seed,
		resolver:   NewCollisionResolver(cfg.Wave.AttackCycle),
		reconciler: NewReconciler(cfg.Peer),
		stopChan:   make(chan struct{}),
		snapshots:  NewSnapshotStore(),
		eventLog:   NewEventLog(),
	}
	e.newRun()
	return e
}

// newRun discards the current run and starts a fresh one. Caller holds mu
// (or is the constructor).
func (e *Engine) newRun() {
	e.wave = NewWaveController(e.cfg.Wave, e.seed)
	e.armory = NewArmory()
	e.clicks = e.clicks[:0]
	e.tickCount = 0
	e.gameOverFired = false
	for i := 0; i < e.cfg.InitialEnemies; i++ {
		e.wave.Spawn()
	}
	e.publish()
}

// Restart abandons the current run and begins a new one with a new seed.
// Kills the peer reported against the old run are discarded.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n := e.reconciler.Reset(); n > 0 {
		log.Printf("🧹 Discarded %d peer kills from the previous run", n)
	}
	e.seed++
	e.newRun()
	log.Printf("🔄 New run started (seed %d)", e.seed)
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))

	go func() {
		last := time.Now()
		for {
			select {
			case now := <-e.ticker.C:
				e.Step(now.Sub(last))
				last = now
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Swarm engine started at %d TPS", e.cfg.TickRate)
}

// Stop stops the game loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Swarm engine stopped")
}

// Step advances the simulation by elapsed time.
func (e *Engine) Step(elapsed time.Duration) TickReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step(elapsed)
}

func (e *Engine) step(elapsed time.Duration) TickReport {
	start := time.Now()
	w := e.wave

	if w.GameOver() {
		e.clicks = e.clicks[:0]
		return TickReport{Tick: e.tickCount, Health: w.Health(), Enemies: w.Count(), GameOver: true}
	}

	e.tickCount++
	rep := TickReport{Tick: e.tickCount, Elapsed: elapsed}

	// Clicks first: a click kill wins over an attack landing in the same tick.
	for _, p := range e.clicks {
		for _, id := range w.HitTest(p) {
			if w.Kill(id, CauseClick) {
				e.recordKill(id, CauseClick)
				rep.ClickKills++
			}
		}
	}
	e.clicks = e.clicks[:0]

	for _, id := range e.armory.Fire(elapsed, w) {
		e.recordKill(id, CauseWeapon)
		rep.WeaponKills++
	}

	w.Advance(elapsed)

	res := e.resolver.Resolve(w.Enemies(), w.Base(), elapsed, w)
	rep.Breaches = len(res.Hits)
	for _, id := range res.Hits {
		e.eventLog.EmitSimple(EventTypeBreach, e.tickCount, BreachPayload{EnemyID: id, Health: w.Health()})
		if e.OnBreach != nil {
			e.OnBreach(w.Health())
		}
	}
	if res.GameOver {
		e.finish()
		rep.GameOver = true
		rep.Health = w.Health()
		rep.Enemies = w.Count()
		rep.Duration = time.Since(start)
		e.publish()
		if e.OnTick != nil {
			e.OnTick(rep)
		}
		return rep
	}

	w.Age(elapsed)

	removal := w.DrainRemovals()
	rep.Removed = removal.Removed
	e.reconciler.Credit(removal.Breaches)
	rep.Sync = e.reconciler.Reconcile(removal.Removed)
	if e.reconciler.Multiplayer() && (rep.Sync.Sent > 0 || rep.Sync.Received > 0) {
		e.eventLog.EmitSimple(EventTypePeerSync, e.tickCount, PeerSyncPayload{
			Local:    rep.Sync.Local,
			Sent:     rep.Sync.Sent,
			Received: rep.Sync.Received,
			Net:      rep.Sync.Net,
		})
	}

	rep.Spawned = w.Respawn(rep.Sync.Net)
	if rep.Spawned > 0 {
		e.eventLog.EmitSimple(EventTypeSpawn, e.tickCount, SpawnPayload{Count: rep.Spawned, Total: w.Count()})
	}

	rep.Enemies = w.Count()
	rep.Health = w.Health()
	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, TickPayload{
		Enemies:     rep.Enemies,
		Health:      rep.Health,
		DeltaTimeNs: elapsed.Nanoseconds(),
	})

	e.publish()
	rep.Duration = time.Since(start)
	if e.OnTick != nil {
		e.OnTick(rep)
	}
	return rep
}

// finish runs the game-over side effects exactly once per run.
func (e *Engine) finish() {
	if e.gameOverFired {
		return
	}
	e.gameOverFired = true
	summary := e.summary()
	e.eventLog.EmitSimple(EventTypeGameOver, e.tickCount, GameOverPayload{Summary: summary})
	log.Printf("💀 Game over after %d ticks: score %d, %d enemies spawned", summary.Ticks, summary.Score, summary.Spawned)
	if e.OnGameOver != nil {
		e.OnGameOver(summary)
	}
}

func (e *Engine) recordKill(id int, cause KillCause) {
	enemy := e.wave.Get(id)
	if enemy == nil {
		return
	}
	e.eventLog.EmitSimple(EventTypeKill, e.tickCount, KillPayload{
		EnemyID: id,
		Cause:   cause.String(),
		X:       enemy.Position.X,
		Y:       enemy.Position.Y,
		Score:   e.wave.Score(),
	})
	if e.OnKill != nil {
		e.OnKill(EnemySnapshot{
			ID:    id,
			X:     enemy.Position.X,
			Y:     enemy.Position.Y,
			Size:  enemy.Size,
			State: enemy.State,
			Label: enemy.State.String(),
		}, cause)
	}
}

// Click queues a click at screen coordinates for the next tick.
// Returns false when the run is over or the queue is full.
func (e *Engine) Click(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wave.GameOver() || len(e.clicks) >= MaxPendingClicks {
		return false
	}
	e.clicks = append(e.clicks, Vec2{X: x, Y: y})
	return true
}

// Purchase buys a shop item. Repeating weapons are installed at the base,
// one-shot weapons fire immediately. Returns the number of enemies killed.
func (e *Engine) Purchase(itemID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wave.GameOver() {
		return 0, ErrGameOver
	}
	weapon, ok := GetWeapon(itemID)
	if !ok {
		return 0, ErrUnknownItem
	}
	if !e.wave.Spend(weapon.Price) {
		return 0, ErrInsufficientCoins
	}

	killed := 0
	switch weapon.Kind {
	case WeaponRepeating:
		e.armory.Install(weapon)
	case WeaponOneShot:
		for _, id := range Burst(e.wave, weapon.Reach) {
			e.recordKill(id, CauseWeapon)
			killed++
		}
	}

	e.eventLog.EmitSimple(EventTypePurchase, e.tickCount, PurchasePayload{
		ItemID: weapon.ID,
		Price:  weapon.Price,
		Coins:  e.wave.Coins(),
		Killed: killed,
	})
	log.Printf("🛒 Purchased %s for %d coins (%d left)", weapon.Name, weapon.Price, e.wave.Coins())
	e.publish()
	return killed, nil
}

// Snapshot returns the latest published snapshot without locking the engine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshots.Latest()
}

// Summary returns the current scoreboard.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary()
}

func (e *Engine) summary() Summary {
	return Summary{
		Health:      e.wave.Health(),
		Score:       e.wave.Score(),
		Coins:       e.wave.Coins(),
		Spawned:     e.wave.Spawned(),
		Ticks:       e.tickCount,
		GameOver:    e.wave.GameOver(),
		Multiplayer: e.reconciler.Multiplayer(),
	}
}

func (e *Engine) publish() {
	e.snapshots.Publish(buildSnapshot(e.wave, e.cfg.Wave, e.summary(), e.armory.Count()))
}

// StartEventLog begins writing events to path.
func (e *Engine) StartEventLog(path string) error {
	return e.eventLog.Start(path)
}

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLogCounts returns how many events were logged and dropped.
func (e *Engine) EventLogCounts() (total, dropped uint64) {
	return e.eventLog.GetTotalCount(), e.eventLog.GetDroppedCount()
}
