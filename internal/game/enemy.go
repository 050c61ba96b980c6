package game

import "time"

// EnemyState is the lifecycle stage of an enemy.
type EnemyState uint8

const (
	StateApproaching EnemyState = iota // Moving toward the base
	StateAttacking                     // Locked on the base, winding up its single hit
	StateDying                         // Playing the death animation
	StateDead                          // Terminal, waiting to be drained
)

// String returns the lowercase state name used in snapshots and logs.
func (s EnemyState) String() string {
	switch s {
	case StateApproaching:
		return "approaching"
	case StateAttacking:
		return "attacking"
	case StateDying:
		return "dying"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// KillCause records why an enemy left the Approaching/Attacking states.
type KillCause uint8

const (
	CauseNone   KillCause = iota
	CauseClick            // Player clicked it
	CauseWeapon           // A purchased weapon destroyed it
	CauseBreach           // It finished its attack on the base
)

// String returns the cause label used for metrics and events.
func (c KillCause) String() string {
	switch c {
	case CauseClick:
		return "click"
	case CauseWeapon:
		return "weapon"
	case CauseBreach:
		return "breach"
	default:
		return "none"
	}
}

// IsKill reports whether the cause counts as a player kill.
func (c KillCause) IsKill() bool {
	return c == CauseClick || c == CauseWeapon
}

// Enemy is one hostile entity. Its ID is the only handle used for removal.
type Enemy struct {
	ID       int
	Position Vec2
	Size     float64
	State    EnemyState
	Cause    KillCause

	attackElapsed time.Duration // Time spent in StateAttacking
	dyingElapsed  time.Duration // Time spent in StateDying
}

// NewEnemy creates an enemy in the Approaching state.
func NewEnemy(id int, pos Vec2, size float64) *Enemy {
	return &Enemy{
		ID:       id,
		Position: pos,
		Size:     size,
		State:    StateApproaching,
	}
}

// Bounds returns the enemy's bounding box.
func (e *Enemy) Bounds() Box {
	return SquareBox(e.Position, e.Size)
}

// IsLive reports whether the enemy can still move, attack or be killed.
func (e *Enemy) IsLive() bool {
	return e.State == StateApproaching || e.State == StateAttacking
}

// StartAttack moves an approaching enemy into the attacking state.
func (e *Enemy) StartAttack() bool {
	if e.State != StateApproaching {
		return false
	}
	e.State = StateAttacking
	e.attackElapsed = 0
	return true
}

// Kill moves a live enemy into the dying state. Returns false if it was
// already dying or dead, so a second kill in the same tick is a no-op.
func (e *Enemy) Kill(cause KillCause) bool {
	if !e.IsLive() {
		return false
	}
	e.State = StateDying
	e.Cause = cause
	e.dyingElapsed = 0
	return true
}

// chargeAttack adds dt to the attack timer and reports whether a full
// attack cycle has now elapsed.
func (e *Enemy) chargeAttack(dt, cycle time.Duration) bool {
	if e.State != StateAttacking {
		return false
	}
	e.attackElapsed += dt
	return e.attackElapsed >= cycle
}

// age advances the dying animation and reports whether the enemy just became Dead.
func (e *Enemy) age(dt, dyingDuration time.Duration) bool {
	if e.State != StateDying {
		return false
	}
	e.dyingElapsed += dt
	if e.dyingElapsed < dyingDuration {
		return false
	}
	e.State = StateDead
	return true
}
