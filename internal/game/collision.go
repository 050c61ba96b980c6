package game

import "time"

// HealthSink receives damage from enemies that complete an attack.
// Damage reports true exactly once, when health reaches zero.
type HealthSink interface {
	Damage() bool
}

// ResolveResult reports what one collision pass did.
type ResolveResult struct {
	AttacksStarted int
	Hits           []int // Ids of enemies that landed their hit, in order
	GameOver       bool  // Health reached zero during this pass
}

// CollisionResolver tests live enemies against the base and drives the
// Approaching -> Attacking -> Dying part of the lifecycle.
type CollisionResolver struct {
	attackCycle time.Duration
}

// NewCollisionResolver creates a resolver with the given attack wind-up.
func NewCollisionResolver(attackCycle time.Duration) *CollisionResolver {
	return &CollisionResolver{attackCycle: attackCycle}
}

// Resolve runs one collision pass. An enemy that first touches the base starts
// attacking without dealing damage; an enemy that has been attacking for a full
// cycle deals one point of damage and starts dying. Once health reaches zero
// the pass stops: nothing else is processed for the run.
func (c *CollisionResolver) Resolve(enemies []*Enemy, base Box, elapsed time.Duration, health HealthSink) ResolveResult {
	var res ResolveResult
	for _, e := range enemies {
		if !e.IsLive() {
			continue
		}
		if !Overlaps(e.Bounds(), base) {
			continue
		}

		if e.State == StateApproaching {
			e.StartAttack()
			res.AttacksStarted++
			continue
		}

		if !e.chargeAttack(elapsed, c.attackCycle) {
			continue
		}
		e.Kill(CauseBreach)
		res.Hits = append(res.Hits, e.ID)
		if health.Damage() {
			res.GameOver = true
			return res
		}
	}
	return res
}
