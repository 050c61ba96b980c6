package game

import (
	"testing"
	"time"
)

// TestNewEnemyApproaching verifies fresh enemies start approaching
func TestNewEnemyApproaching(t *testing.T) {
	e := NewEnemy(7, Vec2{1, 2}, 10)
	if e.State != StateApproaching {
		t.Errorf("Expected approaching, got %s", e.State)
	}
	if e.ID != 7 {
		t.Errorf("Expected id 7, got %d", e.ID)
	}
	if !e.IsLive() {
		t.Error("Fresh enemy should be live")
	}
}

// TestEnemyForwardOnlyTransitions walks the full lifecycle and checks that
// skips and reversals are refused
func TestEnemyForwardOnlyTransitions(t *testing.T) {
	e := NewEnemy(1, Vec2{}, 10)

	if !e.StartAttack() {
		t.Fatal("Approaching -> Attacking should succeed")
	}
	if e.StartAttack() {
		t.Error("Attacking -> Attacking should be refused")
	}
	if !e.Kill(CauseBreach) {
		t.Fatal("Attacking -> Dying should succeed")
	}
	if e.StartAttack() {
		t.Error("Dying -> Attacking should be refused")
	}
	if e.Kill(CauseClick) {
		t.Error("Dying -> Dying should be refused")
	}
	if e.Cause != CauseBreach {
		t.Errorf("Cause should stay breach, got %s", e.Cause)
	}
	if e.age(0, 100*time.Millisecond) {
		t.Error("Should not be dead before the animation ends")
	}
	if !e.age(100*time.Millisecond, 100*time.Millisecond) {
		t.Fatal("Dying -> Dead should happen after the animation")
	}
	if e.State != StateDead {
		t.Errorf("Expected dead, got %s", e.State)
	}
	if e.Kill(CauseClick) || e.StartAttack() || e.age(time.Second, 0) {
		t.Error("Dead is terminal")
	}
}

// TestEnemyKillFromApproaching verifies a click can kill before contact
func TestEnemyKillFromApproaching(t *testing.T) {
	e := NewEnemy(1, Vec2{}, 10)
	if !e.Kill(CauseClick) {
		t.Fatal("Approaching -> Dying should succeed")
	}
	if e.State != StateDying {
		t.Errorf("Expected dying, got %s", e.State)
	}
}

// TestEnemyAttackCharge verifies the attack only lands after a full cycle
func TestEnemyAttackCharge(t *testing.T) {
	e := NewEnemy(1, Vec2{}, 10)
	if e.chargeAttack(time.Second, 0) {
		t.Error("Approaching enemies cannot charge an attack")
	}
	e.StartAttack()
	if e.chargeAttack(40*time.Millisecond, 100*time.Millisecond) {
		t.Error("Attack landed too early")
	}
	if !e.chargeAttack(60*time.Millisecond, 100*time.Millisecond) {
		t.Error("Attack should land after a full cycle")
	}
}
