package game

import (
	"testing"
	"time"
)

// TestGetWeapon tests catalog lookups
func TestGetWeapon(t *testing.T) {
	tests := []struct {
		id       string
		expected string
		ok       bool
	}{
		{"sentry", "Sentry", true},
		{"nova", "Nova Burst", true},
		{"laser", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w, ok := GetWeapon(tt.id)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if w.Name != tt.expected {
				t.Errorf("Expected name '%s', got '%s'", tt.expected, w.Name)
			}
		})
	}
}

// TestGetAllWeapons verifies the catalog is complete and sorted by price
func TestGetAllWeapons(t *testing.T) {
	weapons := GetAllWeapons()
	if len(weapons) != len(Weapons) {
		t.Fatalf("Expected %d weapons, got %d", len(Weapons), len(weapons))
	}
	for i := 1; i < len(weapons); i++ {
		if weapons[i].Price < weapons[i-1].Price {
			t.Errorf("Catalog not sorted by price at %d", i)
		}
	}
	for _, w := range weapons {
		if w.ID == "" || w.Name == "" || w.Price <= 0 || w.Reach <= 0 {
			t.Errorf("Weapon %+v has missing fields", w)
		}
	}
}

// TestArmoryFiresNearest verifies a sentry kills the closest enemy in reach
func TestArmoryFiresNearest(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	center := w.Base().Center
	far := w.SpawnAt(Vec2{center.X + 150, center.Y})
	near := w.SpawnAt(Vec2{center.X + 50, center.Y})
	w.SpawnAt(Vec2{center.X + 500, center.Y}) // out of reach

	a := NewArmory()
	a.Install(Weapons["sentry"])

	killed := a.Fire(16*time.Millisecond, w)
	if len(killed) != 1 || killed[0] != near.ID {
		t.Fatalf("Expected to kill %d, got %v", near.ID, killed)
	}

	// Cooling down
	if killed := a.Fire(16*time.Millisecond, w); len(killed) != 0 {
		t.Errorf("Fired during cooldown: %v", killed)
	}

	killed = a.Fire(Weapons["sentry"].Cooldown, w)
	if len(killed) != 1 || killed[0] != far.ID {
		t.Errorf("Expected to kill %d after cooldown, got %v", far.ID, killed)
	}
	if w.Score() != 2 || w.Coins() != 0 {
		t.Errorf("Weapon kills should score without coins: score %d coins %d", w.Score(), w.Coins())
	}
}

// TestArmoryStaysArmed verifies an idle sentry fires as soon as a target appears
func TestArmoryStaysArmed(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	a := NewArmory()
	a.Install(Weapons["sentry"])

	if killed := a.Fire(time.Millisecond, w); len(killed) != 0 {
		t.Fatalf("Nothing to shoot, got %v", killed)
	}
	e := w.SpawnAt(w.Base().Center)
	if killed := a.Fire(time.Millisecond, w); len(killed) != 1 || killed[0] != e.ID {
		t.Errorf("Expected immediate kill of %d, got %v", e.ID, killed)
	}
}

// TestBurstKillsInReach verifies nova only hits enemies within reach
func TestBurstKillsInReach(t *testing.T) {
	w := NewWaveController(testWaveConfig(), 1)
	center := w.Base().Center
	in1 := w.SpawnAt(Vec2{center.X + 10, center.Y})
	in2 := w.SpawnAt(Vec2{center.X, center.Y - 100})
	out := w.SpawnAt(Vec2{center.X + 400, center.Y})

	killed := Burst(w, Weapons["nova"].Reach)

	if len(killed) != 2 {
		t.Fatalf("Expected 2 kills, got %v", killed)
	}
	if in1.State != StateDying || in2.State != StateDying {
		t.Error("Enemies in reach should be dying")
	}
	if out.State != StateApproaching {
		t.Error("Enemy out of reach should be untouched")
	}
}
