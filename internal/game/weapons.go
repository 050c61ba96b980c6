package game

import (
	"errors"
	"sort"
	"time"
)

// Shop refusals. These are expected outcomes, returned so the API can map them.
var (
	ErrUnknownItem       = errors.New("unknown shop item")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrGameOver          = errors.New("run is over")
)

// WeaponKind distinguishes weapons that keep firing from one-shot ones.
type WeaponKind string

const (
	WeaponRepeating WeaponKind = "repeating" // Fires every cooldown for the rest of the run
	WeaponOneShot   WeaponKind = "oneshot"   // Fires once, on purchase
)

// Weapon is a purchasable item in the shop.
type Weapon struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Kind     WeaponKind    `json:"kind"`
	Price    int           `json:"price"`
	Reach    float64       `json:"reach"` // Distance from the base centre it can hit
	Cooldown time.Duration `json:"cooldown"`
}

// Weapons is the shop catalog.
var Weapons = map[string]Weapon{
	"sentry": {
		ID:       "sentry",
		Name:     "Sentry",
		Kind:     WeaponRepeating,
		Price:    50,
		Reach:    200,
		Cooldown: 1500 * time.Millisecond,
	},
	"nova": {
		ID:    "nova",
		Name:  "Nova Burst",
		Kind:  WeaponOneShot,
		Price: 100,
		Reach: 180,
	},
}

// GetWeapon returns a catalog entry.
func GetWeapon(id string) (Weapon, bool) {
	w, ok := Weapons[id]
	return w, ok
}

// GetAllWeapons returns the catalog sorted by price.
func GetAllWeapons() []Weapon {
	out := make([]Weapon, 0, len(Weapons))
	for _, w := range Weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price == out[j].Price {
			return out[i].ID < out[j].ID
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// ownedWeapon is a repeating weapon installed at the base.
type ownedWeapon struct {
	weapon   Weapon
	cooldown time.Duration // Remaining time until it may fire
}

// Armory holds the repeating weapons bought during a run.
type Armory struct {
	owned []*ownedWeapon
}

// NewArmory creates an empty armory.
func NewArmory() *Armory {
	return &Armory{}
}

// Install adds a repeating weapon. It fires on the next tick.
func (a *Armory) Install(w Weapon) {
	a.owned = append(a.owned, &ownedWeapon{weapon: w})
}

// Count returns the number of installed weapons.
func (a *Armory) Count() int { return len(a.owned) }

// Fire ticks every installed weapon and kills through the controller.
// Returns the ids killed, in firing order.
func (a *Armory) Fire(elapsed time.Duration, w *WaveController) []int {
	var killed []int
	for _, o := range a.owned {
		o.cooldown -= elapsed
		if o.cooldown > 0 {
			continue
		}
		id, ok := nearestLive(w, o.weapon.Reach)
		if !ok {
			// Stay armed until something comes into reach.
			o.cooldown = 0
			continue
		}
		if w.Kill(id, CauseWeapon) {
			killed = append(killed, id)
		}
		o.cooldown = o.weapon.Cooldown
	}
	return killed
}

// Burst kills every live enemy within reach of the base centre.
func Burst(w *WaveController, reach float64) []int {
	center := w.Base().Center
	var ids []int
	for _, e := range w.Enemies() {
		if e.IsLive() && Dist(e.Position, center) <= reach {
			ids = append(ids, e.ID)
		}
	}
	killed := ids[:0]
	for _, id := range ids {
		if w.Kill(id, CauseWeapon) {
			killed = append(killed, id)
		}
	}
	return killed
}

// nearestLive finds the live enemy closest to the base within reach.
func nearestLive(w *WaveController, reach float64) (int, bool) {
	center := w.Base().Center
	best, bestDist, found := 0, reach, false
	for _, e := range w.Enemies() {
		if !e.IsLive() {
			continue
		}
		d := Dist(e.Position, center)
		if d <= bestDist {
			if found && d == bestDist && e.ID > best {
				continue
			}
			best, bestDist, found = e.ID, d, true
		}
	}
	return best, found
}
