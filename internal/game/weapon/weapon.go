// Package weapon implements the fire-control model: weapon definitions, the
// fixed preset table, clamping of externally supplied weapon data, and live
// weapon instances with fire-rate gating and timed reloads.
package weapon

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Category is the weapon class.
type Category string

const (
	CategoryPistol  Category = "pistol"
	CategoryRifle   Category = "rifle"
	CategoryShotgun Category = "shotgun"
	CategorySniper  Category = "sniper"
)

// ParseCategory returns the Category named by s.
//
// Postcondition: ok is false iff s is not one of pistol, rifle, shotgun, sniper.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryPistol, CategoryRifle, CategoryShotgun, CategorySniper:
		return c, true
	default:
		return "", false
	}
}

// MinReloadTime is the shortest reload any weapon may have.
const MinReloadTime = 500 * time.Millisecond

// Stats holds the numeric properties of a weapon.
//
// Invariant (after Validate): Damage > 0, FireRate > 0, Recoil and Spread in [0,1],
// MagazineSize >= 1, ReloadTime >= MinReloadTime.
type Stats struct {
	// Damage is the base damage of one hit.
	Damage float64
	// FireRate is the maximum number of shots per second.
	FireRate float64
	// Recoil scales the reticle kick in [0,1].
	Recoil float64
	// Spread is the maximum fractional damage reduction in [0,1].
	Spread float64
	// MagazineSize is the number of rounds in a full magazine.
	MagazineSize int
	// ReloadTime is the time a reload takes to complete.
	ReloadTime time.Duration
}

// Validate checks the Stats invariants.
//
// Postcondition: Returns nil iff every invariant holds; otherwise an error naming all violations.
func (s Stats) Validate() error {
	var errs []error
	if s.Damage <= 0 {
		errs = append(errs, fmt.Errorf("damage must be > 0, got %v", s.Damage))
	}
	if s.FireRate <= 0 {
		errs = append(errs, fmt.Errorf("fire rate must be > 0, got %v", s.FireRate))
	}
	if s.Recoil < 0 || s.Recoil > 1 {
		errs = append(errs, fmt.Errorf("recoil must be in [0,1], got %v", s.Recoil))
	}
	if s.Spread < 0 || s.Spread > 1 {
		errs = append(errs, fmt.Errorf("spread must be in [0,1], got %v", s.Spread))
	}
	if s.MagazineSize < 1 {
		errs = append(errs, fmt.Errorf("magazine size must be >= 1, got %d", s.MagazineSize))
	}
	if s.ReloadTime < MinReloadTime {
		errs = append(errs, fmt.Errorf("reload time must be >= %s, got %s", MinReloadTime, s.ReloadTime))
	}
	return errors.Join(errs...)
}

// FireInterval returns the fire-rate gate: the minimum time between successive
// successful shots, 1000/FireRate milliseconds.
//
// Precondition: FireRate > 0.
func (s Stats) FireInterval() time.Duration {
	return time.Duration(float64(time.Second) / s.FireRate)
}

// Def is a complete weapon definition.
type Def struct {
	ID       string
	Name     string
	Category Category
	Stats    Stats
}

// Validate checks that the Def satisfies its invariants.
func (d Def) Validate() error {
	if d.ID == "" {
		return errors.New("weapon: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("weapon %q: name must not be empty", d.ID)
	}
	if _, ok := ParseCategory(string(d.Category)); !ok {
		return fmt.Errorf("weapon %q: unknown category %q", d.ID, d.Category)
	}
	if err := d.Stats.Validate(); err != nil {
		return fmt.Errorf("weapon %q: %w", d.ID, err)
	}
	return nil
}

// ErrUnknownPreset is returned when a preset id is not in the reference table.
var ErrUnknownPreset = errors.New("weapon: unknown preset")

var presets = map[string]Def{
	"pistol": {
		ID: "pistol", Name: "M9 Pistol", Category: CategoryPistol,
		Stats: Stats{Damage: 25, FireRate: 3, Recoil: 0.2, Spread: 0.05, MagazineSize: 15, ReloadTime: 1500 * time.Millisecond},
	},
	"rifle": {
		ID: "rifle", Name: "M4A1 Rifle", Category: CategoryRifle,
		Stats: Stats{Damage: 35, FireRate: 8, Recoil: 0.4, Spread: 0.08, MagazineSize: 30, ReloadTime: 2000 * time.Millisecond},
	},
	"shotgun": {
		ID: "shotgun", Name: "M870 Shotgun", Category: CategoryShotgun,
		Stats: Stats{Damage: 80, FireRate: 1, Recoil: 0.8, Spread: 0.3, MagazineSize: 8, ReloadTime: 2500 * time.Millisecond},
	},
	"sniper": {
		ID: "sniper", Name: "M24 Sniper", Category: CategorySniper,
		Stats: Stats{Damage: 120, FireRate: 0.5, Recoil: 0.9, Spread: 0.02, MagazineSize: 5, ReloadTime: 3000 * time.Millisecond},
	},
}

// Preset returns the reference definition for id.
//
// Postcondition: Returns ErrUnknownPreset (wrapped) when id is not in the table.
func Preset(id string) (Def, error) {
	d, ok := presets[id]
	if !ok {
		return Def{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	return d, nil
}

// MustPreset returns the reference definition for id and panics when it does not exist.
func MustPreset(id string) Def {
	d, err := Preset(id)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Presets returns every reference definition ordered by id.
func Presets() []Def {
	out := make([]Def, 0, len(presets))
	for _, d := range presets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
