package weapon

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/dice"
)

// Arsenal holds weapon definitions indexed by ID.
type Arsenal struct {
	defs map[string]Def
}

// NewArsenal returns an Arsenal containing the reference presets.
//
// Postcondition: Def(id) succeeds for pistol, rifle, shotgun, and sniper.
func NewArsenal() *Arsenal {
	a := &Arsenal{defs: make(map[string]Def, len(presets))}
	for id, d := range presets {
		a.defs[id] = d
	}
	return a
}

// Register adds d to the arsenal.
//
// Postcondition: returns an error if d is invalid or d.ID is already registered.
func (a *Arsenal) Register(d Def) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := a.defs[d.ID]; exists {
		return fmt.Errorf("weapon.Arsenal.Register: weapon ID %q already registered", d.ID)
	}
	a.defs[d.ID] = d
	return nil
}

// Def returns the definition for id and whether it was found.
func (a *Arsenal) Def(id string) (Def, bool) {
	d, ok := a.defs[id]
	return d, ok
}

// All returns every definition ordered by ID.
func (a *Arsenal) All() []Def {
	out := make([]Def, 0, len(a.defs))
	for _, d := range a.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Build instantiates a fully loaded Weapon for id.
//
// Postcondition: returns an error when id is not registered.
func (a *Arsenal) Build(id string, clk clock.Clock, src dice.Source, logger *zap.Logger) (*Weapon, error) {
	d, ok := a.defs[id]
	if !ok {
		return nil, fmt.Errorf("weapon.Arsenal.Build: weapon %q not registered", id)
	}
	return New(d, clk, src, logger), nil
}
