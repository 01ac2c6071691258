// Package player holds the authoritative player state and the pure reducer
// that applies player intents to it.
package player

import (
	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
)

// State is one immutable version of the player's state. Every dispatched intent
// produces a new State; CurrentMission is shared between versions and must never
// be mutated through the pointer.
//
// Invariant: 0 <= Health <= MaxHealth; 0 <= Ammo <= MaxAmmo; Score only decreases on reset.
type State struct {
	Health           int
	MaxHealth        int
	Ammo             int
	MaxAmmo          int
	PlayerLevel      int
	Position         geom.Vec2
	CurrentMission   *mission.Mission
	EquippedWeaponID string
	Score            int
}

// Initial returns the state a new player starts with and RESET restores.
//
// Postcondition: full health (100) and ammo (30), level 1, at the origin, no mission,
// rifle equipped, zero score.
func Initial() State {
	return State{
		Health:           100,
		MaxHealth:        100,
		Ammo:             30,
		MaxAmmo:          30,
		PlayerLevel:      1,
		EquippedWeaponID: "rifle",
	}
}

// HasMission reports whether a mission is active.
func (s State) HasMission() bool { return s.CurrentMission != nil }

// Alive reports whether the player has health remaining.
func (s State) Alive() bool { return s.Health > 0 }
