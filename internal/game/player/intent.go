package player

import (
	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
)

// IntentKind identifies what a dispatched intent does.
// The zero value (IntentUnknown) is intentionally invalid and leaves state unchanged.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentShoot
	IntentReload
	IntentTakeDamage
	IntentHeal
	IntentMove
	IntentSetMission
	IntentCompleteMission
	IntentEquipWeapon
	IntentAddScore
	IntentReset
)

// String returns the wire-style name of the kind.
func (k IntentKind) String() string {
	switch k {
	case IntentShoot:
		return "SHOOT"
	case IntentReload:
		return "RELOAD"
	case IntentTakeDamage:
		return "TAKE_DAMAGE"
	case IntentHeal:
		return "HEAL"
	case IntentMove:
		return "MOVE"
	case IntentSetMission:
		return "SET_MISSION"
	case IntentCompleteMission:
		return "COMPLETE_MISSION"
	case IntentEquipWeapon:
		return "EQUIP_WEAPON"
	case IntentAddScore:
		return "ADD_SCORE"
	case IntentReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Intent is a request to change player state. Only the fields relevant to Kind are read.
type Intent struct {
	Kind     IntentKind
	Amount   int
	Delta    geom.Vec2
	Mission  mission.Mission
	WeaponID string
}

// Shoot consumes one round.
func Shoot() Intent { return Intent{Kind: IntentShoot} }

// Reload refills ammo to MaxAmmo.
func Reload() Intent { return Intent{Kind: IntentReload} }

// TakeDamage removes n health.
func TakeDamage(n int) Intent { return Intent{Kind: IntentTakeDamage, Amount: n} }

// Heal restores n health.
func Heal(n int) Intent { return Intent{Kind: IntentHeal, Amount: n} }

// Move displaces the player by (dx, dy).
func Move(dx, dy float64) Intent { return Intent{Kind: IntentMove, Delta: geom.Vec2{X: dx, Y: dy}} }

// SetMission makes m the current mission.
func SetMission(m mission.Mission) Intent { return Intent{Kind: IntentSetMission, Mission: m} }

// CompleteMission awards the current mission's reward and clears it.
func CompleteMission() Intent { return Intent{Kind: IntentCompleteMission} }

// EquipWeapon records id as the equipped weapon.
func EquipWeapon(id string) Intent { return Intent{Kind: IntentEquipWeapon, WeaponID: id} }

// AddScore adds n to the score.
func AddScore(n int) Intent { return Intent{Kind: IntentAddScore, Amount: n} }

// Reset restores the initial state.
func Reset() Intent { return Intent{Kind: IntentReset} }
