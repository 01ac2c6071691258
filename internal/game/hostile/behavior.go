// Package hostile implements the per-actor behavior state machine for hostile
// actors and the registry that owns all live actors.
package hostile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
)

// State is an actor's behavior state.
type State string

const (
	StateIdle       State = "idle"
	StatePatrol     State = "patrol"
	StateAggressive State = "aggressive"
)

const (
	// DeescalationFactor is the hysteresis band: an aggressive actor only calms
	// down once the player is farther than DeescalationFactor × DetectionRange.
	DeescalationFactor = 1.5
	// WaypointTolerance is the distance under which a patrol waypoint counts as reached.
	WaypointTolerance = 5.0
	// NominalTickRate converts Speed (units per tick) into units per second.
	NominalTickRate = 60.0
)

// Config holds the tunable properties of one actor.
//
// Invariant (after Validate): MaxHealth >= 1; DetectionRange, AttackRange, Speed > 0.
type Config struct {
	Name           string
	MaxHealth      int
	DetectionRange float64
	AttackRange    float64
	Speed          float64
	// PatrolRoute is optional; when non-empty the actor starts in StatePatrol.
	PatrolRoute []geom.Vec2
}

// Validate checks the Config invariants.
func (c Config) Validate() error {
	var errs []error
	if c.MaxHealth < 1 {
		errs = append(errs, fmt.Errorf("max health must be >= 1, got %d", c.MaxHealth))
	}
	if c.DetectionRange <= 0 {
		errs = append(errs, fmt.Errorf("detection range must be > 0, got %v", c.DetectionRange))
	}
	if c.AttackRange <= 0 {
		errs = append(errs, fmt.Errorf("attack range must be > 0, got %v", c.AttackRange))
	}
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be > 0, got %v", c.Speed))
	}
	return errors.Join(errs...)
}

// Actor is a point-in-time copy of a hostile actor. Mutating it has no effect on
// the live Behavior.
type Actor struct {
	ID             string
	Name           string
	Position       geom.Vec2
	Health         int
	MaxHealth      int
	DetectionRange float64
	AttackRange    float64
	Speed          float64
	State          State
	PatrolRoute    []geom.Vec2
	WaypointIndex  int
}

// Alive reports whether the actor has health remaining.
func (a Actor) Alive() bool { return a.Health > 0 }

// Behavior is one live hostile actor and its state machine.
// All methods are safe for concurrent use.
//
// Invariant: 0 <= health <= maxHealth; state is StatePatrol only if the route is non-empty;
// 0 <= waypoint < len(route) whenever the route is non-empty.
type Behavior struct {
	id  string
	cfg Config
	clk clock.Clock

	mu         sync.Mutex
	pos        geom.Vec2
	health     int
	state      State
	waypoint   int
	lastUpdate time.Time
}

// NewBehavior creates a full-health actor at pos.
//
// Precondition: id must be non-empty; cfg must satisfy Validate(); clk must be non-nil.
// Postcondition: state is StatePatrol if cfg.PatrolRoute is non-empty, else StateIdle.
func NewBehavior(id string, pos geom.Vec2, cfg Config, clk clock.Clock) *Behavior {
	if id == "" {
		panic("hostile.NewBehavior: id must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		panic("hostile.NewBehavior: " + err.Error())
	}
	if clk == nil {
		panic("hostile.NewBehavior: clk must not be nil")
	}
	cfg.PatrolRoute = append([]geom.Vec2(nil), cfg.PatrolRoute...)
	state := StateIdle
	if len(cfg.PatrolRoute) > 0 {
		state = StatePatrol
	}
	return &Behavior{
		id:         id,
		cfg:        cfg,
		clk:        clk,
		pos:        pos,
		health:     cfg.MaxHealth,
		state:      state,
		lastUpdate: clk.Now(),
	}
}

// ID returns the actor's immutable identifier.
func (b *Behavior) ID() string { return b.id }

// Update advances the state machine by the wall-clock time elapsed since the
// previous update, given the player's current position.
//
// Postcondition: returns the state after the update. A dead actor only refreshes
// its timestamp and keeps its last state.
func (b *Behavior) Update(player geom.Vec2) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clk.Now()
	dt := now.Sub(b.lastUpdate).Seconds()
	if dt < 0 {
		dt = 0
	}
	b.lastUpdate = now

	if b.health <= 0 {
		return b.state
	}

	dist := geom.Distance(b.pos, player)
	switch b.state {
	case StateIdle:
		if dist <= b.cfg.DetectionRange {
			b.state = StateAggressive
		}
	case StatePatrol:
		if dist <= b.cfg.DetectionRange {
			b.state = StateAggressive
			break
		}
		b.patrolLocked(dt)
	case StateAggressive:
		if dist > DeescalationFactor*b.cfg.DetectionRange {
			b.state = b.calmStateLocked()
			break
		}
		if dist > b.cfg.AttackRange {
			b.pos = geom.StepToward(b.pos, player, b.stepLocked(dt))
		}
	}
	return b.state
}

func (b *Behavior) patrolLocked(dt float64) {
	route := b.cfg.PatrolRoute
	if geom.Distance(b.pos, route[b.waypoint]) < WaypointTolerance {
		b.waypoint = (b.waypoint + 1) % len(route)
	}
	b.pos = geom.StepToward(b.pos, route[b.waypoint], b.stepLocked(dt))
}

func (b *Behavior) stepLocked(dt float64) float64 {
	return b.cfg.Speed * dt * NominalTickRate
}

func (b *Behavior) calmStateLocked() State {
	if len(b.cfg.PatrolRoute) > 0 {
		return StatePatrol
	}
	return StateIdle
}

// TakeDamage subtracts amount from health, flooring at zero, and forces the actor
// aggressive.
//
// Precondition: amount >= 0.
// Postcondition: returns true iff health is now 0.
func (b *Behavior) TakeDamage(amount int) bool {
	if amount < 0 {
		panic(fmt.Sprintf("hostile.Behavior.TakeDamage: amount must be >= 0, got %d", amount))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health -= amount
	if b.health < 0 {
		b.health = 0
	}
	b.state = StateAggressive
	return b.health == 0
}

// Heal adds amount to health, capped at MaxHealth. The behavior state is unchanged.
//
// Precondition: amount >= 0.
func (b *Behavior) Heal(amount int) {
	if amount < 0 {
		panic(fmt.Sprintf("hostile.Behavior.Heal: amount must be >= 0, got %d", amount))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health += amount
	if b.health > b.cfg.MaxHealth {
		b.health = b.cfg.MaxHealth
	}
}

// IsInAttackRange reports whether player is within AttackRange.
func (b *Behavior) IsInAttackRange(player geom.Vec2) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return geom.Distance(b.pos, player) <= b.cfg.AttackRange
}

// CanAttack reports whether the actor is aggressive and alive.
func (b *Behavior) CanAttack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateAggressive && b.health > 0
}

// Position returns the actor's current position.
func (b *Behavior) Position() geom.Vec2 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Health returns the actor's current health.
func (b *Behavior) Health() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

// State returns the actor's behavior state.
func (b *Behavior) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of every field of the actor.
//
// Postcondition: the returned PatrolRoute does not alias internal storage.
func (b *Behavior) Snapshot() Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Actor{
		ID:             b.id,
		Name:           b.cfg.Name,
		Position:       b.pos,
		Health:         b.health,
		MaxHealth:      b.cfg.MaxHealth,
		DetectionRange: b.cfg.DetectionRange,
		AttackRange:    b.cfg.AttackRange,
		Speed:          b.cfg.Speed,
		State:          b.state,
		PatrolRoute:    append([]geom.Vec2(nil), b.cfg.PatrolRoute...),
		WaypointIndex:  b.waypoint,
	}
}
