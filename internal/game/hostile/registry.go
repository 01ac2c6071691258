package hostile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/dice"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
)

const (
	// SquadRadius is the radius of the circle squad members are placed on.
	SquadRadius = 50.0
	// squadJitter is the ± fraction applied to squad member health and speed.
	squadJitter = 0.2
)

// ErrDuplicateID is returned when spawning an actor whose ID is already registered.
var ErrDuplicateID = errors.New("hostile: duplicate actor id")

// Registry tracks all live hostile actors by ID.
// All methods are safe for concurrent use.
type Registry struct {
	clk    clock.Clock
	src    dice.Source
	logger *zap.Logger

	mu     sync.RWMutex
	actors map[string]*Behavior
}

// NewRegistry creates an empty Registry.
//
// Precondition: clk, src, and logger must be non-nil.
func NewRegistry(clk clock.Clock, src dice.Source, logger *zap.Logger) *Registry {
	if clk == nil || src == nil || logger == nil {
		panic("hostile.NewRegistry: clk, src, and logger must be non-nil")
	}
	return &Registry{
		clk:    clk,
		src:    src,
		logger: logger,
		actors: make(map[string]*Behavior),
	}
}

// Spawn creates a new actor with the given id at pos.
//
// Precondition: id must be non-empty and not already registered; cfg must be valid.
// Postcondition: Returns the live Behavior, or ErrDuplicateID (wrapped) on collision.
func (r *Registry) Spawn(id string, pos geom.Vec2, cfg Config) (*Behavior, error) {
	if id == "" {
		return nil, errors.New("hostile.Registry.Spawn: id must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hostile.Registry.Spawn: actor %q: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actors[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	b := NewBehavior(id, pos, cfg, r.clk)
	r.actors[id] = b

	r.logger.Debug("hostile spawned",
		zap.String("id", id),
		zap.String("name", cfg.Name),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.String("state", string(b.State())),
	)
	return b, nil
}

// SpawnSquad places n actors evenly on a circle of SquadRadius around center. Each
// member's max health and speed are jittered by up to ±20% of cfg. Member IDs are
// "<prefix>-1" through "<prefix>-<n>".
//
// Precondition: n >= 1.
// Postcondition: either all n members are registered or none are.
func (r *Registry) SpawnSquad(prefix string, center geom.Vec2, n int, cfg Config) ([]*Behavior, error) {
	if n < 1 {
		return nil, fmt.Errorf("hostile.Registry.SpawnSquad: n must be >= 1, got %d", n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hostile.Registry.SpawnSquad: %w", err)
	}

	out := make([]*Behavior, 0, n)
	for i := 0; i < n; i++ {
		member := cfg
		member.MaxHealth = max(1, int(math.Round(float64(cfg.MaxHealth)*r.jitter())))
		member.Speed = cfg.Speed * r.jitter()

		angle := 2 * math.Pi * float64(i) / float64(n)
		pos := geom.OnCircle(center, SquadRadius, angle)

		b, err := r.Spawn(fmt.Sprintf("%s-%d", prefix, i+1), pos, member)
		if err != nil {
			for _, spawned := range out {
				r.Remove(spawned.ID())
			}
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Registry) jitter() float64 {
	return 1 - squadJitter + 2*squadJitter*r.src.Float64()
}

// SpawnPatrolGuard spawns an actor walking route, starting at its first waypoint.
//
// Precondition: route must be non-empty.
// Postcondition: the actor starts in StatePatrol at route[0].
func (r *Registry) SpawnPatrolGuard(id string, route []geom.Vec2, cfg Config) (*Behavior, error) {
	if len(route) == 0 {
		return nil, fmt.Errorf("hostile.Registry.SpawnPatrolGuard: actor %q: route must not be empty", id)
	}
	cfg.PatrolRoute = route
	return r.Spawn(id, route[0], cfg)
}

// Remove deletes the actor with id.
//
// Postcondition: returns false if no such actor exists.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[id]; !ok {
		return false
	}
	delete(r.actors, id)
	r.logger.Debug("hostile removed", zap.String("id", id))
	return true
}

// Get returns the live actor with id.
//
// Postcondition: Returns (b, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id string) (*Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.actors[id]
	return b, ok
}

// Len returns the number of registered actors, dead or alive.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}

// UpdateAll advances every actor given the player's position. Actors only read the
// supplied position and their own state, so the iteration order is irrelevant.
func (r *Registry) UpdateAll(player geom.Vec2) {
	for _, b := range r.behaviors() {
		before := b.State()
		after := b.Update(player)
		if before != after {
			r.logger.Debug("hostile state change",
				zap.String("id", b.ID()),
				zap.String("from", string(before)),
				zap.String("to", string(after)),
			)
		}
	}
}

// All returns snapshots of every actor ordered by ID.
func (r *Registry) All() []Actor {
	return r.filter(func(Actor) bool { return true })
}

// Alive returns snapshots of actors with health > 0.
func (r *Registry) Alive() []Actor {
	return r.filter(Actor.Alive)
}

// Aggressive returns snapshots of alive actors in StateAggressive.
func (r *Registry) Aggressive() []Actor {
	return r.filter(func(a Actor) bool { return a.Alive() && a.State == StateAggressive })
}

// InRadius returns snapshots of alive actors whose distance to center is <= radius.
func (r *Registry) InRadius(center geom.Vec2, radius float64) []Actor {
	return r.filter(func(a Actor) bool {
		return a.Alive() && geom.Distance(a.Position, center) <= radius
	})
}

func (r *Registry) filter(keep func(Actor) bool) []Actor {
	bs := r.behaviors()
	out := make([]Actor, 0, len(bs))
	for _, b := range bs {
		if a := b.Snapshot(); keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// behaviors returns the live behaviors ordered by ID.
func (r *Registry) behaviors() []*Behavior {
	r.mu.RLock()
	out := make([]*Behavior, 0, len(r.actors))
	for _, b := range r.actors {
		out = append(out, b)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
