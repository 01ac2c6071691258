// Package sim drives one encounter: it feeds the player position into the
// hostile registry each tick, turns weapon fire into hostile damage, turns
// hostile attacks into player damage, and completes the active mission once
// the area is clear.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/hostile"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
	"github.com/cory-johannsen/fireteam/internal/game/player"
	"github.com/cory-johannsen/fireteam/internal/game/weapon"
)

// ErrNoTarget is returned by FireAt when the target is missing or already dead.
var ErrNoTarget = errors.New("sim: no such live target")

// Options tunes the encounter rules that sit outside the core components.
type Options struct {
	// HostileDamage is the damage one hostile attack deals to the player.
	HostileDamage int
	// AttackInterval is the minimum time between two attacks by the same hostile.
	AttackInterval time.Duration
	// KillScore is awarded for each defeated hostile.
	KillScore int
}

// Report summarizes one Tick.
type Report struct {
	At               time.Time
	Player           player.State
	Alive            int
	Aggressive       int
	Attacks          int
	ReloadCompleted  bool
	MissionCompleted bool
}

// Resolved reports whether the encounter is over: the player is down or no hostiles remain.
func (r Report) Resolved() bool {
	return !r.Player.Alive() || r.Alive == 0
}

// FireReport describes the outcome of FireAt.
type FireReport struct {
	Result   weapon.FireResult
	Target   string
	Damage   int
	Defeated bool
	Recoil   geom.Vec2
}

// Loop owns one encounter. All methods are safe for concurrent use, but Tick and
// FireAt are expected to be driven from a single goroutine.
//
// The weapon is authoritative for firing. The store's Ammo/MaxAmmo is a HUD counter
// fixed at 30 rounds; SHOOT and RELOAD are mirrored into it, so with a magazine
// other than 30 the counter shows rounds the weapon does not hold.
type Loop struct {
	store    *player.Store
	registry *hostile.Registry
	weapon   *weapon.Weapon
	clk      clock.Clock
	logger   *zap.Logger
	opts     Options

	mu         sync.Mutex
	lastAttack map[string]time.Time
}

// NewLoop wires an encounter and equips w in the player store.
//
// Precondition: all arguments must be non-nil; opts.HostileDamage >= 0 and opts.KillScore >= 0.
func NewLoop(store *player.Store, registry *hostile.Registry, w *weapon.Weapon, clk clock.Clock, logger *zap.Logger, opts Options) *Loop {
	if store == nil || registry == nil || w == nil || clk == nil || logger == nil {
		panic("sim.NewLoop: store, registry, weapon, clock, and logger must be non-nil")
	}
	if opts.HostileDamage < 0 || opts.KillScore < 0 {
		panic("sim.NewLoop: HostileDamage and KillScore must be >= 0")
	}
	ps := store.Dispatch(player.EquipWeapon(w.Def().ID))
	if mag := w.Def().Stats.MagazineSize; mag != ps.MaxAmmo {
		logger.Warn("weapon magazine differs from the player ammo counter",
			zap.String("weapon", w.Def().ID),
			zap.Int("magazine_size", mag),
			zap.Int("max_ammo", ps.MaxAmmo),
		)
	}
	return &Loop{
		store:      store,
		registry:   registry,
		weapon:     w,
		clk:        clk,
		logger:     logger,
		opts:       opts,
		lastAttack: make(map[string]time.Time),
	}
}

// Tick advances the encounter by one step.
//
// Postcondition: a completed reload is mirrored into the store with RELOAD; every
// aggressive hostile in attack range whose AttackInterval has elapsed deals
// HostileDamage; the active mission is completed once no live hostiles remain.
func (l *Loop) Tick() Report {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	rep := Report{At: now}

	rep.ReloadCompleted = l.mirrorReloadLocked()

	ps := l.store.State()
	l.registry.UpdateAll(ps.Position)

	aggressive := l.registry.Aggressive()
	for _, a := range aggressive {
		if !ps.Alive() {
			break
		}
		b, ok := l.registry.Get(a.ID)
		if !ok || !b.CanAttack() || !b.IsInAttackRange(ps.Position) {
			continue
		}
		if last, ok := l.lastAttack[a.ID]; ok && now.Sub(last) < l.opts.AttackInterval {
			continue
		}
		l.lastAttack[a.ID] = now
		ps = l.store.Dispatch(player.TakeDamage(l.opts.HostileDamage))
		rep.Attacks++
		l.logger.Debug("hostile attack",
			zap.String("hostile", a.ID),
			zap.Int("damage", l.opts.HostileDamage),
			zap.Int("player_health", ps.Health),
		)
	}

	rep.Alive = len(l.registry.Alive())
	rep.Aggressive = len(aggressive)
	if rep.Alive == 0 && ps.HasMission() {
		completed := ps.CurrentMission
		ps = l.store.Dispatch(player.CompleteMission())
		rep.MissionCompleted = true
		l.logger.Info("mission complete",
			zap.String("mission", completed.ID),
			zap.String("title", completed.Title),
			zap.Int("reward", completed.Reward),
			zap.Int("score", ps.Score),
		)
	}
	rep.Player = ps
	return rep
}

// FireAt pulls the trigger at the hostile with id. A fired round is mirrored into
// the store with SHOOT and damages the target; a defeated target is removed and
// awards KillScore. An empty magazine starts a reload.
//
// Postcondition: returns ErrNoTarget (wrapped) without firing when id is not a live hostile.
func (l *Loop) FireAt(id string) (FireReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.registry.Get(id)
	if !ok || b.Health() <= 0 {
		return FireReport{}, fmt.Errorf("%w: %q", ErrNoTarget, id)
	}

	// An elapsed reload reaches the store before the shot.
	l.mirrorReloadLocked()

	rep := FireReport{Target: id, Result: l.weapon.Fire()}
	switch rep.Result {
	case weapon.Fired:
		l.store.Dispatch(player.Shoot())
		rep.Recoil = l.weapon.RecoilOffset()
		rep.Damage = l.weapon.CalculateDamage()
		rep.Defeated = b.TakeDamage(rep.Damage)
		if rep.Defeated {
			l.registry.Remove(id)
			delete(l.lastAttack, id)
			l.store.Dispatch(player.AddScore(l.opts.KillScore))
			l.logger.Info("hostile defeated", zap.String("hostile", id))
		}
	case weapon.Empty:
		if l.weapon.StartReload() == weapon.ReloadStarted {
			l.logger.Debug("auto reload")
		}
	}
	return rep, nil
}

// mirrorReloadLocked finalizes an elapsed reload and dispatches RELOAD for it.
// Caller must hold l.mu.
func (l *Loop) mirrorReloadLocked() bool {
	if !l.weapon.Tick() {
		return false
	}
	l.store.Dispatch(player.Reload())
	return true
}

// NearestTarget returns the closest live hostile within maxRange of the player.
func (l *Loop) NearestTarget(maxRange float64) (hostile.Actor, bool) {
	pos := l.store.State().Position
	best, found := hostile.Actor{}, false
	bestDist := math.Inf(1)
	for _, a := range l.registry.InRadius(pos, maxRange) {
		if d := geom.Distance(pos, a.Position); d < bestDist {
			best, bestDist, found = a, d, true
		}
	}
	return best, found
}

// AcceptMission requests a mission for the player's current level and position and
// makes it the current mission.
func (l *Loop) AcceptMission(ctx context.Context, provider mission.Provider) (mission.Mission, error) {
	ps := l.store.State()
	m, err := provider.Generate(ctx, mission.Request{PlayerLevel: ps.PlayerLevel, Coordinates: ps.Position})
	if err != nil {
		return mission.Mission{}, fmt.Errorf("accepting mission: %w", err)
	}
	l.store.Dispatch(player.SetMission(m))
	l.logger.Info("mission accepted",
		zap.String("mission", m.ID),
		zap.String("title", m.Title),
		zap.String("target", m.TargetNPC),
		zap.Int("reward", m.Reward),
	)
	return m, nil
}

// Store returns the player store driven by the loop.
func (l *Loop) Store() *player.Store { return l.store }

// Run calls Tick every interval of the loop's clock, then step with the report,
// until ctx is cancelled or the encounter is resolved.
//
// Precondition: interval > 0.
// Postcondition: returns the final report; err is ctx.Err() when cancelled first.
func (l *Loop) Run(ctx context.Context, interval time.Duration, step func(*Loop, Report)) (Report, error) {
	if interval <= 0 {
		panic("sim.Loop.Run: interval must be > 0")
	}
	ticker := l.clk.NewTicker(interval)
	defer ticker.Stop()

	var rep Report
	for {
		select {
		case <-ctx.Done():
			return rep, ctx.Err()
		case <-ticker.C():
			rep = l.Tick()
			if step != nil {
				step(l, rep)
			}
			if rep.Resolved() {
				return rep, nil
			}
		}
	}
}
