package weapon

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/dice"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
)

// FireResult is the outcome of a trigger pull.
type FireResult int

const (
	// Fired means a round was discharged.
	Fired FireResult = iota
	// Cooldown means the fire-rate gate has not elapsed since the last shot.
	Cooldown
	// Empty means the magazine has no rounds; callers play the empty-click cue.
	Empty
	// Reloading means a reload is in flight.
	Reloading
)

// OK reports whether a round was discharged.
func (r FireResult) OK() bool { return r == Fired }

// String returns a human-readable label.
func (r FireResult) String() string {
	switch r {
	case Fired:
		return "fired"
	case Cooldown:
		return "cooldown"
	case Empty:
		return "empty"
	case Reloading:
		return "reloading"
	default:
		return "unknown"
	}
}

// ReloadResult is the outcome of StartReload.
type ReloadResult int

const (
	// ReloadStarted means a new reload began.
	ReloadStarted ReloadResult = iota
	// ReloadInProgress means a reload was already running; nothing changed.
	ReloadInProgress
)

// String returns a human-readable label.
func (r ReloadResult) String() string {
	if r == ReloadStarted {
		return "started"
	}
	return "in progress"
}

// State is a snapshot of a Weapon's runtime fields.
type State struct {
	Ammo         int
	MagazineSize int
	Reloading    bool
	// LastFiredAt is zero until the first successful shot.
	LastFiredAt time.Time
	// ReloadReadyAt is zero unless Reloading.
	ReloadReadyAt time.Time
}

// Weapon is a live, equipped weapon instance.
// All methods are safe for concurrent use.
//
// Invariant: 0 <= ammo <= MagazineSize; Fire never discharges while reloading.
type Weapon struct {
	def    Def
	clk    clock.Clock
	src    dice.Source
	logger *zap.Logger

	mu        sync.Mutex
	ammo      int
	reloading bool
	readyAt   time.Time
	lastFired time.Time
	hasFired  bool
	completed bool
}

// New creates a fully loaded Weapon for def.
//
// Precondition: def must satisfy Validate(); clk, src, and logger must be non-nil.
// Postcondition: Ammo == MagazineSize and Reloading == false.
func New(def Def, clk clock.Clock, src dice.Source, logger *zap.Logger) *Weapon {
	if err := def.Validate(); err != nil {
		panic("weapon.New: " + err.Error())
	}
	if clk == nil || src == nil || logger == nil {
		panic("weapon.New: clk, src, and logger must be non-nil")
	}
	return &Weapon{
		def:    def,
		clk:    clk,
		src:    src,
		logger: logger.With(zap.String("weapon", def.ID)),
		ammo:   def.Stats.MagazineSize,
	}
}

// Def returns the weapon's definition.
func (w *Weapon) Def() Def { return w.def }

// Fire attempts to discharge one round.
//
// Postcondition: only a Fired result decrements ammo and records the fire time.
// Reloading, Cooldown, and Empty leave the weapon unchanged; gates are checked
// in that order.
func (w *Weapon) Fire() FireResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clk.Now()
	w.settleLocked(now)

	if w.reloading {
		return Reloading
	}
	if w.hasFired && now.Sub(w.lastFired) < w.def.Stats.FireInterval() {
		return Cooldown
	}
	if w.ammo == 0 {
		w.logger.Debug("empty magazine")
		return Empty
	}
	w.ammo--
	w.lastFired = now
	w.hasFired = true
	w.logger.Debug("fired", zap.Int("ammo", w.ammo))
	return Fired
}

// StartReload begins a reload. It is a no-op while a reload is already in flight.
//
// Postcondition: on ReloadStarted, Reloading is true and the magazine refills once
// ReloadTime has elapsed on the clock.
func (w *Weapon) StartReload() ReloadResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	res, _ := w.startReloadLocked()
	return res
}

func (w *Weapon) startReloadLocked() (ReloadResult, time.Time) {
	now := w.clk.Now()
	w.settleLocked(now)
	if w.reloading {
		return ReloadInProgress, w.readyAt
	}
	w.reloading = true
	w.readyAt = now.Add(w.def.Stats.ReloadTime)
	w.logger.Debug("reload started", zap.Time("ready_at", w.readyAt))
	return ReloadStarted, w.readyAt
}

// Tick finalizes a reload whose time has elapsed.
//
// Postcondition: returns true exactly once per completed reload, after which
// Ammo == MagazineSize and Reloading == false.
func (w *Weapon) Tick() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settleLocked(w.clk.Now())
	done := w.completed
	w.completed = false
	return done
}

// Reload starts a reload and waits for it to complete. When a reload is already in
// flight it returns immediately. Cancelling ctx stops the wait only; the reload still
// completes once its time elapses.
//
// Postcondition: on a nil return after starting, Ammo == MagazineSize and Reloading == false.
func (w *Weapon) Reload(ctx context.Context) error {
	w.mu.Lock()
	res, readyAt := w.startReloadLocked()
	wait := readyAt.Sub(w.clk.Now())
	w.mu.Unlock()

	if res == ReloadInProgress {
		return nil
	}
	select {
	case <-w.clk.After(wait):
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settleLocked(w.clk.Now())
	return nil
}

// settleLocked completes an elapsed reload. Caller must hold w.mu.
func (w *Weapon) settleLocked(now time.Time) {
	if !w.reloading || now.Before(w.readyAt) {
		return
	}
	w.ammo = w.def.Stats.MagazineSize
	w.reloading = false
	w.readyAt = time.Time{}
	w.completed = true
	w.logger.Debug("reload complete", zap.Int("ammo", w.ammo))
}

// CalculateDamage rolls the damage of one hit: round(Damage × (1 − r×Spread)).
//
// Postcondition: result <= round(Damage); spread never increases damage.
func (w *Weapon) CalculateDamage() int {
	s := w.def.Stats
	return int(math.Round(s.Damage * (1 - w.src.Float64()*s.Spread)))
}

// RecoilOffset rolls the reticle kick of one shot. X is symmetric around zero;
// Y is never positive, so recoil always pushes the reticle upward.
//
// Postcondition: |X| <= Recoil×5 and -Recoil×15 < Y <= 0.
func (w *Weapon) RecoilOffset() geom.Vec2 {
	r := w.def.Stats.Recoil
	return geom.Vec2{
		X: (w.src.Float64() - 0.5) * r * 10,
		Y: -w.src.Float64() * r * 15,
	}
}

// State returns a snapshot of the weapon's runtime fields.
func (w *Weapon) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settleLocked(w.clk.Now())
	return State{
		Ammo:          w.ammo,
		MagazineSize:  w.def.Stats.MagazineSize,
		Reloading:     w.reloading,
		LastFiredAt:   w.lastFired,
		ReloadReadyAt: w.readyAt,
	}
}
