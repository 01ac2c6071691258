package sim_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
	"github.com/cory-johannsen/fireteam/internal/game/dice"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/hostile"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
	"github.com/cory-johannsen/fireteam/internal/game/player"
	"github.com/cory-johannsen/fireteam/internal/game/sim"
	"github.com/cory-johannsen/fireteam/internal/game/weapon"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var opts = sim.Options{HostileDamage: 10, AttackInterval: time.Second, KillScore: 25}

func grunt() hostile.Config {
	return hostile.Config{Name: "Grunt", MaxHealth: 60, DetectionRange: 100, AttackRange: 20, Speed: 1}
}

type fixture struct {
	loop     *sim.Loop
	store    *player.Store
	registry *hostile.Registry
	weapon   *weapon.Weapon
	clk      *clock.Manual
}

func newFixture(t *testing.T, def weapon.Def) fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clk := clock.NewManual(epoch)
	src := dice.NewSequence(0.5)
	f := fixture{
		store:    player.NewStore(logger),
		registry: hostile.NewRegistry(clk, src, logger),
		weapon:   weapon.New(def, clk, src, logger),
		clk:      clk,
	}
	f.loop = sim.NewLoop(f.store, f.registry, f.weapon, clk, logger, opts)
	return f
}

func TestNewLoop_EquipsWeapon(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("sniper"))
	assert.Equal(t, "sniper", f.store.State().EquippedWeaponID)
}

func TestNewLoop_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() {
		sim.NewLoop(nil, nil, nil, nil, nil, opts)
	})
}

func TestTick_HostileAttackIsRateLimited(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 10}, grunt())
	require.NoError(t, err)

	rep := f.loop.Tick()
	assert.Equal(t, 1, rep.Attacks)
	assert.Equal(t, 1, rep.Aggressive)
	assert.Equal(t, 90, rep.Player.Health)

	f.clk.Advance(500 * time.Millisecond)
	rep = f.loop.Tick()
	assert.Equal(t, 0, rep.Attacks)
	assert.Equal(t, 90, rep.Player.Health)

	f.clk.Advance(500 * time.Millisecond)
	rep = f.loop.Tick()
	assert.Equal(t, 1, rep.Attacks)
	assert.Equal(t, 80, rep.Player.Health)
}

func TestTick_OutOfRangeHostileClosesIn(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 50}, grunt())
	require.NoError(t, err)

	rep := f.loop.Tick()
	assert.Equal(t, 0, rep.Attacks)
	assert.Equal(t, 1, rep.Aggressive)

	f.clk.Advance(500 * time.Millisecond)
	rep = f.loop.Tick()
	b, _ := f.registry.Get("grunt-1")
	assert.InDelta(t, 20.0, b.Position().X, 1e-9, "moves 60 units/s")
	assert.Equal(t, 1, rep.Attacks, "attacks once in range")
}

func TestFireAt_DefeatsTargetAndAwardsScore(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 200}, grunt())
	require.NoError(t, err)

	rep, err := f.loop.FireAt("grunt-1")
	require.NoError(t, err)
	assert.Equal(t, weapon.Fired, rep.Result)
	assert.Equal(t, 34, rep.Damage)
	assert.False(t, rep.Defeated)
	assert.InDelta(t, 0.0, rep.Recoil.X, 1e-9)
	assert.InDelta(t, -3.0, rep.Recoil.Y, 1e-9)

	rep, err = f.loop.FireAt("grunt-1")
	require.NoError(t, err)
	assert.Equal(t, weapon.Cooldown, rep.Result)
	assert.Zero(t, rep.Damage)

	f.clk.Advance(125 * time.Millisecond)
	rep, err = f.loop.FireAt("grunt-1")
	require.NoError(t, err)
	assert.Equal(t, weapon.Fired, rep.Result)
	assert.True(t, rep.Defeated)

	_, ok := f.registry.Get("grunt-1")
	assert.False(t, ok)
	ps := f.store.State()
	assert.Equal(t, 28, ps.Ammo)
	assert.Equal(t, 25, ps.Score)
}

func TestFireAt_ReloadElapsedBeforeTickIsMirroredFirst(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	cfg := grunt()
	cfg.MaxHealth = 100000
	_, err := f.registry.Spawn("bunker", geom.Vec2{X: 500}, cfg)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		rep, err := f.loop.FireAt("bunker")
		require.NoError(t, err)
		require.Equal(t, weapon.Fired, rep.Result, "shot %d", i+1)
		f.clk.Advance(125 * time.Millisecond)
	}
	rep, err := f.loop.FireAt("bunker")
	require.NoError(t, err)
	require.Equal(t, weapon.Empty, rep.Result)
	assert.Equal(t, 0, f.store.State().Ammo)

	f.clk.Advance(2500 * time.Millisecond)
	rep, err = f.loop.FireAt("bunker")
	require.NoError(t, err)
	require.Equal(t, weapon.Fired, rep.Result)
	assert.Equal(t, 29, f.store.State().Ammo)

	tick := f.loop.Tick()
	assert.False(t, tick.ReloadCompleted, "already mirrored by FireAt")
	assert.Equal(t, f.weapon.State().Ammo, tick.Player.Ammo)
	assert.Equal(t, 29, tick.Player.Ammo)
}

func TestNewLoop_WarnsWhenMagazineDiffersFromAmmoCounter(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	clk := clock.NewManual(epoch)
	src := dice.NewSequence(0.5)
	store := player.NewStore(logger)
	registry := hostile.NewRegistry(clk, src, logger)

	sim.NewLoop(store, registry, weapon.New(weapon.MustPreset("sniper"), clk, src, logger), clk, logger, opts)
	require.Equal(t, 1, logs.FilterMessage("weapon magazine differs from the player ammo counter").Len())
	entry := logs.All()[0]
	assert.Equal(t, int64(5), entry.ContextMap()["magazine_size"])
	assert.Equal(t, int64(30), entry.ContextMap()["max_ammo"])

	core, logs = observer.New(zapcore.WarnLevel)
	logger = zap.New(core)
	sim.NewLoop(player.NewStore(logger), registry, weapon.New(weapon.MustPreset("rifle"), clk, src, logger), clk, logger, opts)
	assert.Zero(t, logs.Len())
}

func TestFireAt_UnknownTarget(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.loop.FireAt("nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrNoTarget))
	assert.Equal(t, 30, f.weapon.State().Ammo, "no round spent")
}

func TestFireAt_EmptyStartsReloadAndTickCompletesIt(t *testing.T) {
	def := weapon.Def{
		ID:       "derringer",
		Name:     "Derringer",
		Category: weapon.CategoryPistol,
		Stats:    weapon.Stats{Damage: 10, FireRate: 10, MagazineSize: 1, ReloadTime: 500 * time.Millisecond},
	}
	f := newFixture(t, def)
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 200}, grunt())
	require.NoError(t, err)

	rep, err := f.loop.FireAt("grunt-1")
	require.NoError(t, err)
	require.Equal(t, weapon.Fired, rep.Result)
	assert.Equal(t, 29, f.store.State().Ammo)

	f.clk.Advance(100 * time.Millisecond)
	rep, err = f.loop.FireAt("grunt-1")
	require.NoError(t, err)
	assert.Equal(t, weapon.Empty, rep.Result)
	assert.True(t, f.weapon.State().Reloading)

	f.clk.Advance(500 * time.Millisecond)
	tick := f.loop.Tick()
	assert.True(t, tick.ReloadCompleted)
	assert.Equal(t, 30, tick.Player.Ammo)
	assert.False(t, f.loop.Tick().ReloadCompleted, "completion is reported once")
}

func TestAcceptMission_CompletesWhenAreaClear(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("sniper"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 500}, grunt())
	require.NoError(t, err)

	m, err := f.loop.AcceptMission(context.Background(), mission.NewFallback(dice.NewSequence(0)))
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 100, m.Reward)

	rep := f.loop.Tick()
	assert.False(t, rep.MissionCompleted)
	require.True(t, rep.Player.HasMission())

	require.True(t, f.registry.Remove("grunt-1"))
	rep = f.loop.Tick()
	assert.True(t, rep.MissionCompleted)
	assert.True(t, rep.Resolved())
	assert.False(t, rep.Player.HasMission())
	assert.Equal(t, 100, rep.Player.Score)
}

func TestAcceptMission_ProviderError(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.loop.AcceptMission(context.Background(), failingProvider{})
	require.Error(t, err)
	assert.False(t, f.store.State().HasMission())
}

type failingProvider struct{}

func (failingProvider) Generate(context.Context, mission.Request) (mission.Mission, error) {
	return mission.Mission{}, errors.New("offline")
}

func TestNearestTarget(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	for id, x := range map[string]float64{"a": 40, "b": 15, "c": 90} {
		_, err := f.registry.Spawn(id, geom.Vec2{X: x}, grunt())
		require.NoError(t, err)
	}

	a, ok := f.loop.NearestTarget(50)
	require.True(t, ok)
	assert.Equal(t, "b", a.ID)

	_, ok = f.loop.NearestTarget(10)
	assert.False(t, ok)
}

type runResult struct {
	rep sim.Report
	err error
}

// runOnManualClock runs the loop in the background and advances the manual clock
// one interval per poll until Run returns.
func runOnManualClock(t *testing.T, f fixture, ctx context.Context, step func(*sim.Loop, sim.Report)) runResult {
	t.Helper()
	const interval = 10 * time.Millisecond
	done := make(chan runResult, 1)
	go func() {
		rep, err := f.loop.Run(ctx, interval, step)
		done <- runResult{rep: rep, err: err}
	}()

	var res runResult
	require.Eventually(t, func() bool {
		f.clk.Advance(interval)
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)
	return res
}

func TestRun_StopsWhenResolved(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	var steps atomic.Int32
	res := runOnManualClock(t, f, context.Background(), func(*sim.Loop, sim.Report) { steps.Add(1) })
	require.NoError(t, res.err)
	assert.True(t, res.rep.Resolved())
	assert.Equal(t, int32(1), steps.Load())
	assert.True(t, res.rep.At.After(epoch), "ticks are stamped with the manual clock")
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 500}, grunt())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	res := runOnManualClock(t, f, ctx, func(*sim.Loop, sim.Report) { cancel() })
	assert.ErrorIs(t, res.err, context.Canceled)
}

func TestRun_AutopilotClearsArea(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 100}, grunt())
	require.NoError(t, err)

	res := runOnManualClock(t, f, context.Background(), sim.Autopilot(250, 2))
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.rep.Alive)
	assert.Equal(t, opts.KillScore, f.store.State().Score)
}

func TestAutopilot_ClosesDistanceThenFires(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	_, err := f.registry.Spawn("grunt-1", geom.Vec2{X: 300}, grunt())
	require.NoError(t, err)
	step := sim.Autopilot(250, 30)

	step(f.loop, f.loop.Tick())
	assert.InDelta(t, 30.0, f.store.State().Position.X, 1e-9, "walks toward the hostile")
	assert.Equal(t, 30, f.weapon.State().Ammo)

	step(f.loop, f.loop.Tick())
	assert.InDelta(t, 60.0, f.store.State().Position.X, 1e-9)

	step(f.loop, f.loop.Tick())
	assert.Equal(t, 29, f.weapon.State().Ammo, "in engage range, fires instead of moving")
	assert.InDelta(t, 60.0, f.store.State().Position.X, 1e-9)
}

func TestAutopilot_IdleWhenResolved(t *testing.T) {
	f := newFixture(t, weapon.MustPreset("rifle"))
	step := sim.Autopilot(250, 30)
	step(f.loop, f.loop.Tick())
	assert.Equal(t, geom.Vec2{}, f.store.State().Position)
}

func TestAutopilot_PanicsOnBadArgs(t *testing.T) {
	assert.Panics(t, func() { sim.Autopilot(0, 1) })
	assert.Panics(t, func() { sim.Autopilot(10, -1) })
}
