package mission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fireteam/internal/game/dice"
	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/mission"
)

type providerFunc func(ctx context.Context, req mission.Request) (mission.Mission, error)

func (f providerFunc) Generate(ctx context.Context, req mission.Request) (mission.Mission, error) {
	return f(ctx, req)
}

func validMission() mission.Mission {
	return mission.Mission{ID: "m-1", Title: "Hold the Line", Objective: "Defend the gate.", Reward: 50, TargetNPC: "Warlord"}
}

func TestMission_Validate(t *testing.T) {
	assert.NoError(t, validMission().Validate())

	m := validMission()
	m.Reward = -1
	assert.Error(t, m.Validate())

	assert.Error(t, mission.Mission{}.Validate())
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, mission.Request{PlayerLevel: 1}.Validate())
	assert.Error(t, mission.Request{PlayerLevel: 0}.Validate())
}

func TestScaleReward(t *testing.T) {
	assert.Equal(t, 100, mission.ScaleReward(100, 1))
	assert.Equal(t, 120, mission.ScaleReward(100, 2))
	assert.Equal(t, 200, mission.ScaleReward(100, 6))
	// 90 × 1.4 = 126
	assert.Equal(t, 126, mission.ScaleReward(90, 3))
}

func TestFallback_TableHasAtLeastFiveEntries(t *testing.T) {
	assert.GreaterOrEqual(t, mission.TableSize(), 5)
}

func TestFallback_GeneratesValidUniqueMissions(t *testing.T) {
	fb := mission.NewFallback(dice.NewSeededSource(1))
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		m, err := fb.Generate(context.Background(), mission.Request{PlayerLevel: 3})
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		assert.False(t, seen[m.ID], "ids must be unique")
		seen[m.ID] = true
	}
}

func TestFallback_ScalesFirstEntryReward(t *testing.T) {
	fb := mission.NewFallback(dice.NewSequence(0))
	m, err := fb.Generate(context.Background(), mission.Request{PlayerLevel: 6})
	require.NoError(t, err)
	assert.Equal(t, "Clear the Checkpoint", m.Title)
	assert.Equal(t, 200, m.Reward)
}

// TestProperty_ScaleReward_Monotonic verifies reward never decreases with level.
func TestProperty_ScaleReward_Monotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(0, 10000).Draw(rt, "base")
		level := rapid.IntRange(1, 99).Draw(rt, "level")
		assert.GreaterOrEqual(rt, mission.ScaleReward(base, level+1), mission.ScaleReward(base, level))
		assert.GreaterOrEqual(rt, mission.ScaleReward(base, level), base)
	})
}

func TestResilient_PassesThroughValidMission(t *testing.T) {
	primary := providerFunc(func(context.Context, mission.Request) (mission.Mission, error) {
		return validMission(), nil
	})
	r := mission.NewResilient(primary, mission.NewFallback(dice.NewSequence(0)), time.Second, zaptest.NewLogger(t))
	m, err := r.Generate(context.Background(), mission.Request{PlayerLevel: 1, Coordinates: geom.Vec2{X: 1}})
	require.NoError(t, err)
	assert.Equal(t, validMission(), m)
}

func TestResilient_FallsBackOnError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	primary := providerFunc(func(context.Context, mission.Request) (mission.Mission, error) {
		return mission.Mission{}, errors.New("connection refused")
	})
	r := mission.NewResilient(primary, mission.NewFallback(dice.NewSequence(0)), time.Second, zap.New(core))
	m, err := r.Generate(context.Background(), mission.Request{PlayerLevel: 2})
	require.NoError(t, err)
	assert.Equal(t, "Clear the Checkpoint", m.Title)
	assert.Equal(t, 120, m.Reward)
	assert.Equal(t, 1, logs.FilterMessage("mission generation failed, using fallback").Len())
}

func TestResilient_FallsBackOnMalformedMission(t *testing.T) {
	primary := providerFunc(func(context.Context, mission.Request) (mission.Mission, error) {
		return mission.Mission{Title: "No id"}, nil
	})
	r := mission.NewResilient(primary, mission.NewFallback(dice.NewSequence(0)), time.Second, zap.NewNop())
	m, err := r.Generate(context.Background(), mission.Request{PlayerLevel: 1})
	require.NoError(t, err)
	assert.NoError(t, m.Validate())
	assert.NotEqual(t, "No id", m.Title)
}

func TestResilient_FallsBackOnTimeout(t *testing.T) {
	primary := providerFunc(func(ctx context.Context, _ mission.Request) (mission.Mission, error) {
		<-ctx.Done()
		return mission.Mission{}, ctx.Err()
	})
	r := mission.NewResilient(primary, mission.NewFallback(dice.NewSequence(0)), 10*time.Millisecond, zap.NewNop())
	m, err := r.Generate(context.Background(), mission.Request{PlayerLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, "Clear the Checkpoint", m.Title)
}

func TestResilient_RejectsInvalidRequest(t *testing.T) {
	called := false
	primary := providerFunc(func(context.Context, mission.Request) (mission.Mission, error) {
		called = true
		return validMission(), nil
	})
	r := mission.NewResilient(primary, mission.NewFallback(dice.NewSequence(0)), 0, zap.NewNop())
	_, err := r.Generate(context.Background(), mission.Request{PlayerLevel: 0})
	assert.Error(t, err)
	assert.False(t, called)
}
