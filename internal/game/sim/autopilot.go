package sim

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/geom"
	"github.com/cory-johannsen/fireteam/internal/game/player"
)

// Autopilot returns a Run step that plays the encounter unattended: it fires at
// the nearest hostile within engageRange, and otherwise walks the player up to
// step units toward the nearest live hostile.
//
// Precondition: engageRange > 0; step >= 0.
func Autopilot(engageRange, step float64) func(*Loop, Report) {
	if engageRange <= 0 || step < 0 {
		panic("sim.Autopilot: engageRange must be > 0 and step >= 0")
	}
	return func(l *Loop, rep Report) {
		if rep.Resolved() {
			return
		}
		if target, ok := l.NearestTarget(engageRange); ok {
			fr, err := l.FireAt(target.ID)
			if err != nil && !errors.Is(err, ErrNoTarget) {
				l.logger.Warn("autopilot fire failed", zap.Error(err))
			}
			if fr.Result.OK() {
				l.logger.Debug("autopilot fired",
					zap.String("target", target.ID),
					zap.Int("damage", fr.Damage),
					zap.Bool("defeated", fr.Defeated),
				)
			}
			return
		}
		target, ok := l.NearestTarget(math.Inf(1))
		if !ok || step == 0 {
			return
		}
		pos := rep.Player.Position
		delta := geom.StepToward(pos, target.Position, step).Sub(pos)
		l.store.Dispatch(player.Move(delta.X, delta.Y))
	}
}
