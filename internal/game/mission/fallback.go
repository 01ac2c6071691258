package mission

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/fireteam/internal/game/dice"
)

type fallbackEntry struct {
	title     string
	objective string
	reward    int
	target    string
}

var fallbackTable = []fallbackEntry{
	{"Clear the Checkpoint", "Eliminate the hostiles holding the northern checkpoint.", 100, "Checkpoint Commander"},
	{"Supply Run", "Recover the supply crate from the abandoned depot and hold until extraction.", 80, "Depot Scavenger"},
	{"Silent Watch", "Take out the patrol guard before the alarm is raised.", 120, "Patrol Sergeant"},
	{"Break the Siege", "Push back the squad pinning down friendly forces at the bridge.", 150, "Siege Leader"},
	{"Recon Sweep", "Sweep the ridge line and neutralize any spotters.", 90, "Ridge Spotter"},
	{"High Value Target", "Locate and eliminate the enemy field officer.", 200, "Field Officer"},
}

// Fallback is a local Provider that never fails. It picks from a fixed table and
// scales the reward by player level.
type Fallback struct {
	src dice.Source
	ids func() string
}

// NewFallback returns a Fallback drawing entries from src.
//
// Precondition: src must be non-nil.
func NewFallback(src dice.Source) *Fallback {
	if src == nil {
		panic("mission.NewFallback: src must not be nil")
	}
	return &Fallback{src: src, ids: uuid.NewString}
}

// ScaleReward returns round(base × (1 + (level−1) × 0.2)).
//
// Precondition: level >= 1.
func ScaleReward(base, level int) int {
	return int(math.Round(float64(base) * (1 + float64(level-1)*0.2)))
}

// Generate returns a mission from the fallback table with a fresh unique id.
//
// Postcondition: the returned Mission satisfies Validate() and err is always nil.
func (f *Fallback) Generate(_ context.Context, req Request) (Mission, error) {
	level := max(req.PlayerLevel, 1)
	e := fallbackTable[f.src.Intn(len(fallbackTable))]
	return Mission{
		ID:        f.ids(),
		Title:     e.title,
		Objective: e.objective,
		Reward:    ScaleReward(e.reward, level),
		TargetNPC: e.target,
	}, nil
}

// TableSize returns the number of fallback entries.
func TableSize() int { return len(fallbackTable) }
