// Package mission defines mission values and the provider contract used to
// obtain them, including the local fallback applied when generation fails.
package mission

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/fireteam/internal/game/geom"
)

// Mission is an objective offered to the player. It is immutable once built.
type Mission struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Objective string `json:"objective"`
	Reward    int    `json:"reward"`
	TargetNPC string `json:"targetNPC"`
}

// Validate checks that m is usable.
//
// Postcondition: Returns nil iff ID, Title, and Objective are non-empty and Reward >= 0.
func (m Mission) Validate() error {
	var errs []error
	if m.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if m.Title == "" {
		errs = append(errs, errors.New("title must not be empty"))
	}
	if m.Objective == "" {
		errs = append(errs, errors.New("objective must not be empty"))
	}
	if m.Reward < 0 {
		errs = append(errs, fmt.Errorf("reward must be >= 0, got %d", m.Reward))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("mission %q: %w", m.ID, err)
	}
	return nil
}

// Request is the input to a Provider.
type Request struct {
	PlayerLevel int       `json:"playerLevel"`
	Coordinates geom.Vec2 `json:"coordinates"`
}

// Validate checks that the request is well formed.
func (r Request) Validate() error {
	if r.PlayerLevel < 1 {
		return fmt.Errorf("mission request: player level must be >= 1, got %d", r.PlayerLevel)
	}
	return nil
}

// Provider supplies missions for a player.
type Provider interface {
	// Generate returns a mission for req.
	//
	// Postcondition: Returns a Mission or a non-nil error.
	Generate(ctx context.Context, req Request) (Mission, error)
}
