package hostile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/fireteam/internal/game/geom"
)

// PlacementKind selects how a template is spawned into the registry.
type PlacementKind string

const (
	// PlaceSingle spawns one actor at Placement.Position.
	PlaceSingle PlacementKind = "single"
	// PlaceGuard spawns one actor at the first waypoint of the patrol route.
	PlaceGuard PlacementKind = "guard"
	// PlaceSquad spawns Placement.Count actors around Placement.Position.
	PlaceSquad PlacementKind = "squad"
)

// Placement describes where a template's actors appear.
type Placement struct {
	Kind     PlacementKind `yaml:"kind"`
	Position geom.Vec2     `yaml:"position"`
	Count    int           `yaml:"count"`
}

// Template defines a hostile archetype loaded from YAML.
type Template struct {
	ID             string      `yaml:"id"`
	Name           string      `yaml:"name"`
	MaxHealth      int         `yaml:"max_health"`
	DetectionRange float64     `yaml:"detection_range"`
	AttackRange    float64     `yaml:"attack_range"`
	Speed          float64     `yaml:"speed"`
	PatrolRoute    []geom.Vec2 `yaml:"patrol_route"`
	Placement      Placement   `yaml:"placement"`
}

// Config returns the actor configuration described by the template.
func (t *Template) Config() Config {
	return Config{
		Name:           t.Name,
		MaxHealth:      t.MaxHealth,
		DetectionRange: t.DetectionRange,
		AttackRange:    t.AttackRange,
		Speed:          t.Speed,
		PatrolRoute:    append([]geom.Vec2(nil), t.PatrolRoute...),
	}
}

// Validate checks that the template satisfies basic invariants. An empty placement
// kind is treated as single.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Config() is valid, and the
// placement is consistent with its kind.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("hostile template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("hostile template %q: name must not be empty", t.ID)
	}
	if err := t.Config().Validate(); err != nil {
		return fmt.Errorf("hostile template %q: %w", t.ID, err)
	}
	switch t.Placement.Kind {
	case "", PlaceSingle:
	case PlaceGuard:
		if len(t.PatrolRoute) == 0 {
			return fmt.Errorf("hostile template %q: guard placement requires a patrol_route", t.ID)
		}
	case PlaceSquad:
		if t.Placement.Count < 1 {
			return fmt.Errorf("hostile template %q: squad placement requires count >= 1", t.ID)
		}
	default:
		return fmt.Errorf("hostile template %q: unknown placement kind %q", t.ID, t.Placement.Kind)
	}
	return nil
}

// LoadTemplateFromBytes parses a single hostile template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate failure.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading hostile dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// SpawnTemplate spawns tmpl according to its placement.
//
// Precondition: tmpl must satisfy Validate().
// Postcondition: Returns the spawned actors or the first spawn error.
func (r *Registry) SpawnTemplate(tmpl *Template) ([]*Behavior, error) {
	cfg := tmpl.Config()
	switch tmpl.Placement.Kind {
	case PlaceGuard:
		b, err := r.SpawnPatrolGuard(tmpl.ID, cfg.PatrolRoute, cfg)
		if err != nil {
			return nil, err
		}
		return []*Behavior{b}, nil
	case PlaceSquad:
		return r.SpawnSquad(tmpl.ID, tmpl.Placement.Position, tmpl.Placement.Count, cfg)
	default:
		b, err := r.Spawn(tmpl.ID, tmpl.Placement.Position, cfg)
		if err != nil {
			return nil, err
		}
		return []*Behavior{b}, nil
	}
}
