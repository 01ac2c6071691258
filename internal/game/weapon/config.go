package weapon

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Clamp bounds applied to externally supplied weapon data.
const (
	minDamage       = 1
	maxDamage       = 200
	minFireRate     = 0.1
	maxFireRate     = 20
	minMagazine     = 1
	maxMagazine     = 100
	minReloadMillis = 500
	maxReloadMillis = 5000

	defaultName     = "Unknown Weapon"
	defaultCategory = CategoryRifle
)

// RawConfig is weapon data from an untrusted source such as a content file or a
// generation service. Missing numeric fields decode as zero and clamp to the minimum.
type RawConfig struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	Category     string  `yaml:"category" json:"category"`
	Damage       float64 `yaml:"damage" json:"damage"`
	FireRate     float64 `yaml:"fire_rate" json:"fireRate"`
	Recoil       float64 `yaml:"recoil" json:"recoil"`
	Spread       float64 `yaml:"spread" json:"spread"`
	MagazineSize float64 `yaml:"magazine_size" json:"magazineSize"`
	ReloadTimeMs float64 `yaml:"reload_time_ms" json:"reloadTime"`
}

// Clamp converts the raw data into a usable Def.
//
// Postcondition: the returned Def satisfies Validate(); damage in [1,200], fire rate in
// [0.1,20], recoil and spread in [0,1], magazine size = floor(value) in [1,100],
// reload time in [500,5000]ms; an empty name becomes "Unknown Weapon" and an empty or
// unrecognized category becomes rifle.
func (r RawConfig) Clamp() Def {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = defaultName
	}
	category, ok := ParseCategory(strings.ToLower(strings.TrimSpace(r.Category)))
	if !ok {
		category = defaultCategory
	}
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = slug(name)
	}
	if id == "" {
		id = "weapon"
	}
	reloadMs := clamp(r.ReloadTimeMs, minReloadMillis, maxReloadMillis)
	return Def{
		ID:       id,
		Name:     name,
		Category: category,
		Stats: Stats{
			Damage:       clamp(r.Damage, minDamage, maxDamage),
			FireRate:     clamp(r.FireRate, minFireRate, maxFireRate),
			Recoil:       clamp(r.Recoil, 0, 1),
			Spread:       clamp(r.Spread, 0, 1),
			MagazineSize: int(clamp(math.Floor(r.MagazineSize), minMagazine, maxMagazine)),
			ReloadTime:   time.Duration(reloadMs * float64(time.Millisecond)),
		},
	}
}

// clamp bounds v to [lo, hi]; NaN clamps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ParseDef decodes a single RawConfig from YAML bytes and clamps it.
//
// Postcondition: Returns a valid Def or a decode error.
func ParseDef(data []byte) (Def, error) {
	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Def{}, fmt.Errorf("parsing weapon YAML: %w", err)
	}
	return raw.Clamp(), nil
}

// LoadDefs reads all *.yaml files from dir, parses each as a RawConfig, and clamps it.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all clamped Defs or the first encountered error.
func LoadDefs(dir string) ([]Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("weapon.LoadDefs: cannot read directory %q: %w", dir, err)
	}

	var defs []Def
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("weapon.LoadDefs: cannot read file %q: %w", path, err)
		}
		def, err := ParseDef(data)
		if err != nil {
			return nil, fmt.Errorf("weapon.LoadDefs: %q: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
