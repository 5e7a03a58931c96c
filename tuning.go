package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultLifetimeSeconds applies to kinds whose tuning carries no lifetime
const defaultLifetimeSeconds = 20

// TuningParams holds the physics constants of one tune zone
type TuningParams struct {
	GunCurvature     float64 `yaml:"gun_curvature"`
	GunSpeed         float64 `yaml:"gun_speed"`
	GunLifetime      float64 `yaml:"gun_lifetime"`
	ShotgunCurvature float64 `yaml:"shotgun_curvature"`
	ShotgunSpeed     float64 `yaml:"shotgun_speed"`
	ShotgunLifetime  float64 `yaml:"shotgun_lifetime"`
	GrenadeCurvature float64 `yaml:"grenade_curvature"`
	GrenadeSpeed     float64 `yaml:"grenade_speed"`
	GrenadeLifetime  float64 `yaml:"grenade_lifetime"`
}

// WeaponCurve is what a projectile needs from tuning: its trajectory constants and
// lifetime in seconds.
type WeaponCurve struct {
	Curvature float64
	Speed     float64
	Lifetime  float64
}

// DefaultTuning returns the stock constants
func DefaultTuning() TuningParams {
	return TuningParams{
		GunCurvature:     1.25,
		GunSpeed:         2200,
		GunLifetime:      2.0,
		ShotgunCurvature: 1.25,
		ShotgunSpeed:     2750,
		ShotgunLifetime:  0.20,
		GrenadeCurvature: 7.0,
		GrenadeSpeed:     1000,
		GrenadeLifetime:  2.0,
	}
}

// Tunings is the per-zone tuning table. Zone 0 always exists.
type Tunings struct {
	zones map[int]TuningParams
}

// NewTunings creates a table whose zone 0 is base
func NewTunings(base TuningParams) *Tunings {
	return &Tunings{zones: map[int]TuningParams{0: base}}
}

// SetZone overrides the constants of one zone
func (t *Tunings) SetZone(zone int, p TuningParams) {
	t.zones[zone] = p
}

// ForZone returns the zone's constants, or zone 0's for an unknown zone
func (t *Tunings) ForZone(zone int) TuningParams {
	if p, ok := t.zones[zone]; ok {
		return p
	}
	return t.zones[0]
}

// Curve looks up the trajectory constants for a kind in a zone
func (t *Tunings) Curve(kind WeaponKind, zone int) WeaponCurve {
	info := kind.info()
	if info.Curve == nil {
		return WeaponCurve{}
	}
	return info.Curve(t.ForZone(zone))
}

// tuningFile is the on-disk layout: a default block plus per-zone overrides.
// Zone blocks only need the fields they change.
type tuningFile struct {
	Default yaml.Node         `yaml:"default"`
	Zones   map[int]yaml.Node `yaml:"zones"`
}

// LoadTunings reads a tuning YAML file. An empty path yields the stock table.
func LoadTunings(path string) (*Tunings, error) {
	if path == "" {
		return NewTunings(DefaultTuning()), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTunings(raw)
}

// ParseTunings decodes tuning YAML
func ParseTunings(raw []byte) (*Tunings, error) {
	var f tuningFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("tuning.yaml: %w", err)
	}
	base := DefaultTuning()
	if !f.Default.IsZero() {
		if err := f.Default.Decode(&base); err != nil {
			return nil, fmt.Errorf("tuning.yaml default: %w", err)
		}
	}
	t := NewTunings(base)
	for zone, node := range f.Zones {
		if zone < 0 {
			return nil, fmt.Errorf("tuning.yaml: negative zone %d", zone)
		}
		p := base
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("tuning.yaml zone %d: %w", zone, err)
		}
		t.SetZone(zone, p)
	}
	return t, nil
}
