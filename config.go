package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration file
type Config struct {
	Addr                string      `yaml:"addr"`
	TickRate            int         `yaml:"tick_rate"`
	TuningPath          string      `yaml:"tuning_path"`
	DBPath              string      `yaml:"db_path"`
	ReplayDir           string      `yaml:"replay_dir"`
	JWTSecret           string      `yaml:"jwt_secret"`
	PredictionLeadTicks int         `yaml:"prediction_lead_ticks"`
	MaxProjectiles      int         `yaml:"max_projectiles"`
	World               WorldConfig `yaml:"world"`
	Arena               ArenaConfig `yaml:"arena"`
}

// ArenaConfig describes the tile arena the server simulates in
type ArenaConfig struct {
	Width     int            `yaml:"width"`
	Height    int            `yaml:"height"`
	Walls     []TileRect     `yaml:"walls,omitempty"`
	TuneZones []TuneZoneSpec `yaml:"tune_zones,omitempty"`
	Switches  []SwitchSpec   `yaml:"switches,omitempty"`
	Dummies   []DummySpec    `yaml:"dummies,omitempty"`
}

type TuneZoneSpec struct {
	Zone uint8    `yaml:"zone"`
	Rect TileRect `yaml:"rect"`
}

type SwitchSpec struct {
	Number int  `yaml:"number"`
	Team   int  `yaml:"team"`
	On     bool `yaml:"on"`
}

// DummySpec places a stationary character, useful as a target
type DummySpec struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Team int     `yaml:"team"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		Addr:                ":8080",
		TickRate:            DefaultTickSpeed,
		PredictionLeadTicks: 2,
		MaxProjectiles:      500,
		World:               WorldConfig{SvHit: true},
		Arena: ArenaConfig{
			Width:  64,
			Height: 48,
		},
	}
}

// LoadConfig reads a YAML config over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	return cfg, nil
}

// Normalize fills unset fields with defaults
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.TickRate == 0 {
		c.TickRate = def.TickRate
	}
	if c.MaxProjectiles == 0 {
		c.MaxProjectiles = def.MaxProjectiles
	}
	if c.Arena.Width == 0 {
		c.Arena.Width = def.Arena.Width
	}
	if c.Arena.Height == 0 {
		c.Arena.Height = def.Arena.Height
	}
}

// Validate rejects configurations the simulation cannot run
func (c Config) Validate() error {
	var errs []error
	if c.TickRate < 1 || c.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("tick_rate %d out of range 1..1000", c.TickRate))
	}
	if c.PredictionLeadTicks < 0 {
		errs = append(errs, fmt.Errorf("prediction_lead_ticks must be >= 0"))
	}
	if c.MaxProjectiles < 0 {
		errs = append(errs, fmt.Errorf("max_projectiles must be >= 0"))
	}
	if c.Arena.Width < 3 || c.Arena.Height < 3 {
		errs = append(errs, fmt.Errorf("arena %dx%d smaller than 3x3", c.Arena.Width, c.Arena.Height))
	}
	for _, s := range c.Arena.Switches {
		if s.Team < 0 || s.Team >= MaxTeams {
			errs = append(errs, fmt.Errorf("switch %d team %d out of range", s.Number, s.Team))
		}
	}
	return errors.Join(errs...)
}

// Build creates the arena's tile map
func (a ArenaConfig) Build() *TileMap {
	m := NewArena(a.Width, a.Height)
	for _, r := range a.Walls {
		m.FillSolid(r)
	}
	for _, z := range a.TuneZones {
		m.FillTune(z.Rect, z.Zone)
	}
	for _, s := range a.Switches {
		m.SetSwitch(s.Number, s.Team, s.On)
	}
	return m
}
