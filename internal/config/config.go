// Package config loads inputcore configuration from TOML: logging level,
// processor mode and event prefixes, and named device profile presets. The
// watcher reloads the file on change so interaction tuning does not require
// a restart.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/logging"
	"github.com/dshills/inputcore/internal/processor"
)

// Config is the root configuration document.
type Config struct {
	Logging   Logging                  `toml:"logging"`
	Processor Proc                     `toml:"processor"`
	Profiles  map[string]ProfilePreset `toml:"profiles"`
}

// Logging configures the logger.
type Logging struct {
	// Level is debug, info, warn, error or fatal.
	Level string `toml:"level"`
}

// Proc configures the interaction processor.
type Proc struct {
	// Mode is one of no_legacy, legacy_events, legacy_events_and_logic or
	// no_events.
	Mode string `toml:"mode"`

	// Source is stamped into event metadata.
	Source string `toml:"source"`

	// PrimaryDevice names the device treated as primary for legacy events:
	// hmd, mouse, keyboard, controller, controller2 or hand.
	PrimaryDevice string `toml:"primary_device"`

	// Prefixes maps device names to event prefixes.
	Prefixes map[string]string `toml:"prefixes"`
}

// ProfilePreset is a declarative device profile.
type ProfilePreset struct {
	Buttons     int            `toml:"buttons"`
	Joysticks   int            `toml:"joysticks"`
	Eyes        int            `toml:"eyes"`
	PositionDof string         `toml:"position_dof"`
	RotationDof string         `toml:"rotation_dof"`
	Scroll      bool           `toml:"scroll"`
	Battery     bool           `toml:"battery"`
	LongPressMs int            `toml:"long_press_ms"`
	Touchpads   []TouchpadSpec `toml:"touchpads"`
}

// TouchpadSpec describes one touchpad in a preset.
type TouchpadSpec struct {
	Gestures bool    `toml:"gestures"`
	WidthCm  float64 `toml:"width_cm"`
	HeightCm float64 `toml:"height_cm"`
}

// Default returns the configuration used when no file is present: a mouse
// and a touchpad controller with current-mode events.
func Default() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Processor: Proc{
			Mode:          "no_legacy",
			Source:        "inputcore",
			PrimaryDevice: "controller",
			Prefixes:      map[string]string{},
		},
		Profiles: map[string]ProfilePreset{
			"mouse": {
				Buttons:     3,
				Scroll:      true,
				PositionDof: "real",
			},
			"controller": {
				Buttons:     3,
				PositionDof: "fake",
				RotationDof: "real",
				LongPressMs: 500,
				Touchpads:   []TouchpadSpec{{WidthCm: 5, HeightCm: 5}},
			},
		},
	}
}

// Load reads a TOML configuration file over the defaults and validates the
// enumerated fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults, for callers holding the
// bytes already.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated fields without applying anything.
func (c Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.PrimaryDevice(); err != nil {
		return err
	}
	for name := range c.Processor.Prefixes {
		if _, err := ParseDevice(name); err != nil {
			return err
		}
	}
	for name, preset := range c.Profiles {
		if err := preset.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p ProfilePreset) validate(name string) error {
	if p.Buttons < 0 || p.Joysticks < 0 || p.Eyes < 0 || p.LongPressMs < 0 {
		return fmt.Errorf("config: profile %q has negative counts", name)
	}
	for _, dof := range []string{p.PositionDof, p.RotationDof} {
		switch dof {
		case "", "none", "fake", "real":
		default:
			return fmt.Errorf("config: profile %q has unknown dof %q", name, dof)
		}
	}
	return nil
}

// Level returns the configured logging level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// Mode parses the processor mode.
func (c Config) Mode() (processor.Mode, error) {
	switch c.Processor.Mode {
	case "", "no_legacy":
		return processor.NoLegacy, nil
	case "legacy_events":
		return processor.LegacyEvents, nil
	case "legacy_events_and_logic":
		return processor.LegacyEventsAndLogic, nil
	case "no_events":
		return processor.NoEvents, nil
	default:
		return 0, fmt.Errorf("config: unknown processor mode %q", c.Processor.Mode)
	}
}

// PrimaryDevice parses the primary device name.
func (c Config) PrimaryDevice() (device.Type, error) {
	return ParseDevice(c.Processor.PrimaryDevice)
}

// Apply pushes the processor-facing settings onto p: mode is fixed at
// construction, but primary device and prefixes are live.
func (c Config) Apply(p *processor.Processor) error {
	primary, err := c.PrimaryDevice()
	if err != nil {
		return err
	}
	p.SetPrimaryDevice(primary)
	for name, prefix := range c.Processor.Prefixes {
		d, err := ParseDevice(name)
		if err != nil {
			return err
		}
		p.SetDevicePrefix(d, prefix)
	}
	return nil
}

// ParseDevice maps a configuration device name to its type.
func ParseDevice(name string) (device.Type, error) {
	switch name {
	case "hmd":
		return device.HMD, nil
	case "mouse":
		return device.Mouse, nil
	case "keyboard":
		return device.Keyboard, nil
	case "", "controller":
		return device.Controller, nil
	case "controller2":
		return device.Controller2, nil
	case "hand":
		return device.Hand, nil
	default:
		return device.MaxTypes, fmt.Errorf("config: unknown device %q", name)
	}
}

// Profile converts a preset into a device profile.
func (p ProfilePreset) Profile(name string) device.Profile {
	out := device.Profile{
		Name:          name,
		NumButtons:    p.Buttons,
		NumJoysticks:  p.Joysticks,
		NumEyes:       p.Eyes,
		HasScroll:     p.Scroll,
		HasBattery:    p.Battery,
		PositionDof:   parseDof(p.PositionDof),
		RotationDof:   parseDof(p.RotationDof),
		LongPressTime: time.Duration(p.LongPressMs) * time.Millisecond,
	}
	for _, tp := range p.Touchpads {
		out.Touchpads = append(out.Touchpads, device.TouchpadProfile{
			HasGestures: tp.Gestures,
			SizeCm:      r2.Vec{X: tp.WidthCm, Y: tp.HeightCm},
		})
	}
	return out
}

func parseDof(s string) device.DofType {
	switch s {
	case "fake":
		return device.DofFake
	case "real":
		return device.DofReal
	default:
		return device.DofUnavailable
	}
}
