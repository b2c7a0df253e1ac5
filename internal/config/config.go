// Package config loads spellchain settings from an optional TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, SPELLCHAIN_*
// environment variables, then command-line flags applied by the caller.
//
// Example file:
//
//	delete_delay  = "400ms"
//	stagger_step  = "100ms"
//	node_offset_x = 300
//	origin_x      = 50
//	origin_y      = 200
//	listen        = "127.0.0.1:8080"
//	log_level     = "info"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/spellchain/pkg/chain"
	errs "github.com/matzehuels/spellchain/pkg/errors"
)

const appName = "spellchain"

// Environment variables that override file values.
const (
	EnvDeleteDelay = "SPELLCHAIN_DELETE_DELAY"
	EnvStaggerStep = "SPELLCHAIN_STAGGER_STEP"
	EnvListen      = "SPELLCHAIN_LISTEN"
)

// DefaultListen is the serve command's default address.
const DefaultListen = "127.0.0.1:8080"

// Duration is a time.Duration that decodes from strings such as "400ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every tunable setting.
type Config struct {
	DeleteDelay Duration `toml:"delete_delay"`
	StaggerStep Duration `toml:"stagger_step"`
	NodeOffsetX float64  `toml:"node_offset_x"`
	OriginX     float64  `toml:"origin_x"`
	OriginY     float64  `toml:"origin_y"`
	Listen      string   `toml:"listen"`
	LogLevel    string   `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DeleteDelay: Duration{chain.DefaultDeleteDelay},
		StaggerStep: Duration{chain.DefaultStaggerStep},
		NodeOffsetX: chain.DefaultNodeOffset,
		OriginX:     chain.DefaultOrigin.X,
		OriginY:     chain.DefaultOrigin.Y,
		Listen:      DefaultListen,
		LogLevel:    "info",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/spellchain/config.toml, falling back
// to ~/.config/spellchain/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path and applies environment overrides.
// An empty path selects DefaultPath, which may be absent; an explicit path
// must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return finish(cfg)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = parse(cfg, data); err != nil {
			return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config %s", path)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config")
	}
	return finish(cfg)
}

// Parse decodes TOML data over the defaults. Environment overrides are not
// applied.
func Parse(data []byte) (Config, error) {
	cfg, err := parse(Default(), data)
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(base Config, data []byte) (Config, error) {
	md, err := toml.Decode(string(data), &base)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return base, nil
}

func finish(cfg Config) (Config, error) {
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	for _, o := range []struct {
		name string
		dst  *Duration
	}{
		{EnvDeleteDelay, &c.DeleteDelay},
		{EnvStaggerStep, &c.StaggerStep},
	} {
		v := os.Getenv(o.name)
		if v == "" {
			continue
		}
		if err := o.dst.UnmarshalText([]byte(v)); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", o.name)
		}
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.DeleteDelay.Duration <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "delete_delay must be positive, got %s", c.DeleteDelay)
	case c.StaggerStep.Duration <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "stagger_step must be positive, got %s", c.StaggerStep)
	case c.NodeOffsetX <= 0:
		return errs.New(errs.ErrCodeInvalidConfig, "node_offset_x must be positive, got %g", c.NodeOffsetX)
	case c.Listen == "":
		return errs.New(errs.ErrCodeInvalidConfig, "listen must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "log_level")
	}
	return lvl, nil
}

// ChainOptions converts the settings into builder options. Scheduler, Logger
// and Context are left for the caller.
func (c Config) ChainOptions() chain.Options {
	return chain.Options{
		DeleteDelay: c.DeleteDelay.Duration,
		StaggerStep: c.StaggerStep.Duration,
		NodeOffset:  c.NodeOffsetX,
		Origin:      &chain.Position{X: c.OriginX, Y: c.OriginY},
	}
}
