package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for autocheck
type Config struct {
	Root       string           `mapstructure:"root"`
	StateDir   string           `mapstructure:"state_dir"`
	Extensions ExtensionsConfig `mapstructure:"extensions"`
	Ignore     IgnoreConfig     `mapstructure:"ignore"`
	Index      IndexConfig      `mapstructure:"index"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Checkers   CheckersConfig   `mapstructure:"checkers"`
}

// ExtensionsConfig lists the file extensions of the two asset families.
type ExtensionsConfig struct {
	Template []string `mapstructure:"template"`
	Document []string `mapstructure:"document"`
}

// IgnoreConfig controls .gitignore/.autocheckignore pruning during expansion.
type IgnoreConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// IndexConfig controls the .meta GUID index build.
type IndexConfig struct {
	Workers int `mapstructure:"workers"`
}

// WatchConfig controls `autocheck watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// CheckersConfig holds the values the built-in rules write.
type CheckersConfig struct {
	Canvas CanvasCheckerConfig `mapstructure:"canvas"`
	Image  ImageCheckerConfig  `mapstructure:"image"`
}

type CanvasCheckerConfig struct {
	ScaleMode           string  `mapstructure:"scale_mode"`
	ReferenceResolution Vector2 `mapstructure:"reference_resolution"`
}

type ImageCheckerConfig struct {
	Color Color `mapstructure:"color"`
}

type Vector2 struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

type Color struct {
	R float64 `mapstructure:"r"`
	G float64 `mapstructure:"g"`
	B float64 `mapstructure:"b"`
	A float64 `mapstructure:"a"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Root:     "Assets",
		StateDir: ".autocheck",
		Extensions: ExtensionsConfig{
			Template: []string{".prefab"},
			Document: []string{".unity"},
		},
		Ignore: IgnoreConfig{Enabled: false},
		Index:  IndexConfig{Workers: 8},
		Watch:  WatchConfig{Debounce: 500 * time.Millisecond},
		Checkers: CheckersConfig{
			Canvas: CanvasCheckerConfig{
				ScaleMode:           "ScaleWithScreenSize",
				ReferenceResolution: Vector2{X: 1024, Y: 768},
			},
			Image: ImageCheckerConfig{
				Color: Color{R: 0, G: 0, B: 1, A: 1},
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("extensions.template", d.Extensions.Template)
	v.SetDefault("extensions.document", d.Extensions.Document)
	v.SetDefault("ignore.enabled", d.Ignore.Enabled)
	v.SetDefault("index.workers", d.Index.Workers)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("checkers.canvas.scale_mode", d.Checkers.Canvas.ScaleMode)
	v.SetDefault("checkers.canvas.reference_resolution.x", d.Checkers.Canvas.ReferenceResolution.X)
	v.SetDefault("checkers.canvas.reference_resolution.y", d.Checkers.Canvas.ReferenceResolution.Y)
	v.SetDefault("checkers.image.color.r", d.Checkers.Image.Color.R)
	v.SetDefault("checkers.image.color.g", d.Checkers.Image.Color.G)
	v.SetDefault("checkers.image.color.b", d.Checkers.Image.Color.B)
	v.SetDefault("checkers.image.color.a", d.Checkers.Image.Color.A)
}

// LoadConfig loads configuration from defaults, config files in the
// working and home directories, and AUTOCHECK_* environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("autocheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("AUTOCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else if err := ValidateConfigFile(v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadProjectConfig loads the global configuration and overlays the first
// project file found in the working directory.
func LoadProjectConfig() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	for _, name := range []string{".autocheck.yaml", ".autocheck.yml", ".autocheck.json"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := overlayFile(cfg, name); err != nil {
			return nil, err
		}
		break
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with a single explicit config file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := overlayFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	if err := ValidateConfigFile(path); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config %s: %w", path, err)
	}
	return cfg.Validate()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipelines cannot run with.
func (c *Config) Validate() error {
	if len(c.Extensions.Template) == 0 && len(c.Extensions.Document) == 0 {
		return fmt.Errorf("config: no template or document extensions configured")
	}
	for _, ext := range append(append([]string{}, c.Extensions.Template...), c.Extensions.Document...) {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: extension %q must start with '.'", ext)
		}
	}
	for _, t := range c.Extensions.Template {
		for _, d := range c.Extensions.Document {
			if t == d {
				return fmt.Errorf("config: extension %q is both a template and a document extension", t)
			}
		}
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("config: index.workers must not be negative")
	}
	return nil
}

// SessionFile returns the path of the persisted session state.
func (c *Config) SessionFile() string {
	return filepath.Join(c.StateDir, "session.yaml")
}
