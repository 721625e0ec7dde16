// Application settings read from a TOML file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/raster"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// RGBA is a color as written in the config file, e.g. [255, 54, 76, 150]
type RGBA [4]int

// Color validates and converts the value
func (c RGBA) Color() (raster.Color, error) {
	return layers.NewColor(c[0], c[1], c[2], c[3])
}

type Config struct {
	Colors    Colors    `toml:"colors"`
	Threshold Threshold `toml:"threshold"`
	Brush     Brush     `toml:"brush"`
	Save      Save      `toml:"save"`
	Browse    Browse    `toml:"browse"`
}

type Colors struct {
	Annotation    RGBA `toml:"annotation"`
	Preannotation RGBA `toml:"preannotation"`
	PointFill     RGBA `toml:"point_fill"`
	PointFrame    RGBA `toml:"point_frame"`
}

// Threshold configures the preannotation slider. Slider steps map linearly
// from SliderMin to SliderMax, which may be in decreasing order.
type Threshold struct {
	DiscardP  float64 `toml:"discard_p"`
	SliderMin float64 `toml:"slider_min"`
	SliderMax float64 `toml:"slider_max"`
	Steps     int     `toml:"steps"`
	Normalize bool    `toml:"normalize"`
}

type Brush struct {
	Default int `toml:"default"`
	Max     int `toml:"max"`
}

type Save struct {
	PreannotationSuffix string `toml:"preannotation_suffix"`
	AnnotationSuffix    string `toml:"annotation_suffix"`
	PointsSuffix        string `toml:"points_suffix"`
	Overwrite           bool   `toml:"overwrite"`
}

type Browse struct {
	ImageExtensions []string `toml:"image_extensions"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Colors: Colors{
			Annotation:    RGBA{255, 54, 76, 150},
			Preannotation: RGBA{102, 214, 123, 100},
			PointFill:     RGBA{0, 0, 0, 100},
			PointFrame:    RGBA{0, 0, 0, 255},
		},
		Threshold: Threshold{
			DiscardP:  0.5,
			SliderMin: 1e-7,
			SliderMax: 1e-9,
			Steps:     400,
			Normalize: true,
		},
		Brush: Brush{
			Default: 100,
			Max:     200,
		},
		Save: Save{
			PreannotationSuffix: "_preannot.png",
			AnnotationSuffix:    "_annot.png",
			PointsSuffix:        "_points.json",
		},
		Browse: Browse{
			ImageExtensions: []string{".png", ".jpg", ".jpeg"},
		},
	}
}

// DefaultPath is config.toml under the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "secv-guis", "config.toml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults;
// unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	colors := map[string]RGBA{
		"colors.annotation":    c.Colors.Annotation,
		"colors.preannotation": c.Colors.Preannotation,
		"colors.point_fill":    c.Colors.PointFill,
		"colors.point_frame":   c.Colors.PointFrame,
	}
	for name, v := range colors {
		if _, err := v.Color(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}

	t := c.Threshold
	if t.Steps < 1 {
		return fmt.Errorf("%w: threshold.steps must be positive", ErrInvalidConfig)
	}
	if t.SliderMin <= 0 || t.SliderMax <= 0 {
		return fmt.Errorf("%w: threshold slider bounds must be positive", ErrInvalidConfig)
	}
	if top := max(t.SliderMin, t.SliderMax); t.DiscardP <= top || t.DiscardP > 1 {
		return fmt.Errorf("%w: threshold.discard_p must be in (%g, 1]", ErrInvalidConfig, top)
	}

	if c.Brush.Max < 1 || c.Brush.Default < 1 || c.Brush.Default > c.Brush.Max {
		return fmt.Errorf("%w: brush sizes must satisfy 1 <= default <= max", ErrInvalidConfig)
	}

	s := c.Save
	if s.PreannotationSuffix == "" || s.AnnotationSuffix == "" || s.PointsSuffix == "" {
		return fmt.Errorf("%w: save suffixes must not be empty", ErrInvalidConfig)
	}
	if len(c.Browse.ImageExtensions) == 0 {
		return fmt.Errorf("%w: browse.image_extensions must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Extensions returns the image extensions lower-cased and dot-prefixed
func (c Config) Extensions() []string {
	out := make([]string, 0, len(c.Browse.ImageExtensions))
	for _, e := range c.Browse.ImageExtensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
