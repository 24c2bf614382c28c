package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/velocity.report/internal/dealias"
)

// DefaultConfigPath is the path to the canonical dealiasing tuning
// defaults file. This is the single source of truth for all default
// engine parameters.
const DefaultConfigPath = "config/dealias.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// DealiasConfig mirrors dealias.Options but with pointer fields so a
// partial JSON document leaves unspecified parameters at their engine
// defaults instead of zeroing them out.
type DealiasConfig struct {
	IntervalSplits  *int     `json:"interval_splits,omitempty"`
	IntervalLimits  []float64 `json:"interval_limits,omitempty"`
	SkipBetweenRays *int     `json:"skip_between_rays,omitempty"`
	SkipAlongRay    *int     `json:"skip_along_ray,omitempty"`
	Centered        *bool    `json:"centered,omitempty"`
	RaysWrapAround  *bool    `json:"rays_wrap_around,omitempty"`
	KeepOriginal    *bool    `json:"keep_original,omitempty"`
}

func ptrInt(v int) *int   { return &v }
func ptrBool(v bool) *bool { return &v }

// EmptyDealiasConfig returns a DealiasConfig with all fields nil. Use
// LoadDealiasConfig to populate one from a JSON file.
func EmptyDealiasConfig() *DealiasConfig {
	return &DealiasConfig{}
}

// LoadDealiasConfig loads a DealiasConfig from a JSON file. The file must
// have a .json extension and be under maxConfigFileSize. Fields omitted
// from the JSON retain their Get* default. Callers taking a path from an
// untrusted source (e.g. a CLI flag) should validate it against an
// allowed directory with internal/security before calling this.
func LoadDealiasConfig(path string) (*DealiasConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDealiasConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical dealiasing defaults from
// DefaultConfigPath, searching common parent directories. Panics if the
// file cannot be found; intended for test setup.
func MustLoadDefaultConfig() *DealiasConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadDealiasConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set fields hold legal values. Nil fields are
// always valid since they defer to the engine default.
func (c *DealiasConfig) Validate() error {
	if c.IntervalSplits != nil && *c.IntervalSplits < 1 {
		return fmt.Errorf("interval_splits must be >= 1, got %d", *c.IntervalSplits)
	}
	if c.SkipBetweenRays != nil && *c.SkipBetweenRays < 0 {
		return fmt.Errorf("skip_between_rays must be non-negative, got %d", *c.SkipBetweenRays)
	}
	if c.SkipAlongRay != nil && *c.SkipAlongRay < 0 {
		return fmt.Errorf("skip_along_ray must be non-negative, got %d", *c.SkipAlongRay)
	}
	if len(c.IntervalLimits) == 1 {
		return fmt.Errorf("interval_limits must have at least 2 entries if set, got 1")
	}
	for i := 1; i < len(c.IntervalLimits); i++ {
		if c.IntervalLimits[i] <= c.IntervalLimits[i-1] {
			return fmt.Errorf("interval_limits must be strictly increasing: limits[%d]=%v <= limits[%d]=%v",
				i, c.IntervalLimits[i], i-1, c.IntervalLimits[i-1])
		}
	}
	return nil
}

// GetIntervalSplits returns interval_splits or the engine default.
func (c *DealiasConfig) GetIntervalSplits() int {
	if c.IntervalSplits == nil {
		return 3
	}
	return *c.IntervalSplits
}

// GetIntervalLimits returns the explicit interval limits override, or nil
// if none was set (meaning the caller should derive limits from
// GetIntervalSplits and the sweep's Nyquist velocity instead).
func (c *DealiasConfig) GetIntervalLimits() []float64 {
	return c.IntervalLimits
}

// GetSkipBetweenRays returns skip_between_rays or the engine default.
func (c *DealiasConfig) GetSkipBetweenRays() int {
	if c.SkipBetweenRays == nil {
		return 100
	}
	return *c.SkipBetweenRays
}

// GetSkipAlongRay returns skip_along_ray or the engine default.
func (c *DealiasConfig) GetSkipAlongRay() int {
	if c.SkipAlongRay == nil {
		return 100
	}
	return *c.SkipAlongRay
}

// GetCentered returns centered or the engine default (true).
func (c *DealiasConfig) GetCentered() bool {
	if c.Centered == nil {
		return true
	}
	return *c.Centered
}

// GetRaysWrapAround returns rays_wrap_around or the engine default (false).
func (c *DealiasConfig) GetRaysWrapAround() bool {
	if c.RaysWrapAround == nil {
		return false
	}
	return *c.RaysWrapAround
}

// GetKeepOriginal returns keep_original or the engine default (true).
func (c *DealiasConfig) GetKeepOriginal() bool {
	if c.KeepOriginal == nil {
		return true
	}
	return *c.KeepOriginal
}

// ToOptions builds a dealias.Options from the configured fields, layered
// over dealias.DefaultOptions for anything left unset.
func (c *DealiasConfig) ToOptions() dealias.Options {
	opts := dealias.DefaultOptions()
	opts.IntervalSplits = c.GetIntervalSplits()
	opts.IntervalLimits = c.GetIntervalLimits()
	opts.SkipBetweenRays = c.GetSkipBetweenRays()
	opts.SkipAlongRay = c.GetSkipAlongRay()
	opts.Centered = c.GetCentered()
	opts.RaysWrapAround = c.GetRaysWrapAround()
	opts.KeepOriginal = c.GetKeepOriginal()
	return opts
}
