// Package platform describes the fixed device limits a tiling plan must fit.
package platform

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	ErrInvalidProfile = errors.New("invalid hardware profile")
	ErrUnknownPreset  = errors.New("unknown hardware preset")
)

// Profile is the set of device limits the tiling engine plans against.
//
// Profiles are read-only and may be shared across any number of planning
// calls.
//   - UnitCount: parallel compute units a kernel may launch on
//   - FastMemBytes: capacity of the per-unit fast on-chip buffer
//   - CacheLineBytes: minimum slice a unit should own to avoid sharing lines
//   - VectorWidthBytes: vector register width, also the staging alignment unit
type Profile struct {
	Name             string `yaml:"name,omitempty" json:"name,omitempty"`
	UnitCount        int64  `yaml:"unit_count" json:"unit_count"`
	FastMemBytes     int64  `yaml:"fast_mem_bytes" json:"fast_mem_bytes"`
	CacheLineBytes   int64  `yaml:"cache_line_bytes" json:"cache_line_bytes"`
	VectorWidthBytes int64  `yaml:"vector_width_bytes" json:"vector_width_bytes"`
}

// Validate checks that every limit is positive.
func (p Profile) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"unit_count", p.UnitCount},
		{"fast_mem_bytes", p.FastMemBytes},
		{"cache_line_bytes", p.CacheLineBytes},
		{"vector_width_bytes", p.VectorWidthBytes},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return errors.Wrapf(ErrInvalidProfile, "%s must be positive, got %d", f.name, f.value)
		}
	}
	return nil
}

// Key returns a string identifying the limits, ignoring Name.
func (p Profile) Key() string {
	return fmt.Sprintf("u%d/m%d/c%d/v%d", p.UnitCount, p.FastMemBytes, p.CacheLineBytes, p.VectorWidthBytes)
}

// Arch35 returns limits of a 64-unit device with a 240 KiB fast buffer.
func Arch35() Profile {
	return Profile{
		Name:             "arch35",
		UnitCount:        64,     // vector cores
		FastMemBytes:     245760, // 240 KiB unified buffer
		CacheLineBytes:   128,
		VectorWidthBytes: 256,
	}
}

// Arch22 returns limits of a 48-unit device with a 192 KiB fast buffer.
func Arch22() Profile {
	return Profile{
		Name:             "arch22",
		UnitCount:        48,
		FastMemBytes:     196608,
		CacheLineBytes:   512,
		VectorWidthBytes: 256,
	}
}

// Tiny returns a small profile that forces multi-loop plans on small
// shapes. Useful in tests and examples.
func Tiny() Profile {
	return Profile{
		Name:             "tiny",
		UnitCount:        4,
		FastMemBytes:     4096,
		CacheLineBytes:   64,
		VectorWidthBytes: 32,
	}
}

var presets = map[string]func() Profile{
	"arch35": Arch35,
	"arch22": Arch22,
	"tiny":   Tiny,
}

// Preset returns the named built-in profile.
func Preset(name string) (Profile, error) {
	f, ok := presets[name]
	if !ok {
		return Profile{}, errors.Wrapf(ErrUnknownPreset, "%q (known: %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames returns the built-in profile names, sorted.
func PresetNames() []string {
	names := lo.Keys(presets)
	sort.Strings(names)
	return names
}

// ParseProfile decodes a YAML profile and validates it.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Wrap(err, "decode profile")
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (Profile, error) {
	//nolint:gosec // G304: profile path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(err, "read profile")
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// Resolve returns a preset by name, or loads the file when no preset matches.
func Resolve(nameOrPath string) (Profile, error) {
	if p, err := Preset(nameOrPath); err == nil {
		return p, nil
	}
	return LoadProfile(nameOrPath)
}
