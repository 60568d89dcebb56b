package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			p, err := Preset(name)
			require.NoError(t, err)
			assert.NoError(t, p.Validate())
			assert.Equal(t, name, p.Name)
		})
	}
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("arch99")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestValidate_RejectsNonPositive(t *testing.T) {
	p := Arch35()
	p.CacheLineBytes = 0
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	assert.Contains(t, err.Error(), "cache_line_bytes")
}

func TestParseProfile(t *testing.T) {
	data := []byte(`
name: lab
unit_count: 8
fast_mem_bytes: 65536
cache_line_bytes: 64
vector_width_bytes: 32
`)
	p, err := ParseProfile(data)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "lab", UnitCount: 8, FastMemBytes: 65536, CacheLineBytes: 64, VectorWidthBytes: 32}, p)

	_, err = ParseProfile([]byte("unit_count: 8\n"))
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestResolve_FileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unit_count: 2\nfast_mem_bytes: 1024\ncache_line_bytes: 32\nvector_width_bytes: 32\n"), 0o600))

	p, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.UnitCount)

	p, err = Resolve("tiny")
	require.NoError(t, err)
	assert.Equal(t, Tiny(), p)
}

func TestKey_IgnoresName(t *testing.T) {
	a := Arch35()
	b := a
	b.Name = "renamed"
	assert.Equal(t, a.Key(), b.Key())
}
