// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(10), cfg.Gesture.Slop)
	assert.Equal(t, 250*time.Millisecond, cfg.Gesture.Delay)
	assert.Equal(t, 256, cfg.Server.MaxTargets)
	assert.Equal(t, "defaults", cfg.Source)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[gesture]
slop  = 12.5
delay = 300ms

[server]
addr         = 0.0.0.0:9000
max_targets  = 8
allow_origin = true

[log]
level  = debug
format = json
`))
	require.NoError(t, err)
	assert.Equal(t, float32(12.5), cfg.Gesture.Slop)
	assert.Equal(t, 300*time.Millisecond, cfg.Gesture.Delay)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Server.MaxTargets)
	assert.True(t, cfg.Server.AllowOrigin)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	tap := cfg.SingleTap()
	assert.Equal(t, float32(12.5), tap.Slop)
	assert.Equal(t, 300*time.Millisecond, tap.Delay)
}

func TestParsePartial(t *testing.T) {
	cfg, err := Parse([]byte("[gesture]\ndelay = 1s\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Gesture.Delay)
	assert.Equal(t, Default().Gesture.Slop, cfg.Gesture.Slop)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestParseInvalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		src     string
		invalid bool
	}{
		{"bad slop", "[gesture]\nslop = wide\n", false},
		{"bad delay", "[gesture]\ndelay = soon\n", false},
		{"bad targets", "[server]\nmax_targets = many\n", false},
		{"negative slop", "[gesture]\nslop = -1\n", true},
		{"zero delay", "[gesture]\ndelay = 0s\n", true},
		{"zero targets", "[server]\nmax_targets = 0\n", true},
		{"log level", "[log]\nlevel = loud\n", true},
		{"log format", "[log]\nformat = xml\n", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.Error(t, err)
			assert.Equal(t, tc.invalid, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "touchd.ini")
	require.NoError(t, os.WriteFile(path, []byte("[gesture]\nslop = 20\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(20), cfg.Gesture.Slop)
	assert.Equal(t, path, cfg.Source)

	_, err = Load(filepath.Join(dir, "missing.ini"))
	assert.Error(t, err)
}
