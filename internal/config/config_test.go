package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/tiles"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 3, cfg.MinLength)
	require.Equal(t, 6, cfg.MaxLength)
	require.Equal(t, scoring.DefaultPolicy(), cfg.Policy)
}

func TestLoadINI(t *testing.T) {
	cfg, err := LoadINI(strings.NewReader(`
[tiles]
1 = a, t
2 = c b

[puzzle]
min_length = 2
max_length = 5
min_pattern_words = 4
workers = 2

[thresholds]
good = 0.30
better = 0.50
best = 0.80

[pocketbase]
url = https://pb.example.com
collection = daily
`))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MinLength)
	require.Equal(t, 5, cfg.MaxLength)
	require.Equal(t, 4, cfg.MinPatternWords)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, scoring.Policy{Good: 0.30, Better: 0.50, Best: 0.80}, cfg.Policy)
	require.Equal(t, "https://pb.example.com", cfg.PocketBase.URL)
	require.Equal(t, "daily", cfg.PocketBase.Collection)

	m, err := cfg.TileMap()
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())
	v, ok := m.ValueOf('b')
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestLoadINIConflict(t *testing.T) {
	_, err := LoadINI(strings.NewReader("[tiles]\n1 = b d p\n3 = g p\n"))
	require.True(t, errors.Is(err, ErrInvalid))
	require.True(t, errors.Is(err, tiles.ErrTileConflict))
}

func TestLoadINIBadValues(t *testing.T) {
	cases := map[string]string{
		"tile key":  "[tiles]\none = a\n",
		"int":       "[puzzle]\nmin_length = three\n",
		"float":     "[thresholds]\ngood = lots\n",
		"range":     "[puzzle]\nmin_length = 6\nmax_length = 3\n",
		"policy":    "[thresholds]\ngood = 0.9\nbetter = 0.5\n",
		"min words": "[puzzle]\nmin_pattern_words = 0\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadINI(strings.NewReader(in))
			require.True(t, errors.Is(err, ErrInvalid), "%v", err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SHADOWGRAMS_MAX_LENGTH":     "5",
		"SHADOWGRAMS_THRESHOLD_BEST": "0.8",
		"SHADOWGRAMS_LOG_LEVEL":      "debug",
		"POCKETBASE_EMAIL":           "admin@example.com",
		"POCKETBASE_PASSWORD":        "secret",
		"SHADOWGRAMS_WORKERS":        " ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	workers := cfg.Workers
	require.NoError(t, cfg.ApplyEnv(lookup))
	require.Equal(t, 5, cfg.MaxLength)
	require.Equal(t, 0.8, cfg.Policy.Best)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "admin@example.com", cfg.PocketBase.Email)
	require.Equal(t, "secret", cfg.PocketBase.Password)
	require.Equal(t, workers, cfg.Workers)

	env["SHADOWGRAMS_MIN_LENGTH"] = "x"
	require.True(t, errors.Is(Default().ApplyEnv(lookup), ErrInvalid))
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "shadowgrams.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte("[puzzle]\nmax_length = 5\nmin_pattern_words = 2\n"), 0o644))
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("SHADOWGRAMS_MIN_PATTERN_WORDS=3\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SHADOWGRAMS_MIN_PATTERN_WORDS") })

	cfg, err := Load(iniPath, envPath)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxLength)
	require.Equal(t, 3, cfg.MinPatternWords)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.ini"))
	require.Error(t, err)

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 6, cfg.MaxLength)
}
