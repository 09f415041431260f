// Package config loads generator settings from defaults, an INI file and the
// environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	ini "github.com/vaughan0/go-ini"

	"shadowgrams_gen_go/internal/classifier"
	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/tiles"
)

var ErrInvalid = errors.New("invalid configuration")

const envPrefix = "SHADOWGRAMS_"

type PocketBase struct {
	URL        string
	Email      string
	Password   string
	Collection string
}

type Config struct {
	Tiles           map[int][]string
	MinLength       int
	MaxLength       int
	MinPatternWords int
	Workers         int
	Policy          scoring.Policy
	LogLevel        string
	PocketBase      PocketBase
}

func Default() *Config {
	return &Config{
		Tiles:           tiles.DefaultGroups(),
		MinLength:       classifier.DefaultMinLength,
		MaxLength:       classifier.DefaultMaxLength,
		MinPatternWords: 1,
		Workers:         runtime.NumCPU(),
		Policy:          scoring.DefaultPolicy(),
		LogLevel:        "info",
		PocketBase: PocketBase{
			URL:        "http://127.0.0.1:8090",
			Collection: "puzzles",
		},
	}
}

// Load builds the configuration: defaults, then iniPath if not empty, then
// the environment after loading envFiles (a missing .env is not an error).
func Load(iniPath string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if iniPath != "" {
		f, err := ini.LoadFile(iniPath)
		if err != nil {
			return nil, fmt.Errorf("error loading config (%s): %w", iniPath, err)
		}
		if err := cfg.ApplyINI(f); err != nil {
			return nil, fmt.Errorf("%s: %w", iniPath, err)
		}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadINI parses INI text from r on top of the defaults.
func LoadINI(r io.Reader) (*Config, error) {
	f, err := ini.Load(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := cfg.ApplyINI(f); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyINI overrides fields from the [tiles], [puzzle], [thresholds] and
// [pocketbase] sections. A [tiles] section replaces the whole tile table.
func (c *Config) ApplyINI(f ini.File) error {
	if sec, ok := f["tiles"]; ok && len(sec) > 0 {
		groups := make(map[int][]string, len(sec))
		for k, v := range sec {
			tile, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				return fmt.Errorf("%w: tiles key %q is not a number", ErrInvalid, k)
			}
			groups[tile] = splitLetters(v)
		}
		c.Tiles = groups
	}

	get := func(section, key string) (string, bool) {
		v, ok := f.Get(section, key)
		return strings.TrimSpace(v), ok
	}
	var err error
	set := func(section, key string, apply func(string) error) {
		if err != nil {
			return
		}
		if v, ok := get(section, key); ok {
			if e := apply(v); e != nil {
				err = fmt.Errorf("%w: [%s] %s: %v", ErrInvalid, section, key, e)
			}
		}
	}
	set("puzzle", "min_length", intField(&c.MinLength))
	set("puzzle", "max_length", intField(&c.MaxLength))
	set("puzzle", "min_pattern_words", intField(&c.MinPatternWords))
	set("puzzle", "workers", intField(&c.Workers))
	set("thresholds", "good", floatField(&c.Policy.Good))
	set("thresholds", "better", floatField(&c.Policy.Better))
	set("thresholds", "best", floatField(&c.Policy.Best))
	set("log", "level", stringField(&c.LogLevel))
	set("pocketbase", "url", stringField(&c.PocketBase.URL))
	set("pocketbase", "collection", stringField(&c.PocketBase.Collection))
	return err
}

// ApplyEnv overrides fields from SHADOWGRAMS_* variables and the
// POCKETBASE_* credentials.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	fields := []struct {
		name  string
		apply func(string) error
	}{
		{envPrefix + "MIN_LENGTH", intField(&c.MinLength)},
		{envPrefix + "MAX_LENGTH", intField(&c.MaxLength)},
		{envPrefix + "MIN_PATTERN_WORDS", intField(&c.MinPatternWords)},
		{envPrefix + "WORKERS", intField(&c.Workers)},
		{envPrefix + "THRESHOLD_GOOD", floatField(&c.Policy.Good)},
		{envPrefix + "THRESHOLD_BETTER", floatField(&c.Policy.Better)},
		{envPrefix + "THRESHOLD_BEST", floatField(&c.Policy.Best)},
		{envPrefix + "LOG_LEVEL", stringField(&c.LogLevel)},
		{"POCKETBASE_URL", stringField(&c.PocketBase.URL)},
		{"POCKETBASE_EMAIL", stringField(&c.PocketBase.Email)},
		{"POCKETBASE_PASSWORD", stringField(&c.PocketBase.Password)},
		{"POCKETBASE_COLLECTION", stringField(&c.PocketBase.Collection)},
	}
	for _, f := range fields {
		v, ok := lookup(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := f.apply(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, f.name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MinLength < 1 || c.MaxLength < c.MinLength {
		return fmt.Errorf("%w: word length range [%d, %d]", ErrInvalid, c.MinLength, c.MaxLength)
	}
	if c.MinPatternWords < 1 {
		return fmt.Errorf("%w: min_pattern_words must be at least 1", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalid)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.TileMap(); err != nil {
		return err
	}
	return nil
}

// TileMap builds the configured tile table. A letter under two tile values
// fails with tiles.ErrTileConflict.
func (c *Config) TileMap() (*tiles.Map, error) {
	m, err := tiles.New(c.Tiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return m, nil
}

func splitLetters(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func intField(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatField(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func stringField(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}
