// Package tiles holds the letter to tile value table.
package tiles

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// ErrTileConflict is returned when one letter is configured under two tile values.
var ErrTileConflict = errors.New("tile conflict")

// ConflictError names the letter and the two values it was given.
type ConflictError struct {
	Letter rune
	First  int
	Second int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tile conflict: letter %q assigned to tile %d and tile %d", e.Letter, e.First, e.Second)
}

func (e *ConflictError) Unwrap() error { return ErrTileConflict }

// Map is an immutable letter to tile value table. It is safe for concurrent use.
type Map struct {
	values map[rune]int
}

// DefaultGroups is the tile table the game ships with.
func DefaultGroups() map[int][]string {
	return map[int][]string{
		1: {"b", "d", "f", "h", "i", "k", "l", "t"},
		2: {"a", "c", "e", "m", "n", "o", "r", "s", "u", "v", "w", "x", "z"},
		3: {"g", "p", "q", "y"},
		4: {"j"},
	}
}

// Default returns the Map built from DefaultGroups.
func Default() *Map {
	m, err := New(DefaultGroups())
	if err != nil {
		panic(err)
	}
	return m
}

// New builds a Map from tile value -> letters. Letters are lowercased.
// A letter listed under two different values fails with a *ConflictError;
// repeating a letter under the same value is allowed.
func New(groups map[int][]string) (*Map, error) {
	values := make(map[rune]int)
	// Ascending tile order so the reported conflict does not depend on map iteration.
	for _, tile := range slices.Sorted(maps.Keys(groups)) {
		if tile <= 0 {
			return nil, fmt.Errorf("tile value %d must be positive", tile)
		}
		for _, entry := range groups[tile] {
			for _, r := range strings.ToLower(strings.TrimSpace(entry)) {
				if !unicode.IsLetter(r) {
					return nil, fmt.Errorf("tile %d: %q is not a letter", tile, r)
				}
				if prev, ok := values[r]; ok && prev != tile {
					return nil, &ConflictError{Letter: r, First: prev, Second: tile}
				}
				values[r] = tile
			}
		}
	}
	if len(values) == 0 {
		return nil, errors.New("tile table has no letters")
	}
	return &Map{values: values}, nil
}

// ValueOf returns the tile value of a lowercase letter.
func (m *Map) ValueOf(letter rune) (int, bool) {
	v, ok := m.values[letter]
	return v, ok
}

// Letters returns the sorted letters assigned to a tile value.
func (m *Map) Letters(tile int) []rune {
	var out []rune
	for r, v := range m.values {
		if v == tile {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

// Groups returns the table in the same shape New accepts.
func (m *Map) Groups() map[int][]string {
	out := make(map[int][]string)
	for _, tile := range m.Values() {
		for _, r := range m.Letters(tile) {
			out[tile] = append(out[tile], string(r))
		}
	}
	return out
}

// Values returns the distinct tile values in ascending order.
func (m *Map) Values() []int {
	seen := make(map[int]struct{})
	for _, v := range m.values {
		seen[v] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Len is the number of mapped letters.
func (m *Map) Len() int { return len(m.values) }
