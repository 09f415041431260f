package tiles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m := Default()
	cases := map[rune]int{'b': 1, 't': 1, 'a': 2, 'z': 2, 'g': 3, 'p': 3, 'q': 3, 'j': 4}
	for r, want := range cases {
		got, ok := m.ValueOf(r)
		require.True(t, ok, string(r))
		require.Equal(t, want, got, string(r))
	}
	require.Equal(t, 26, m.Len())
	require.Equal(t, []int{1, 2, 3, 4}, m.Values())
	require.Equal(t, []rune("gpqy"), m.Letters(3))
}

func TestValueOfUnmapped(t *testing.T) {
	m, err := New(map[int][]string{1: {"a"}})
	require.NoError(t, err)
	_, ok := m.ValueOf('b')
	require.False(t, ok)
	_, ok = m.ValueOf('A')
	require.False(t, ok)
}

func TestNewLowercasesAndSplitsEntries(t *testing.T) {
	m, err := New(map[int][]string{1: {"AT"}, 2: {"cb"}})
	require.NoError(t, err)
	for r, want := range map[rune]int{'a': 1, 't': 1, 'c': 2, 'b': 2} {
		got, ok := m.ValueOf(r)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestConflictRejected(t *testing.T) {
	// The legacy table listed p, q and j under two values each.
	_, err := New(map[int][]string{
		1: {"b", "j", "p"},
		3: {"g", "p"},
		4: {"j"},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTileConflict))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	// Lowest tile values are processed first, so the 1-vs-3 clash on p is reported.
	require.Equal(t, 'p', conflict.Letter)
	require.Equal(t, 1, conflict.First)
	require.Equal(t, 3, conflict.Second)
}

func TestRepeatedLetterSameValueAllowed(t *testing.T) {
	m, err := New(map[int][]string{2: {"a", "a", "A"}})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
}

func TestNewRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		groups map[int][]string
	}{
		{"zero value", map[int][]string{0: {"a"}}},
		{"negative value", map[int][]string{-1: {"a"}}},
		{"digit", map[int][]string{1: {"7"}}},
		{"empty", map[int][]string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.groups)
			require.Error(t, err)
		})
	}
}

func TestGroupsRoundTrip(t *testing.T) {
	m := Default()
	again, err := New(m.Groups())
	require.NoError(t, err)
	for r := 'a'; r <= 'z'; r++ {
		v1, ok1 := m.ValueOf(r)
		v2, ok2 := again.ValueOf(r)
		require.Equal(t, ok1, ok2)
		require.Equal(t, v1, v2)
	}
}
