package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/types"
)

func sampleDoc() *types.Document {
	doc := types.NewDocument("2abc", time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC))
	doc.Puzzles = []types.Puzzle{
		{Pattern: types.Pattern{1, 2, 1}, WordCount: 1, Words: []string{"act"}, Thresholds: types.Thresholds{Good: 1, Better: 1, Best: 1}},
		{Pattern: types.Pattern{2, 1, 1}, WordCount: 2, Words: []string{"bat", "cat"}, Thresholds: types.Thresholds{Good: 1, Better: 1, Best: 2}},
	}
	return doc
}

func TestWriteJSONFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDoc()))
	out := buf.String()
	for _, want := range []string{`"generatedAt": "2026-02-15T12:00:00Z"`, `"runId": "2abc"`, `"wordCount": 2`, `"good": 1`, `"best": 2`} {
		require.Contains(t, out, want)
	}

	doc, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, sampleDoc().Puzzles, doc.Puzzles)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDoc().Puzzles))
	require.Equal(t, "pattern,count,words\n\"[1, 2, 1]\",1,act\n\"[2, 1, 1]\",2,\"bat, cat\"\n", buf.String())
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "puzzle-data.json")
	require.NoError(t, Save(jsonPath, sampleDoc()))
	doc, err := Load(jsonPath)
	require.NoError(t, err)
	require.Equal(t, "2abc", doc.RunID)
	require.Len(t, doc.Puzzles, 2)

	csvPath := filepath.Join(dir, "valid-puzzles.CSV")
	require.NoError(t, Save(csvPath, sampleDoc()))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("pattern,count,words\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".valid-puzzles", "temp file left behind")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"))
	require.True(t, errors.Is(err, ErrNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestFormatFor(t *testing.T) {
	require.Equal(t, CSV, FormatFor("a/b.csv"))
	require.Equal(t, JSON, FormatFor("a/b.json"))
	require.Equal(t, JSON, FormatFor("noext"))
}

const legacyDoc = `{
  "version": "2plus-v2",
  "puzzles": [
    {"id": 7, "pattern": [2, 1, 1], "wordCount": 10, "words": ["a"], "thresholds": {"good": 9, "better": 9, "best": 9}, "daily": true}
  ]
}`

func TestRecalculateKeepsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puzzles.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDoc), 0o644))

	n, err := Recalculate(path, path, scoring.DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "2plus-v2", doc["version"])
	require.NotContains(t, doc, "generatedAt")

	puzzles := doc["puzzles"].([]any)
	require.Len(t, puzzles, 1)
	pz := puzzles[0].(map[string]any)
	require.Equal(t, float64(7), pz["id"])
	require.Equal(t, true, pz["daily"])
	require.Equal(t, []any{"a"}, pz["words"])
	require.Equal(t, map[string]any{"good": float64(3), "better": float64(5), "best": float64(8)}, pz["thresholds"])
}

func TestRewriteThresholdsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"no puzzles", `{"version": 1}`},
		{"missing word count", `{"puzzles": [{"pattern": [1, 1, 1]}]}`},
		{"empty puzzle", `{"puzzles": [{"wordCount": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := RewriteThresholds([]byte(tt.in), scoring.DefaultPolicy())
			require.Error(t, err)
		})
	}
}

func TestRecalculateMissingFile(t *testing.T) {
	_, err := Recalculate(filepath.Join(t.TempDir(), "nope.json"), "out.json", scoring.DefaultPolicy())
	require.True(t, errors.Is(err, ErrNotFound))
}
