package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Pattern is the tile value of each letter of a word, in order.
type Pattern []int

// Compare orders patterns element by element; a strict prefix sorts first.
func (p Pattern) Compare(other Pattern) int {
	return slices.Compare(p, other)
}

// Equal reports whether both patterns hold the same values in the same order.
func (p Pattern) Equal(other Pattern) bool {
	return slices.Equal(p, other)
}

// Key renders the pattern as "2,1,1", the form used to look puzzles up.
func (p Pattern) Key() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (p Pattern) String() string {
	return "[" + strings.ReplaceAll(p.Key(), ",", ", ") + "]"
}

// ParsePatternKey is the inverse of Pattern.Key.
func ParsePatternKey(key string) (Pattern, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("empty pattern key")
	}
	parts := strings.Split(key, ",")
	p := make(Pattern, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern key %q: %w", key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("invalid pattern key %q: tile value %d is not positive", key, v)
		}
		p[i] = v
	}
	return p, nil
}

// Thresholds are the number of found words needed to reach each tier.
type Thresholds struct {
	Good   int `json:"good"`
	Better int `json:"better"`
	Best   int `json:"best"`
}

// Puzzle is every word sharing one pattern.
type Puzzle struct {
	Pattern    Pattern    `json:"pattern"`
	WordCount  int        `json:"wordCount"`
	Words      []string   `json:"words"`
	Thresholds Thresholds `json:"thresholds"`
}

// Document is the generated puzzle set as written to disk.
type Document struct {
	GeneratedAt time.Time `json:"generatedAt"`
	RunID       string    `json:"runId,omitempty"`
	Puzzles     []Puzzle  `json:"puzzles"`
}

// NewDocument creates an empty document; Puzzles is never nil so it encodes as [].
func NewDocument(runID string, at time.Time) *Document {
	return &Document{
		GeneratedAt: at.UTC(),
		RunID:       runID,
		Puzzles:     []Puzzle{},
	}
}

// Lookup finds the puzzle for a pattern key such as "2,1,1".
func (d *Document) Lookup(key string) (*Puzzle, bool) {
	p, err := ParsePatternKey(key)
	if err != nil {
		return nil, false
	}
	i, found := slices.BinarySearchFunc(d.Puzzles, p, func(pz Puzzle, target Pattern) int {
		return pz.Pattern.Compare(target)
	})
	if !found {
		return nil, false
	}
	return &d.Puzzles[i], true
}

// ToJSON converts the document to indented JSON bytes
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// FromJSON creates a Document from JSON bytes
func FromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Puzzles == nil {
		doc.Puzzles = []Puzzle{}
	}
	return &doc, nil
}
