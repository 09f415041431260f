// Package scoring turns a puzzle's word count into its good/better/best thresholds.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"shadowgrams_gen_go/internal/types"
)

var (
	ErrInvalidPolicy = errors.New("invalid threshold policy")
	ErrEmptyPuzzle   = errors.New("puzzle has no words")
)

// epsilon absorbs float error such as 100*0.07 = 7.000000000000001.
const epsilon = 1e-9

// Policy holds each tier as a fraction of the puzzle's word count.
type Policy struct {
	Good   float64
	Better float64
	Best   float64
}

// DefaultPolicy is 25/50/75 percent.
func DefaultPolicy() Policy {
	return Policy{Good: 0.25, Better: 0.50, Best: 0.75}
}

// Validate requires 0 < good <= better <= best <= 1.
func (p Policy) Validate() error {
	if !(p.Good > 0 && p.Good <= p.Better && p.Better <= p.Best && p.Best <= 1) {
		return fmt.Errorf("%w: good=%v better=%v best=%v", ErrInvalidPolicy, p.Good, p.Better, p.Best)
	}
	return nil
}

// Compute returns ceil(wordCount * fraction) for each tier, never below 1.
func (p Policy) Compute(wordCount int) (types.Thresholds, error) {
	if wordCount <= 0 {
		return types.Thresholds{}, fmt.Errorf("%w: wordCount=%d", ErrEmptyPuzzle, wordCount)
	}
	if err := p.Validate(); err != nil {
		return types.Thresholds{}, err
	}
	return types.Thresholds{
		Good:   tier(wordCount, p.Good),
		Better: tier(wordCount, p.Better),
		Best:   tier(wordCount, p.Best),
	}, nil
}

// Recompute applies the policy to an already generated puzzle, leaving its words alone.
func (p Policy) Recompute(pz types.Puzzle) (types.Thresholds, error) {
	t, err := p.Compute(pz.WordCount)
	if err != nil {
		return types.Thresholds{}, fmt.Errorf("pattern %s: %w", pz.Pattern, err)
	}
	return t, nil
}

// RecomputeAll rewrites the thresholds of every puzzle in the document.
func (p Policy) RecomputeAll(doc *types.Document) error {
	for i := range doc.Puzzles {
		t, err := p.Recompute(doc.Puzzles[i])
		if err != nil {
			return err
		}
		doc.Puzzles[i].Thresholds = t
	}
	return nil
}

func tier(wordCount int, fraction float64) int {
	n := int(math.Ceil(float64(wordCount)*fraction - epsilon))
	return min(max(n, 1), wordCount)
}
