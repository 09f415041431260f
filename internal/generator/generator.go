package generator

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"shadowgrams_gen_go/internal/classifier"
	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/types"
)

// PuzzleGenerator interface defines methods for generating puzzle sets
type PuzzleGenerator interface {
	Generate(ctx context.Context, words []string) (*types.Document, Stats, error)
	SetPolicy(p scoring.Policy) error
}

// Stats summarises one generation run.
type Stats struct {
	Read             int
	Accepted         int
	LengthOutOfRange int
	Unmapped         int
	WordsMatched     int
	Puzzles          int
	BelowMinWords    int
	ByLength         map[int]int
	Elapsed          time.Duration
}

// Aggregate groups classified words by pattern and scores each group.
// The input order has no effect on the result: words are sorted within a
// puzzle and puzzles are sorted by pattern. Groups smaller than minWords
// are left out; the second return value counts them.
func Aggregate(words []classifier.Classified, policy scoring.Policy, minWords int) ([]types.Puzzle, int, error) {
	type group struct {
		pattern types.Pattern
		words   []string
	}
	groups := make(map[string]*group)
	for _, cw := range words {
		key := cw.Pattern.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{pattern: slices.Clone(cw.Pattern)}
			groups[key] = g
		}
		g.words = append(g.words, cw.Word)
	}

	puzzles := make([]types.Puzzle, 0, len(groups))
	skipped := 0
	for _, g := range groups {
		if len(g.words) < minWords {
			skipped++
			continue
		}
		slices.Sort(g.words)
		t, err := policy.Compute(len(g.words))
		if err != nil {
			return nil, 0, fmt.Errorf("pattern %s: %w", g.pattern, err)
		}
		puzzles = append(puzzles, types.Puzzle{
			Pattern:    g.pattern,
			WordCount:  len(g.words),
			Words:      g.words,
			Thresholds: t,
		})
	}
	slices.SortFunc(puzzles, func(a, b types.Puzzle) int {
		return a.Pattern.Compare(b.Pattern)
	})
	return puzzles, skipped, nil
}

var _ PuzzleGenerator = (*ClassicGenerator)(nil)

// ClassicGenerator implements PuzzleGenerator
type ClassicGenerator struct {
	classifier *classifier.Classifier
	policy     scoring.Policy
	minWords   int
	logger     zerolog.Logger
	now        func() time.Time
	newRunID   func() string
}

func NewClassicGenerator(c *classifier.Classifier) *ClassicGenerator {
	return &ClassicGenerator{
		classifier: c,
		policy:     scoring.DefaultPolicy(),
		minWords:   1,
		logger:     zerolog.Nop(),
		now:        time.Now,
		newRunID:   func() string { return ksuid.New().String() },
	}
}

func (g *ClassicGenerator) SetPolicy(p scoring.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	g.policy = p
	return nil
}

// SetMinWords drops puzzles with fewer words than n.
func (g *ClassicGenerator) SetMinWords(n int) {
	g.minWords = max(n, 1)
}

func (g *ClassicGenerator) SetLogger(logger zerolog.Logger) {
	g.logger = logger
}

// SetClock fixes the timestamp and run ID stamped on documents.
func (g *ClassicGenerator) SetClock(now func() time.Time, runID func() string) {
	if now != nil {
		g.now = now
	}
	if runID != nil {
		g.newRunID = runID
	}
}

// Generate classifies words in parallel, then aggregates once every
// classification has finished.
func (g *ClassicGenerator) Generate(ctx context.Context, words []string) (*types.Document, Stats, error) {
	start := time.Now()
	res, err := g.classifier.ClassifyAll(ctx, words)
	if err != nil {
		return nil, Stats{}, err
	}

	puzzles, skipped, err := Aggregate(res.Words, g.policy, g.minWords)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to aggregate puzzles: %w", err)
	}

	doc := types.NewDocument(g.newRunID(), g.now())
	doc.Puzzles = append(doc.Puzzles, puzzles...)

	stats := Summarize(doc)
	stats.Read = res.Read
	stats.Accepted = len(res.Words)
	stats.LengthOutOfRange = res.LengthOutOfRange
	stats.Unmapped = res.Unmapped
	stats.BelowMinWords = skipped
	stats.Elapsed = time.Since(start)

	if stats.Accepted == 0 {
		g.logger.Warn().Int("read", stats.Read).Msg("no words survived classification")
	}
	g.logger.Info().
		Str("run", doc.RunID).
		Int("read", stats.Read).
		Int("accepted", stats.Accepted).
		Int("dropped", res.Dropped()).
		Int("puzzles", stats.Puzzles).
		Dur("elapsed", stats.Elapsed.Round(time.Millisecond)).
		Msg("generated-puzzles")
	return doc, stats, nil
}

// Summarize rebuilds the per-puzzle part of Stats from a stored document.
// Read, Accepted and the drop counters are not recorded in documents and stay zero.
func Summarize(doc *types.Document) Stats {
	stats := Stats{Puzzles: len(doc.Puzzles), ByLength: make(map[int]int)}
	for _, p := range doc.Puzzles {
		stats.WordsMatched += p.WordCount
		stats.ByLength[len(p.Pattern)]++
	}
	return stats
}
