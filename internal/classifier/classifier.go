package classifier

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shadowgrams_gen_go/internal/tiles"
	"shadowgrams_gen_go/internal/types"
)

const (
	DefaultMinLength = 3
	DefaultMaxLength = 6
)

var (
	ErrLengthOutOfRange  = errors.New("length out of range")
	ErrUnmappedCharacter = errors.New("unmapped character")
)

// Error describes why a word was not classified.
type Error struct {
	Word     string
	Reason   error
	Char     rune // set for ErrUnmappedCharacter
	Position int  // index of Char, in runes
}

func (e *Error) Error() string {
	if errors.Is(e.Reason, ErrUnmappedCharacter) {
		return fmt.Sprintf("%q: %v %q at position %d", e.Word, e.Reason, e.Char, e.Position)
	}
	return fmt.Sprintf("%q: %v", e.Word, e.Reason)
}

func (e *Error) Unwrap() error { return e.Reason }

// Classified is an accepted word with its pattern.
type Classified struct {
	Word    string
	Pattern types.Pattern
}

// Result is the outcome of classifying a whole wordlist.
type Result struct {
	Words            []Classified
	Read             int
	LengthOutOfRange int
	Unmapped         int
}

// Dropped is the number of words that did not classify.
func (r Result) Dropped() int { return r.LengthOutOfRange + r.Unmapped }

// Classifier maps words onto tile patterns. It only reads its tile map,
// so one Classifier can be shared by any number of goroutines.
type Classifier struct {
	tiles   *tiles.Map
	minLen  int
	maxLen  int
	workers int
	logger  zerolog.Logger
}

func NewClassifier(m *tiles.Map) *Classifier {
	return &Classifier{
		tiles:   m,
		minLen:  DefaultMinLength,
		maxLen:  DefaultMaxLength,
		workers: runtime.NumCPU(),
		logger:  zerolog.Nop(),
	}
}

func (c *Classifier) SetLengthRange(minLen, maxLen int) error {
	if minLen < 1 || maxLen < minLen {
		return fmt.Errorf("invalid word length range [%d, %d]", minLen, maxLen)
	}
	c.minLen, c.maxLen = minLen, maxLen
	return nil
}

func (c *Classifier) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	c.workers = workers
}

func (c *Classifier) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Classify lowercases word and returns one tile value per letter.
// Words outside the length range or with any unmapped letter are rejected whole.
func (c *Classifier) Classify(word string) (types.Pattern, error) {
	_, p, err := c.classify(word)
	return p, err
}

func (c *Classifier) classify(word string) (string, types.Pattern, error) {
	lower := cases.Lower(language.Und).String(word)
	n := utf8.RuneCountInString(lower)
	if n < c.minLen || n > c.maxLen {
		return lower, nil, &Error{Word: lower, Reason: ErrLengthOutOfRange}
	}
	pattern := make(types.Pattern, 0, n)
	for i, r := range []rune(lower) {
		v, ok := c.tiles.ValueOf(r)
		if !ok {
			return lower, nil, &Error{Word: lower, Reason: ErrUnmappedCharacter, Char: r, Position: i}
		}
		pattern = append(pattern, v)
	}
	return lower, pattern, nil
}

// Matches reports whether word can be spelled on the given tiles.
func (c *Classifier) Matches(word string, pattern types.Pattern) bool {
	p, err := c.Classify(word)
	return err == nil && p.Equal(pattern)
}

type outcome struct {
	word Classified
	err  error
}

// ClassifyAll classifies every word using up to c.workers goroutines.
// Rejected words are logged at debug level and counted, never returned as errors.
// The order of Result.Words is unspecified.
func (c *Classifier) ClassifyAll(ctx context.Context, words []string) (Result, error) {
	res := Result{Read: len(words)}
	if len(words) == 0 {
		return res, nil
	}

	workerCount := min(c.workers, len(words))
	chunk := (len(words) + workerCount - 1) / workerCount
	outcomes := make(chan outcome, workerCount*4)

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(words); start += chunk {
		part := words[start:min(start+chunk, len(words))]
		g.Go(func() error {
			for _, w := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				lower, p, err := c.classify(w)
				o := outcome{word: Classified{Word: lower, Pattern: p}, err: err}
				select {
				case outcomes <- o:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(outcomes)
	}()

	// Single writer: only this loop touches res.
	for o := range outcomes {
		if o.err == nil {
			res.Words = append(res.Words, o.word)
			continue
		}
		switch {
		case errors.Is(o.err, ErrLengthOutOfRange):
			res.LengthOutOfRange++
		case errors.Is(o.err, ErrUnmappedCharacter):
			res.Unmapped++
		}
		c.logger.Debug().AnErr("err", o.err).Msg("word-dropped")
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	return res, nil
}
