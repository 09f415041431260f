package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/habibrosyad/pocketbase-go-sdk"
	"github.com/rs/zerolog"

	"shadowgrams_gen_go/internal/config"
	"shadowgrams_gen_go/internal/types"
)

var ErrNotFound = errors.New("puzzle not found")

// PuzzleRecord represents a record in the PocketBase puzzles collection
type PuzzleRecord struct {
	ID         string `json:"id"`
	PatternKey string `json:"pattern_key"`
	Length     int    `json:"length"`
	WordCount  int    `json:"word_count"`
	Puzzle     string `json:"puzzle"`
	RunID      string `json:"run_id"`
	Created    string `json:"created"`
	Updated    string `json:"updated"`
}

// recordStore is the subset of *pocketbase.Client the publisher uses.
type recordStore interface {
	Authorize() error
	Create(collection string, body any) (pocketbase.ResponseCreate, error)
	Update(collection string, id string, body any) error
	One(collection string, id string) (map[string]any, error)
	List(collection string, params pocketbase.ParamsList) (pocketbase.ResponseList[map[string]any], error)
}

// PublishStats counts what a Publish call changed.
type PublishStats struct {
	Created int
	Updated int
}

// Publisher upserts puzzles into PocketBase, one record per pattern.
type Publisher struct {
	store      recordStore
	collection string
	maxRetries uint64
	logger     zerolog.Logger
}

// NewPublisher creates a client with superuser authentication and authorizes it.
// Cancelling ctx stops the authorization retries.
func NewPublisher(ctx context.Context, cfg config.PocketBase) (*Publisher, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("pocketbase credentials missing: set POCKETBASE_EMAIL and POCKETBASE_PASSWORD")
	}
	client := pocketbase.NewClient(cfg.URL,
		pocketbase.WithSuperuserEmailPassword(cfg.Email, cfg.Password))
	p := newPublisher(client, cfg.Collection)
	if err := p.Authenticate(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(store recordStore, collection string) *Publisher {
	return &Publisher{
		store:      store,
		collection: collection,
		maxRetries: 3,
		logger:     zerolog.Nop(),
	}
}

func (p *Publisher) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

func (p *Publisher) SetMaxRetries(n uint64) {
	p.maxRetries = n
}

// The SDK reports failures as text only; the status code is in the message.
var statusPattern = regexp.MustCompile(`status: (\d{3})`)

// isClientError reports whether err carries a 4xx status other than 408 and 429.
func isClientError(err error) bool {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return false
	}
	code, _ := strconv.Atoi(m[1])
	return code >= 400 && code < 500 && code != 408 && code != 429
}

func (p *Publisher) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	attempt := func() error {
		err := op()
		if err != nil && isClientError(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			p.logger.Debug().Err(err).Msg("pocketbase-retry")
		}
		return err
	}
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx))
}

// Authenticate tries to authenticate with PocketBase
func (p *Publisher) Authenticate(ctx context.Context) error {
	err := p.retry(ctx, p.store.Authorize)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

// Publish writes every puzzle in doc, updating records whose pattern already exists.
func (p *Publisher) Publish(ctx context.Context, doc *types.Document) (PublishStats, error) {
	var stats PublishStats
	for _, pz := range doc.Puzzles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		created, err := p.upsert(ctx, pz, doc.RunID)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}
	p.logger.Info().Str("collection", p.collection).
		Int("created", stats.Created).Int("updated", stats.Updated).
		Msg("published-puzzles")
	return stats, nil
}

func (p *Publisher) upsert(ctx context.Context, pz types.Puzzle, runID string) (bool, error) {
	puzzleJSON, err := json.Marshal(pz)
	if err != nil {
		return false, fmt.Errorf("failed to marshal puzzle data: %w", err)
	}
	key := pz.Pattern.Key()
	data := map[string]any{
		"pattern_key": key,
		"length":      len(pz.Pattern),
		"word_count":  pz.WordCount,
		"puzzle":      string(puzzleJSON),
		"run_id":      runID,
	}

	existing, err := p.find(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("failed to check if puzzle %s exists: %w", key, err)
	}
	if existing != "" {
		err = p.retry(ctx, func() error { return p.store.Update(p.collection, existing, data) })
		if err != nil {
			return false, fmt.Errorf("failed to update puzzle %s: %w", key, err)
		}
		return false, nil
	}
	err = p.retry(ctx, func() error {
		_, err := p.store.Create(p.collection, data)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to upload puzzle %s: %w", key, err)
	}
	return true, nil
}

// find returns the record ID for a pattern key.
func (p *Publisher) find(ctx context.Context, key string) (string, error) {
	var res pocketbase.ResponseList[map[string]any]
	err := p.retry(ctx, func() error {
		var err error
		res, err = p.store.List(p.collection, pocketbase.ParamsList{
			Page:    1,
			Size:    1,
			Filters: fmt.Sprintf("pattern_key = %q", key),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if len(res.Items) == 0 {
		return "", ErrNotFound
	}
	id, _ := res.Items[0]["id"].(string)
	return id, nil
}

// PuzzleExists reports whether a record for the pattern key is stored.
func (p *Publisher) PuzzleExists(ctx context.Context, key string) (bool, error) {
	_, err := p.find(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetPuzzle loads the puzzle stored for a pattern key such as "2,1,1".
func (p *Publisher) GetPuzzle(ctx context.Context, key string) (*types.Puzzle, error) {
	id, err := p.find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzle %s: %w", key, err)
	}
	record, err := p.store.One(p.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzle %s: %w", key, err)
	}
	return decodeRecord(record)
}

// ListPuzzles returns one page of stored puzzles, optionally limited to a pattern length.
func (p *Publisher) ListPuzzles(ctx context.Context, page, perPage, length int) ([]types.Puzzle, error) {
	params := pocketbase.ParamsList{
		Page: page,
		Size: perPage,
		Sort: "pattern_key",
	}
	if length > 0 {
		params.Filters = "length = " + strconv.Itoa(length)
	}
	var res pocketbase.ResponseList[map[string]any]
	err := p.retry(ctx, func() error {
		var err error
		res, err = p.store.List(p.collection, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list puzzles: %w", err)
	}
	out := make([]types.Puzzle, 0, len(res.Items))
	for _, record := range res.Items {
		pz, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, *pz)
	}
	return out, nil
}

func decodeRecord(record map[string]any) (*types.Puzzle, error) {
	raw, ok := record["puzzle"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("record %v has no puzzle data", record["id"])
	}
	var pz types.Puzzle
	if err := json.Unmarshal([]byte(raw), &pz); err != nil {
		return nil, fmt.Errorf("failed to unmarshal puzzle data: %w", err)
	}
	return &pz, nil
}
