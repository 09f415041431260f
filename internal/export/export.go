// Package export renders a puzzle document as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/types"
)

var ErrNotFound = errors.New("puzzle file not found")

// Format selects the on-disk encoding.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// FormatFor picks the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return CSV
	}
	return JSON
}

// WriteJSON writes the whole document, indented.
func WriteJSON(w io.Writer, doc *types.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON reads a document written by WriteJSON.
func ReadJSON(r io.Reader) (*types.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := types.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode puzzle document: %w", err)
	}
	return doc, nil
}

// WriteCSV writes one row per puzzle: pattern as "[2, 1, 1]", count and
// the words joined by ", ".
func WriteCSV(w io.Writer, puzzles []types.Puzzle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pattern", "count", "words"}); err != nil {
		return err
	}
	for _, p := range puzzles {
		row := []string{p.Pattern.String(), strconv.Itoa(p.WordCount), strings.Join(p.Words, ", ")}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes doc to path in the format implied by its extension. The file
// is replaced atomically so readers never see a partial document.
func Save(path string, doc *types.Document) error {
	return writeFile(path, func(w io.Writer) error {
		if FormatFor(path) == CSV {
			return WriteCSV(w, doc.Puzzles)
		}
		return WriteJSON(w, doc)
	})
}

func writeFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a JSON document from path.
func Load(path string) (*types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()
	doc, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// RewriteThresholds replaces the "thresholds" of every entry in the
// "puzzles" array of a JSON document, computed from its "wordCount".
// Every other field, known or not, is carried over unchanged.
// It returns the rewritten document and the number of puzzles updated.
func RewriteThresholds(data []byte, policy scoring.Policy) ([]byte, int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode puzzle document: %w", err)
	}
	raw, ok := doc["puzzles"]
	if !ok {
		return nil, 0, errors.New("puzzle document has no \"puzzles\" field")
	}
	var puzzles []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &puzzles); err != nil {
		return nil, 0, fmt.Errorf("failed to decode puzzles: %w", err)
	}
	for i, pz := range puzzles {
		var wordCount int
		if err := json.Unmarshal(pz["wordCount"], &wordCount); err != nil {
			return nil, 0, fmt.Errorf("puzzle %d: invalid wordCount: %w", i, err)
		}
		th, err := policy.Compute(wordCount)
		if err != nil {
			return nil, 0, fmt.Errorf("puzzle %d: %w", i, err)
		}
		if pz["thresholds"], err = json.Marshal(th); err != nil {
			return nil, 0, err
		}
	}
	var err error
	if doc["puzzles"], err = json.Marshal(puzzles); err != nil {
		return nil, 0, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, 0, err
	}
	return append(out, '\n'), len(puzzles), nil
}

// Recalculate rewrites the thresholds of the JSON document at in and
// saves the result to out, which may be the same file.
func Recalculate(in, out string, policy scoring.Policy) (int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, in)
		}
		return 0, err
	}
	rewritten, n, err := RewriteThresholds(data, policy)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in, err)
	}
	err = writeFile(out, func(w io.Writer) error {
		_, err := w.Write(rewritten)
		return err
	})
	return n, err
}
