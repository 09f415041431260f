package visualizer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"shadowgrams_gen_go/internal/generator"
	"shadowgrams_gen_go/internal/tiles"
	"shadowgrams_gen_go/internal/types"
)

// ANSI background per tile value; value 1 uses colors[0].
var colors = []string{
	"\033[43m", // Yellow background
	"\033[42m", // Green background
	"\033[44m", // Blue background
	"\033[45m", // Magenta background
	"\033[46m", // Cyan background
	"\033[41m", // Red background
}

const reset = "\033[0m"

// Visualizer handles terminal rendering of puzzles and run statistics
type Visualizer struct {
	w     io.Writer
	color bool
}

func NewVisualizer(w io.Writer, color bool) *Visualizer {
	return &Visualizer{w: w, color: color}
}

// PrintPattern draws one box per tile:
//
//	┌───┬───┬───┐
//	│ 2 │ 1 │ 1 │
//	└───┴───┴───┘
func (v *Visualizer) PrintPattern(p types.Pattern) {
	if len(p) == 0 {
		return
	}
	width := 1
	for _, t := range p {
		width = max(width, len(fmt.Sprint(t)))
	}
	v.printBorder("┌", "┬", "┐", len(p), width)

	fmt.Fprint(v.w, "│")
	for _, t := range p {
		cell := fmt.Sprintf(" %*d ", width, t)
		if v.color {
			cell = colors[(t-1+len(colors))%len(colors)] + cell + reset
		}
		fmt.Fprint(v.w, cell+"│")
	}
	fmt.Fprintln(v.w)

	v.printBorder("└", "┴", "┘", len(p), width)
}

func (v *Visualizer) printBorder(left, mid, right string, cells, width int) {
	seg := strings.Repeat("─", width+2)
	parts := make([]string, cells)
	for i := range parts {
		parts[i] = seg
	}
	fmt.Fprintln(v.w, left+strings.Join(parts, mid)+right)
}

// PrintPuzzle shows the tiles, thresholds and word list of one puzzle.
func (v *Visualizer) PrintPuzzle(p types.Puzzle) {
	v.PrintPattern(p.Pattern)
	fmt.Fprintf(v.w, "• Pattern: %s (key %s)\n", p.Pattern, p.Pattern.Key())
	fmt.Fprintf(v.w, "• Words: %s\n", humanize.Comma(int64(p.WordCount)))
	fmt.Fprintf(v.w, "• Thresholds: good %d, better %d, best %d\n",
		p.Thresholds.Good, p.Thresholds.Better, p.Thresholds.Best)
	fmt.Fprintf(v.w, "• Solutions: %s\n", strings.Join(p.Words, ", "))
}

// PrintStats prints the summary the generator reports after a run.
func (v *Visualizer) PrintStats(s generator.Stats) {
	fmt.Fprintf(v.w, "\nStatistics:\n")
	// Stats rebuilt from a stored document carry no input counts.
	if s.Read > 0 {
		fmt.Fprintf(v.w, "Words read: %s\n", humanize.Comma(int64(s.Read)))
		fmt.Fprintf(v.w, "Words accepted: %s\n", humanize.Comma(int64(s.Accepted)))
		fmt.Fprintf(v.w, "  dropped (length): %s\n", humanize.Comma(int64(s.LengthOutOfRange)))
		fmt.Fprintf(v.w, "  dropped (unmapped letter): %s\n", humanize.Comma(int64(s.Unmapped)))
	}
	fmt.Fprintf(v.w, "Total words matched: %s\n", humanize.Comma(int64(s.WordsMatched)))
	fmt.Fprintf(v.w, "Total patterns: %s\n", humanize.Comma(int64(s.Puzzles)))
	if s.BelowMinWords > 0 {
		fmt.Fprintf(v.w, "  below minimum word count: %s\n", humanize.Comma(int64(s.BelowMinWords)))
	}
	lengths := make([]int, 0, len(s.ByLength))
	for n := range s.ByLength {
		lengths = append(lengths, n)
	}
	slices.Sort(lengths)
	for _, n := range lengths {
		fmt.Fprintf(v.w, "  %d-tile patterns: %s\n", n, humanize.Comma(int64(s.ByLength[n])))
	}
}

// PrintTiles lists the letters on each tile value.
func (v *Visualizer) PrintTiles(m *tiles.Map) {
	for _, t := range m.Values() {
		fmt.Fprintf(v.w, "tile %d: %s\n", t, string(m.Letters(t)))
	}
}
