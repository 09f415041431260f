package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"shadowgrams_gen_go/db"
	"shadowgrams_gen_go/internal/classifier"
	"shadowgrams_gen_go/internal/config"
	"shadowgrams_gen_go/internal/export"
	"shadowgrams_gen_go/internal/generator"
	"shadowgrams_gen_go/internal/scoring"
	"shadowgrams_gen_go/internal/tiles"
	"shadowgrams_gen_go/internal/types"
	"shadowgrams_gen_go/internal/visualizer"
	"shadowgrams_gen_go/internal/wordlist"
)

type globalOptions struct {
	Config   string   `long:"config" description:"INI file with [tiles], [puzzle], [thresholds] and [pocketbase] sections"`
	EnvFiles []string `long:"env-file" description:"dotenv file to load before reading the environment (default .env)"`
	LogLevel string   `long:"log-level" description:"debug|info|warn|error"`
	NoColor  bool     `long:"no-color" description:"disable ANSI colours in tile output"`
}

var opts globalOptions

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("generate", "Build the puzzle set from a wordlist",
		"Classifies every word of the wordlist, groups words by tile pattern and writes the puzzle document.",
		&generateCmd{})
	parser.AddCommand("recalc", "Recompute thresholds of an existing puzzle file",
		"Applies the configured threshold policy to each puzzle's word count; words and patterns are kept.",
		&recalcCmd{})
	parser.AddCommand("stats", "Print statistics of a puzzle file", "", &statsCmd{})
	parser.AddCommand("show", "Print the puzzle for a pattern key such as 2,1,1", "", &showCmd{})
	parser.AddCommand("tiles", "Print the configured tile table", "", &tilesCmd{})
	parser.AddCommand("publish", "Upload a puzzle file to PocketBase", "", &publishCmd{})

	// flags.Default already prints parse and command errors.
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.Config, opts.EnvFiles...)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return nil, zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly, NoColor: opts.NoColor}
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return cfg, logger, nil
}

func newVisualizer() *visualizer.Visualizer {
	return visualizer.NewVisualizer(os.Stdout, !opts.NoColor)
}

type generateCmd struct {
	Wordlist string `short:"w" long:"wordlist" required:"true" description:"wordlist, one word per line"`
	Out      string `short:"o" long:"out" default:"valid-puzzles.json" description:"output file; .csv writes CSV, anything else JSON"`
	CSV      string `long:"csv" description:"also write a CSV rendering to this path"`
	Show     int    `long:"show" default:"1" description:"number of puzzles to print after generating"`
}

func (c *generateCmd) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	tm, err := cfg.TileMap()
	if err != nil {
		return err
	}
	cl := classifier.NewClassifier(tm)
	if err := cl.SetLengthRange(cfg.MinLength, cfg.MaxLength); err != nil {
		return err
	}
	cl.SetWorkers(cfg.Workers)
	cl.SetLogger(logger)

	gen := generator.NewClassicGenerator(cl)
	if err := gen.SetPolicy(cfg.Policy); err != nil {
		return err
	}
	gen.SetMinWords(cfg.MinPatternWords)
	gen.SetLogger(logger)

	fmt.Println("Reading wordlist...")
	words, err := wordlist.Load(c.Wordlist)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d words\n", len(words))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Processing words...")
	doc, stats, err := gen.Generate(ctx, words)
	if err != nil {
		return err
	}

	fmt.Printf("Writing %d patterns to %s...\n", len(doc.Puzzles), c.Out)
	if err := export.Save(c.Out, doc); err != nil {
		return err
	}
	if c.CSV != "" {
		if err := export.Save(c.CSV, doc); err != nil {
			return err
		}
		fmt.Printf("CSV saved to %s\n", c.CSV)
	}
	fmt.Printf("✓ Generated %d valid puzzle patterns\n", len(doc.Puzzles))

	viz := newVisualizer()
	viz.PrintStats(stats)
	for i := 0; i < c.Show && i < len(doc.Puzzles); i++ {
		fmt.Println()
		viz.PrintPuzzle(doc.Puzzles[i])
	}
	return nil
}

type recalcCmd struct {
	In  string `short:"i" long:"in" required:"true" description:"puzzle document (JSON)"`
	Out string `short:"o" long:"out" description:"where to write the result (default: overwrite --in)"`
}

func (c *recalcCmd) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	out := c.Out
	if out == "" {
		out = c.In
	}
	n, err := export.Recalculate(c.In, out, cfg.Policy)
	if err != nil {
		return err
	}
	logger.Info().Int("puzzles", n).Str("out", out).
		Float64("good", cfg.Policy.Good).Float64("better", cfg.Policy.Better).Float64("best", cfg.Policy.Best).
		Msg("recalculated-thresholds")
	fmt.Printf("Updated %d puzzles with new thresholds (%s)\n", n, policyLabel(cfg.Policy))

	doc, err := export.Load(out)
	if err != nil {
		return err
	}
	fmt.Println("Sample updates:")
	for _, p := range doc.Puzzles[:min(3, len(doc.Puzzles))] {
		fmt.Printf("  Pattern %s: wordCount=%d, thresholds=%+v\n", p.Pattern, p.WordCount, p.Thresholds)
	}
	return nil
}

func policyLabel(p scoring.Policy) string {
	return fmt.Sprintf("%g%%, %g%%, %g%%", p.Good*100, p.Better*100, p.Best*100)
}

type statsCmd struct {
	In string `short:"i" long:"in" required:"true" description:"puzzle document (JSON)"`
}

func (c *statsCmd) Execute(args []string) error {
	doc, err := export.Load(c.In)
	if err != nil {
		return err
	}
	if doc.RunID != "" {
		fmt.Printf("Run %s generated %s\n", doc.RunID, doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	newVisualizer().PrintStats(generator.Summarize(doc))
	return nil
}

type showCmd struct {
	In   string `short:"i" long:"in" required:"true" description:"puzzle document (JSON)"`
	Args struct {
		Key string `positional-arg-name:"pattern" required:"yes"`
	} `positional-args:"yes"`
}

func (c *showCmd) Execute(args []string) error {
	doc, err := export.Load(c.In)
	if err != nil {
		return err
	}
	if _, err := types.ParsePatternKey(c.Args.Key); err != nil {
		return err
	}
	p, ok := doc.Lookup(c.Args.Key)
	if !ok {
		return fmt.Errorf("no puzzle for pattern %s", c.Args.Key)
	}
	newVisualizer().PrintPuzzle(*p)
	return nil
}

type tilesCmd struct{}

func (c *tilesCmd) Execute(args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	tm, err := cfg.TileMap()
	if err != nil {
		return err
	}
	newVisualizer().PrintTiles(tm)
	fmt.Printf("%d letters on %d tiles\n", tm.Len(), len(tm.Values()))
	unmapped := missingLetters(tm)
	if unmapped != "" {
		fmt.Printf("unmapped: %s\n", unmapped)
	}
	return nil
}

func missingLetters(tm *tiles.Map) string {
	var b strings.Builder
	for r := 'a'; r <= 'z'; r++ {
		if _, ok := tm.ValueOf(r); !ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type publishCmd struct {
	In string `short:"i" long:"in" required:"true" description:"puzzle document (JSON)"`
}

func (c *publishCmd) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	doc, err := export.Load(c.In)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	pub, err := db.NewPublisher(ctx, cfg.PocketBase)
	if err != nil {
		return err
	}
	pub.SetLogger(logger)
	stats, err := pub.Publish(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Published %d puzzles (%d created, %d updated)\n",
		len(doc.Puzzles), stats.Created, stats.Updated)
	return nil
}
