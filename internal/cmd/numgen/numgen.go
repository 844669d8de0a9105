// Package numgen implements the numgen command: it validates options, plans a
// run, and streams the generated chunks to a file or stdout.
package numgen

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"pkg.jsn.cam/numgen/internal/ledger"
	"pkg.jsn.cam/numgen/internal/orchestrator"
	"pkg.jsn.cam/numgen/internal/output"
	"pkg.jsn.cam/numgen/pkg/backends"
	"pkg.jsn.cam/numgen/pkg/engines"
	"pkg.jsn.cam/numgen/pkg/numgen"
)

// MaxChunkSize is the largest accepted chunk size.
const MaxChunkSize = 10_000_000

// Config holds numgen command configuration.
type Config struct {
	Output      string `env:"NUMGEN_OUTPUT"`
	Engine      string `env:"NUMGEN_ENGINE"       envDefault:"math-random"`
	Format      string `env:"NUMGEN_FORMAT"       envDefault:"text"`
	Ledger      string `env:"NUMGEN_LEDGER"`
	Amount      int64  `env:"NUMGEN_AMOUNT"`
	ChunkSize   int64  `env:"NUMGEN_CHUNK_SIZE"   envDefault:"10000000"`
	MinNumber   int64  `env:"NUMGEN_MIN_NUMBER"   envDefault:"0"`
	MaxNumber   int64  `env:"NUMGEN_MAX_NUMBER"   envDefault:"255"`
	ThreadCount int    `env:"NUMGEN_THREAD_COUNT"`
	Yes         bool   `env:"NUMGEN_YES"`
	Verbose     bool   `env:"NUMGEN_VERBOSE"`
}

// CPUs returns the number of usable CPUs, at least 1.
func CPUs() int {
	return max(1, runtime.NumCPU())
}

// ParseConfig reads NUMGEN_* environment variables, then flags from args.
// Flags take precedence.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ThreadCount == 0 {
		cfg.ThreadCount = CPUs()
	}

	int64Flag(fs, &cfg.Amount, "amount", "a", "the amount of numbers to generate")
	int64Flag(fs, &cfg.ChunkSize, "chunk-size", "c", "the number of values generated per chunk")
	int64Flag(fs, &cfg.MinNumber, "min-number", "m", "the minimum random number to generate")
	int64Flag(fs, &cfg.MaxNumber, "max-number", "x", "the maximum random number to generate")
	fs.IntVar(&cfg.ThreadCount, "thread-count", cfg.ThreadCount, "the number of workers (defaults to the number of CPUs)")
	fs.IntVar(&cfg.ThreadCount, "t", cfg.ThreadCount, "shorthand for -thread-count")
	stringFlag(fs, &cfg.Output, "output", "o", "a file to write the numbers to (stdout when empty)")
	stringFlag(fs, &cfg.Engine, "engine", "e", fmt.Sprintf("the generator engine %v", engines.ListEngines()))
	stringFlag(fs, &cfg.Format, "format", "f", fmt.Sprintf("the dataset format %v", backends.ListFormats()))
	fs.BoolVar(&cfg.Yes, "yes", cfg.Yes, "answer yes to confirmation prompts")
	fs.BoolVar(&cfg.Yes, "y", cfg.Yes, "shorthand for -yes")
	fs.StringVar(&cfg.Ledger, "ledger", cfg.Ledger, "a bbolt database recording runs and chunk metadata")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log orchestration events to stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func int64Flag(fs *flag.FlagSet, p *int64, name, short, usage string) {
	fs.Int64Var(p, name, *p, usage)
	fs.Int64Var(p, short, *p, "shorthand for -"+name)
}

func stringFlag(fs *flag.FlagSet, p *string, name, short, usage string) {
	fs.StringVar(p, name, *p, usage)
	fs.StringVar(p, short, *p, "shorthand for -"+name)
}

// Validate checks option ranges. cpus bounds the thread count.
func (c Config) Validate(cpus int) error {
	switch {
	case c.Amount < 1:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "amount must be at least 1, got %d", c.Amount)
	case c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "chunk size must be between 1 and %d, got %d", MaxChunkSize, c.ChunkSize)
	case c.MinNumber < 0:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "min number must be at least 0, got %d", c.MinNumber)
	case c.MaxNumber < 1:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "max number must be at least 1, got %d", c.MaxNumber)
	case c.MaxNumber < c.MinNumber:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "max number %d is lower than min number %d", c.MaxNumber, c.MinNumber)
	case c.ThreadCount < 1 || c.ThreadCount > cpus:
		return numgen.ConfigError(numgen.ErrInvalidRequest, "thread count must be between 1 and %d, got %d", cpus, c.ThreadCount)
	case !engines.IsValidEngine(numgen.EngineID(c.Engine)):
		return numgen.ConfigError(numgen.ErrUnknownEngine, "engine %q, expected one of %v", c.Engine, engines.ListEngines())
	case !backends.IsValidFormat(numgen.FormatID(c.Format)):
		return numgen.ConfigError(numgen.ErrUnknownFormat, "format %q, expected one of %v", c.Format, backends.ListFormats())
	}
	return nil
}

// Request converts the configuration into a generation request.
func (c Config) Request() numgen.GenerationRequest {
	return numgen.GenerationRequest{
		Amount:      c.Amount,
		MinNumber:   c.MinNumber,
		MaxNumber:   c.MaxNumber,
		ChunkSize:   c.ChunkSize,
		ThreadCount: c.ThreadCount,
		Engine:      numgen.EngineID(c.Engine),
		Format:      numgen.FormatID(c.Format),
	}
}

// Run executes the numgen command. Numbers go to cfg.Output, or to out when
// no output file is set; progress and the summary go to errOut.
func Run(ctx context.Context, cfg Config, confirm Confirmer, out io.Writer, errOut io.Writer) (err error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if err := cfg.Validate(CPUs()); err != nil {
		return err
	}

	var l ledger.Ledger = ledger.NewNoOpLedger()
	if cfg.Ledger != "" {
		store, err := ledger.NewBbolt(cfg.Ledger)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
		l = store
	}

	o, err := orchestrator.New(cfg.Request(), orchestrator.WithLedger(l))
	if err != nil {
		return err
	}

	var dest io.Writer
	if cfg.Output != "" {
		f, perr := PrepareOutput(cfg.Output, cfg.Yes, confirm)
		if perr != nil {
			return perr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		dest = f
	} else {
		// Wrapping hides io.WriterAt, so stdout is always appended to.
		bw := bufio.NewWriter(out)
		defer func() {
			if ferr := bw.Flush(); ferr != nil && err == nil {
				err = fmt.Errorf("flush output: %w", ferr)
			}
		}()
		dest = bw
	}

	fmt.Fprintf(errOut, "Generating %s numbers in %s chunks of %s on %d workers (about %s)\n",
		humanize.Comma(o.TotalNumbers()),
		humanize.Comma(int64(o.ChunkCount())),
		humanize.Comma(o.ChunkSize()),
		o.EffectiveWorkerCount(),
		humanize.Bytes(uint64(o.EstimatedSize())))

	sink := output.New(dest, numgen.FormatID(cfg.Format), o.ChunkSize())
	bar := progressbar.NewOptions(o.ChunkCount(),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSetDescription("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	var runErr error
	for ev := range o.Generate(runCtx) {
		switch ev.Kind {
		case orchestrator.EventChunk:
			if runErr != nil {
				continue
			}
			if err := sink.Write(ev.Chunk); err != nil {
				runErr = err
				cancel()
				continue
			}
			_ = bar.Add(1)
			if ev.IsLast {
				_ = bar.Finish()
			}
		case orchestrator.EventFailure:
			if runErr == nil {
				runErr = ev.Err
			}
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
			return fmt.Errorf("generation interrupted after %d/%d chunks: %w", sink.Chunks(), o.ChunkCount(), runErr)
		}
		return fmt.Errorf("generation failed: %w", runErr)
	}

	fmt.Fprintf(errOut, "Wrote %s (%s numbers) in %s\n",
		humanize.Bytes(uint64(sink.Written())),
		humanize.Comma(o.TotalNumbers()),
		time.Since(start).Round(time.Millisecond))
	if cfg.Ledger != "" {
		fmt.Fprintf(errOut, "Run %s recorded in %s\n", o.RunID(), cfg.Ledger)
	}
	return nil
}
