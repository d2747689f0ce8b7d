package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/metrics"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Concurrency int // overrides batch.concurrency when > 0
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch [goals-file]",
		Short: "Resolve many goals concurrently",
		Long: `Resolve one goal per line from a file (or stdin when the file is
omitted or "-"). Blank lines and lines starting with # are skipped.

Results are printed in input order. The first failed goal cancels the
rest and the command exits 1.

Examples:
  cartpilot batch --catalog products.json goals.txt
  cat goals.txt | cartpilot batch --db catalog.db --concurrency 8 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runBatch(opts, path, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "parallel resolutions (overrides batch.concurrency)")

	return cmd
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(err)
	}

	goals, err := readGoals(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(err)
	}
	if len(goals) == 0 {
		return formatter.Fail(&LoadError{Code: ErrCodeNoFiles, Message: "no goals to resolve"})
	}

	recorder := metrics.NewRecorder()
	p, closeCatalog, err := buildPipeline(cfg, opts.newLogger(cmd.ErrOrStderr()), pipelineOptions(opts.RootOptions, recorder)...)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeCatalog()

	limit := cfg.Batch.Concurrency
	if opts.Concurrency > 0 {
		limit = opts.Concurrency
	}
	formatter.VerboseLog("Resolving %d goal(s) with concurrency %d", len(goals), limit)

	results, err := engine.ResolveBatch(cmd.Context(), p, goals, limit)
	if opts.Metrics {
		defer writeMetrics(recorder, formatter)
	}
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.Batch(goals, results)
}

// maxGoalLine caps a single goal line.
const maxGoalLine = 1 << 20

// readGoals reads one goal per line from path, or from stdin for "-".
func readGoals(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "read goals", Err: err}
		}
		defer f.Close()
		r = f
	}

	var goals []string
	lineNo := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxGoalLine)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		goals = append(goals, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("read goals: line %d", lineNo+1),
			Err:     err,
		}
	}
	return goals, nil
}
