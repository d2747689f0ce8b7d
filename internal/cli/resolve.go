package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/metrics"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <goal>",
		Short: "Resolve one goal into a cart",
		Long: `Resolve a free-text goal into a validated cart.

Multiple arguments are joined with spaces, so quoting is optional.

Exit codes:
  0 - Cart produced (validation errors are part of the cart, not failures)
  1 - Resolution failed (empty goal, catalog unavailable, stage failure)
  2 - Command error (bad config, no catalog configured)

Examples:
  cartpilot resolve --catalog products.json "check voltage on the panel"
  cartpilot resolve --db catalog.db --format json fire safety audit
  cartpilot resolve --catalog products.json --metrics "warehouse security"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, strings.Join(args, " "), cmd)
		},
	}

	return cmd
}

func runResolve(opts *RootOptions, goal string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(err)
	}

	recorder := metrics.NewRecorder()
	p, closeCatalog, err := buildPipeline(cfg, opts.newLogger(cmd.ErrOrStderr()), pipelineOptions(opts, recorder)...)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeCatalog()

	formatter.VerboseLog("Resolving %q (rules %s, matcher %s)", goal, p.Rules().Version, cfg.Matcher.Strategy)

	res, err := p.Run(cmd.Context(), goal)
	if opts.Metrics {
		defer writeMetrics(recorder, formatter)
	}
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.Cart(res)
}

// pipelineOptions returns the engine options every resolving command uses.
func pipelineOptions(opts *RootOptions, recorder *metrics.Recorder) []engine.Option {
	out := []engine.Option{engine.WithObserver(recorder)}
	if opts.RequestIDs != nil {
		out = append(out, engine.WithRequestIDs(opts.RequestIDs))
	}
	return out
}

// writeMetrics prints the metrics exposition to the diagnostic writer.
func writeMetrics(recorder *metrics.Recorder, f *OutputFormatter) {
	if err := recorder.WriteText(f.GetErrWriter()); err != nil {
		fmt.Fprintf(f.GetErrWriter(), "metrics: %v\n", err)
	}
}
