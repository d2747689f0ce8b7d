package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/match"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is the YAML config file (empty = ./cartpilot.yaml if present).
	ConfigPath string

	// Overrides for config file values; empty means "use the file".
	RulesDir    string
	CatalogPath string
	Database    string
	Matcher     string

	// Metrics prints the prometheus text exposition to stderr after
	// resolve and batch.
	Metrics bool

	// RequestIDs overrides the request id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RequestIDs engine.RequestIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cartpilot CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "cartpilot",
		Version: ir.EngineVersion,
		Short:   "cartpilot - rule-driven procurement carts",
		Long: `Turn a free-text work goal into a validated shopping cart.

A goal is classified into a scenario, planned into required components,
expanded with mandated accessories, checked for compatibility, matched
against a product catalog and composed into a priced cart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			slog.SetDefault(opts.newLogger(cmd.ErrOrStderr()))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.RulesDir, "rules", "", "rules directory (overrides rules.dir)")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "catalog JSON file (overrides catalog.path)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "sqlite catalog (overrides catalog.db)")
	cmd.PersistentFlags().StringVar(&opts.Matcher, "matcher", "", "match strategy: substring|mapping|tag (overrides matcher.strategy)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print metrics to stderr after resolving")

	// Add subcommands
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// LoadConfig loads the config file and applies flag overrides.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: "config", Err: err}
	}

	if o.RulesDir != "" {
		cfg.Rules.Dir = o.RulesDir
	}
	if o.CatalogPath != "" {
		cfg.Catalog.Path = o.CatalogPath
		// An explicit file beats a database from the config file
		if o.Database == "" {
			cfg.Catalog.DB = ""
		}
	}
	if o.Database != "" {
		cfg.Catalog.DB = o.Database
	}
	if o.Matcher != "" {
		cfg.Matcher.Strategy = match.Strategy(o.Matcher)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: "config", Err: err}
	}
	return cfg, nil
}

// newLogger returns the command logger. Logs go to w (stderr) so they never
// corrupt JSON output.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newFormatter returns the output formatter for cmd.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
