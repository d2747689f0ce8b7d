package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/rules"
)

// RulesFile is the rule table init seeds into the rules directory.
const RulesFile = "default.cue"

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Force bool
}

// InitResult is the JSON payload of init.
type InitResult struct {
	Config string `json:"config"`
	Rules  string `json:"rules"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter config and an editable rule table",
		Long: `Write cartpilot.yaml and rules/default.cue into dir (default ".").

The rule table is a copy of the embedded defaults, and the config points
rules.dir at it. --catalog and --db are recorded as absolute paths.
Existing files are left alone unless --force is given.

Examples:
  cartpilot init
  cartpilot init --catalog products.json ./procurement`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(opts, dir, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing files")

	return cmd
}

func runInit(opts *InitOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	result := InitResult{
		Config: filepath.Join(dir, config.DefaultFile),
		Rules:  filepath.Join(dir, "rules", RulesFile),
	}
	if !opts.Force {
		for _, path := range []string{result.Config, result.Rules} {
			if _, err := os.Stat(path); err == nil {
				return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("%s exists (use --force to overwrite)", path)})
			} else if !errors.Is(err, os.ErrNotExist) {
				return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: path, Err: err})
			}
		}
	}

	cfg, err := starterConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(err)
	}

	if err := os.MkdirAll(filepath.Dir(result.Rules), 0755); err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: "rules directory", Err: err})
	}
	if err := os.WriteFile(result.Rules, rules.DefaultSource(), 0644); err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: result.Rules, Err: err})
	}
	if err := cfg.SaveToFile(result.Config); err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: result.Config, Err: err})
	}
	formatter.VerboseLog("Config points rules.dir at %s", filepath.Dir(result.Rules))

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote %s\n", result.Config)
	fmt.Fprintf(formatter.Writer, "✓ Wrote %s\n", result.Rules)
	return nil
}

// starterConfig is the default config with rules.dir pointing at the seeded
// table and the catalog flags made absolute, since the file resolves
// relative paths against its own directory.
func starterConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Rules.Dir = "rules"

	for _, p := range []struct {
		flag string
		dst  *string
	}{
		{opts.CatalogPath, &cfg.Catalog.Path},
		{opts.Database, &cfg.Catalog.DB},
	} {
		if p.flag == "" {
			continue
		}
		abs, err := filepath.Abs(p.flag)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeConfig, Message: "catalog path", Err: err}
		}
		*p.dst = abs
	}
	return cfg, nil
}
