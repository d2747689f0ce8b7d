package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/rules"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                    `json:"valid"`
	Version  string                  `json:"version,omitempty"`
	Errors   []rules.ValidationError `json:"errors,omitempty"`
	Warnings []rules.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rules-dir]",
		Short: "Validate a rule table",
		Long: `Compile and validate a rule table without resolving anything.

The directory defaults to rules.dir from the config, then to the
embedded table. Every semantic error is reported, not just the first.
Dependency cycles are warnings, unless rules.expansion is transitive,
where they are errors.

Examples:
  cartpilot validate ./rules
  cartpilot validate --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(err)
	}
	if dir == "" {
		dir = cfg.Rules.Dir
	}

	source := dir
	if source == "" {
		source = "embedded rules"
	}
	formatter.VerboseLog("Validating %s", source)

	rs, err := loadRules(dir)
	if err != nil {
		var ce *rules.CompileError
		if errors.As(err, &ce) {
			return outputValidationErrors(formatter, ValidationResult{
				Errors: []rules.ValidationError{{Field: ce.Field, Message: ce.Error(), Code: ErrCodeLoadFailed}},
			})
		}
		return formatter.Fail(err)
	}

	result := ValidationResult{Version: rs.Version}
	result.Errors = rules.Validate(rs)
	if cfg.Rules.Version != "" {
		if err := rs.CheckVersion(cfg.Rules.Version); err != nil {
			result.Errors = append(result.Errors, rules.ValidationError{
				Field:   "version",
				Message: err.Error(),
				Code:    rules.ErrVersionUnsatisfiable,
			})
		}
	}

	result.Warnings = rules.AnalyzeCycles(rs)
	if err := rs.CheckExpansion(cfg.Rules.Expansion); err != nil {
		result.Errors = append(result.Errors, rules.ValidationError{
			Field:   "dependencies",
			Message: err.Error(),
			Code:    ErrCodeLoadFailed,
		})
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}

	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	result.Valid = true
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Rules valid (version %s)\n", result.Version)
	writeWarnings(formatter, result.Warnings)
	return nil
}

// outputValidationErrors reports every error; the envelope carries the first.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	first := describe(errs[0])
	failed := WrapExitError(first.exit, fmt.Sprintf("validation failed with %d error(s)", len(errs)), errs[0])

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &first.report,
		}
		if err := formatter.encodeJSON(response); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	writeWarnings(formatter, result.Warnings)
	return failed
}

func writeWarnings(formatter *OutputFormatter, warnings []rules.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}
