package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/rules"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Cart produced, rules valid, scenarios passed
	ExitFailure      = 1 // Resolution failed, rules invalid, scenarios failed
	ExitCommandError = 2 // Bad config, missing catalog, invalid paths
)

// ExitError carries the process exit code of a failed command. The
// command has already reported the failure when it returns one.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, ExitFailure when err
// carries none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope every command writes to stdout.
type CLIResponse struct {
	Status    string    `json:"status"` // "ok" or "error"
	Data      any       `json:"data,omitempty"`
	Error     *CLIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// CLIError is the error half of the envelope. Code is a pipeline code
// (INVALID_REQUEST, ...), a command code (E0xx) or a rule-table code (E2xx).
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// BatchResult is the data of a batch response, in input order.
type BatchResult struct {
	Results []*ir.Result `json:"results"`
	Total   int          `json:"total"`
}

// OutputFormatter renders carts, listings and failures as text or as a
// JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; falls back to Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success writes data as an ok envelope, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return f.encodeJSON(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Cart writes one resolved cart.
func (f *OutputFormatter) Cart(res *ir.Result) error {
	if f.json() {
		return f.encodeJSON(CLIResponse{Status: "ok", Data: res, RequestID: res.RequestID})
	}

	w := f.Writer
	fmt.Fprintf(w, "Scenario: %s\n", res.Metadata.ParsedIntent.Scenario)
	fmt.Fprintf(w, "Cart (%d items):\n", len(res.Cart))
	for _, item := range res.Cart {
		fmt.Fprintf(w, "  %-30s %-45s $%s\n", item.Component, item.ID, item.Price)
	}
	fmt.Fprintf(w, "Total: $%s\n", res.TotalPrice)
	fmt.Fprintf(w, "Completeness: %.0f%%\n", res.CompletenessScore*100)
	fmt.Fprintln(w, res.CartSummary)

	if len(res.ValidationErrors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, e := range res.ValidationErrors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	fmt.Fprintf(w, "Request: %s\n", res.RequestID)
	return nil
}

// Batch writes the carts of a batch; goals[i] produced results[i].
func (f *OutputFormatter) Batch(goals []string, results []*ir.Result) error {
	if f.json() {
		return f.encodeJSON(CLIResponse{
			Status: "ok",
			Data:   BatchResult{Results: results, Total: len(results)},
		})
	}

	w := f.Writer
	for i, res := range results {
		fmt.Fprintf(w, "[%d] %s\n", i+1, goals[i])
		fmt.Fprintf(w, "    %s: %s (completeness %.0f%%)\n",
			res.Metadata.ParsedIntent.Scenario, res.CartSummary, res.CompletenessScore*100)
		for _, e := range res.ValidationErrors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
	fmt.Fprintf(w, "\nResolved %d goal(s)\n", len(results))
	return nil
}

// failure is how a command reports an error: what to print and how to exit.
type failure struct {
	report    CLIError
	requestID string
	exit      int
	summary   string
}

// describe maps an error from any layer to its failure. Setup errors exit
// with ExitCommandError; everything the pipeline or the rule table decides
// exits with ExitFailure.
func describe(err error) failure {
	var (
		le *LoadError
		pe *engine.PipelineError
		ve rules.ValidationError
	)
	switch {
	case errors.As(err, &le):
		return failure{
			report:  CLIError{Code: le.Code, Message: le.Error()},
			exit:    ExitCommandError,
			summary: "setup failed",
		}
	case errors.As(err, &pe):
		var details any
		if pe.Stage != "" {
			details = map[string]string{"stage": pe.Stage}
		}
		return failure{
			report:    CLIError{Code: string(pe.Code), Message: err.Error(), Details: details},
			requestID: pe.RequestID,
			exit:      ExitFailure,
			summary:   "resolution failed",
		}
	case errors.As(err, &ve):
		return failure{
			report:  CLIError{Code: ve.Code, Message: ve.Message, Details: map[string]string{"field": ve.Field}},
			exit:    ExitFailure,
			summary: "rules invalid",
		}
	}
	return failure{
		report:  CLIError{Code: ErrCodeGeneric, Message: err.Error()},
		exit:    ExitFailure,
		summary: "command failed",
	}
}

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(err error) error {
	d := describe(err)
	if f.json() {
		_ = f.encodeJSON(CLIResponse{Status: "error", Error: &d.report, RequestID: d.requestID})
	} else {
		f.writeError(d.report)
	}
	return WrapExitError(d.exit, d.summary, err)
}

func (f *OutputFormatter) writeError(e CLIError) {
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	if f.Verbose && e.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", e.Details)
	}
}

// encodeJSON writes v as indented JSON.
func (f *OutputFormatter) encodeJSON(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// VerboseLog writes a diagnostic line in verbose mode. Diagnostics go to
// ErrWriter so they never corrupt JSON on Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the diagnostic writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
