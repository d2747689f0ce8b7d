package harness

import "github.com/roach88/cartpilot/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the full pipeline state. Nil when resolution failed.
	State *ir.State `json:"state,omitempty"`

	// Output is the caller-facing result. Nil when resolution failed.
	Output *ir.Result `json:"output,omitempty"`

	// ErrorCode is the pipeline error code when resolution failed.
	ErrorCode string `json:"error_code,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
