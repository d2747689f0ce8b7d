package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
	"github.com/roach88/cartpilot/internal/testutil"
)

// Harness is the test execution engine.
// It resolves scenarios against one rule set and catalog with a fixed
// request id per scenario.
type Harness struct {
	rules     *rules.RuleSet
	catalog   catalog.Source
	matcher   match.Matcher
	logger    *slog.Logger
	expansion rules.Expansion
	report    bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithMatcher replaces the default substring matcher.
func WithMatcher(m match.Matcher) Option {
	return func(h *Harness) { h.matcher = m }
}

// WithLogger routes pipeline logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithExpansion sets the default expansion mode.
func WithExpansion(e rules.Expansion) Option {
	return func(h *Harness) { h.expansion = e }
}

// WithUnanalyzedReported sets the default unknown-pair policy.
func WithUnanalyzedReported(report bool) Option {
	return func(h *Harness) { h.report = report }
}

// New creates a harness. The catalog is loaded once and shared by every
// scenario.
func New(rs *rules.RuleSet, src catalog.Source, opts ...Option) *Harness {
	h := &Harness{
		rules:     rs,
		catalog:   catalog.NewCache(src),
		matcher:   match.Substring{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		expansion: rules.ExpandOneLevel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build a pipeline with the scenario's overrides and fixed request id
// 2. Resolve the goal
// 3. Check the expected error code, or evaluate expectations
//
// The returned error covers harness failures only (a rule set the pipeline
// rejects, an unexpected non-pipeline error); failed expectations are
// reported in Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	p, err := h.pipeline(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	state, err := p.Resolve(ctx, scenario.Goal)
	if err != nil {
		var pe *engine.PipelineError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.ErrorCode = string(pe.Code)
		if scenario.Expect.Error == "" {
			result.AddError(fmt.Sprintf("resolution failed: %v", pe))
		} else if string(pe.Code) != scenario.Expect.Error {
			result.AddError((&AssertionError{
				Field:    "error",
				Expected: scenario.Expect.Error,
				Actual:   string(pe.Code),
			}).Error())
		}
		return result, nil
	}

	out, err := engine.Result(state, p.Rules().Version, h.reportFor(scenario))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build result: %w", scenario.Name, err)
	}
	result.State = state
	result.Output = out

	if scenario.Expect.Error != "" {
		result.AddError((&AssertionError{
			Field:    "error",
			Expected: scenario.Expect.Error,
			Actual:   "resolution succeeded",
		}).Error())
		return result, nil
	}

	for _, e := range EvaluateExpectations(state, out, scenario.Expect) {
		result.AddError(e.Error())
	}

	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"failures", len(result.Errors),
	)
	return result, nil
}

// pipeline builds the pipeline for one scenario.
func (h *Harness) pipeline(s *Scenario) (*engine.Pipeline, error) {
	expansion := h.expansion
	if s.Options.Expansion != "" {
		expansion = s.Options.Expansion
	}
	return engine.New(h.rules, h.catalog,
		engine.WithMatcher(h.matcher),
		engine.WithLogger(h.logger),
		engine.WithExpansion(expansion),
		engine.WithUnanalyzedReported(h.reportFor(s)),
		engine.WithRequestIDs(testutil.NewFixedRequestID(s.RequestID)),
	)
}

func (h *Harness) reportFor(s *Scenario) bool {
	switch s.Options.UnknownPairs {
	case config.UnknownPairsReport:
		return true
	case config.UnknownPairsCompatible:
		return false
	}
	return h.report
}
