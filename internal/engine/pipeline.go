package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
)

// Observer is notified of every finished resolution.
// Implemented by metrics.Recorder. Observers must be safe for concurrent
// use when the pipeline is shared by ResolveBatch.
type Observer interface {
	ObserveResolution(res *ir.Result, elapsed time.Duration)
	ObserveFailure(err *PipelineError, elapsed time.Duration)
}

// Pipeline resolves goals against one rule set and one catalog.
//
// INVARIANTS:
//   - stage order NEVER changes
//   - fields are never written after New, so Run is safe for concurrent use
type Pipeline struct {
	rules         *rules.RuleSet
	catalog       catalog.Source
	matcher       match.Matcher
	ids           RequestIDGenerator
	observer      Observer
	logger        *slog.Logger
	expansion     rules.Expansion
	reportUnknown bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMatcher sets the product matching strategy.
// Default: match.Substring.
func WithMatcher(m match.Matcher) Option {
	return func(p *Pipeline) { p.matcher = m }
}

// WithRequestIDs sets the request id generator.
// Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(p *Pipeline) { p.ids = g }
}

// WithObserver registers an observer for finished resolutions.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithExpansion sets the dependency expansion mode.
// Default: rules.ExpandOneLevel.
func WithExpansion(e rules.Expansion) Option {
	return func(p *Pipeline) { p.expansion = e }
}

// WithUnanalyzedReported adds one validation error per component pair that
// no rule or ecosystem covers. Such pairs are always listed in the state;
// this only controls whether they are surfaced as validation errors.
func WithUnanalyzedReported(report bool) Option {
	return func(p *Pipeline) { p.reportUnknown = report }
}

// New creates a Pipeline over rs and src.
//
// The rule set is validated here, once, so a malformed table fails at
// construction with ErrCodeRulesInvalid instead of on every request.
// src is wrapped in a catalog.Cache unless it already is one.
func New(rs *rules.RuleSet, src catalog.Source, opts ...Option) (*Pipeline, error) {
	if rs == nil {
		return nil, &PipelineError{Code: ErrCodeRulesInvalid, Message: "no rule set"}
	}
	if src == nil {
		return nil, &PipelineError{Code: ErrCodeCatalogUnavailable, Message: "no catalog source"}
	}

	if errs := rules.Validate(rs); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, &PipelineError{
			Code:    ErrCodeRulesInvalid,
			Message: fmt.Sprintf("%d rule table error(s): %s", len(errs), strings.Join(msgs, "; ")),
		}
	}

	if _, ok := src.(*catalog.Cache); !ok {
		src = catalog.NewCache(src)
	}

	p := &Pipeline{
		rules:     rs,
		catalog:   src,
		matcher:   match.Substring{},
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
		expansion: rules.ExpandOneLevel,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := rs.CheckExpansion(p.expansion); err != nil {
		return nil, &PipelineError{Code: ErrCodeRulesInvalid, Message: "dependency expansion", Err: err}
	}

	return p, nil
}

// Rules returns the pipeline's rule set. Callers must not modify it.
func (p *Pipeline) Rules() *rules.RuleSet {
	return p.rules
}

// stage is one named step of the pipeline. run mutates state and returns
// log attributes describing what it did.
type stage struct {
	name string
	run  func(state *ir.State) []any
}

// stages returns the six stages in their fixed order.
func (p *Pipeline) stages(products []ir.Product) []stage {
	return []stage{
		{"intent", func(s *ir.State) []any {
			s.Scenario = ClassifyIntent(p.rules.Intent, p.rules.DefaultScenario, s.Goal)
			return []any{"scenario", s.Scenario}
		}},
		{"planner", func(s *ir.State) []any {
			s.RequiredComponents = PlanComponents(p.rules, s.Scenario)
			return []any{"required", len(s.RequiredComponents)}
		}},
		{"dependency", func(s *ir.State) []any {
			s.ComponentDependencies, s.MissingDependencies = ResolveDependencies(p.rules, s.RequiredComponents, p.expansion)
			return []any{"missing", len(s.MissingDependencies)}
		}},
		{"compatibility", func(s *ir.State) []any {
			report := CheckCompatibility(p.rules, s.AllComponents())
			s.CompatibilityMatrix = report.Matrix
			s.CompatibilityIssues = report.Issues
			s.Unanalyzed = report.Unanalyzed
			return []any{"issues", len(report.Issues), "unanalyzed", len(report.Unanalyzed)}
		}},
		{"selection", func(s *ir.State) []any {
			s.Selections = SelectProducts(p.matcher, s.AllComponents(), products)
			return []any{"selected", len(s.Selections)}
		}},
		{"composer", func(s *ir.State) []any {
			cart := ComposeCart(s.Selections)
			s.FinalCart = cart.Items
			s.TotalPrice = cart.Total
			s.CartSummary = cart.Summary
			return []any{"items", len(cart.Items), "total", cart.Total.String()}
		}},
	}
}

// Run resolves one goal.
//
// The catalog is loaded (once per process, via the cache) before the first
// stage; ctx bounds that load only. Stages themselves do not block.
//
// Returns either a complete Result or a *PipelineError, never both.
func (p *Pipeline) Run(ctx context.Context, goal string) (*ir.Result, error) {
	state, err := p.Resolve(ctx, goal)
	if err != nil {
		return nil, err
	}
	return Result(state, p.rules.Version, p.reportUnknown)
}

// Resolve runs the pipeline and returns the full state, including the
// compatibility matrix and alternatives that Result does not expose.
func (p *Pipeline) Resolve(ctx context.Context, goal string) (*ir.State, error) {
	start := time.Now()
	state := &ir.State{RequestID: p.ids.Generate(), Goal: goal}
	log := p.logger.With("request", state.RequestID)

	fail := func(pe *PipelineError) (*ir.State, error) {
		pe.RequestID = state.RequestID
		log.Warn("resolution failed", "code", pe.Code, "stage", pe.Stage, "error", pe.Message)
		if p.observer != nil {
			p.observer.ObserveFailure(pe, time.Since(start))
		}
		return nil, pe
	}

	// Whitespace is still a goal; it classifies as the default scenario.
	if goal == "" {
		return fail(&PipelineError{Code: ErrCodeInvalidRequest, Message: "goal is empty"})
	}

	products, err := p.catalog.Load(ctx)
	if err != nil {
		return fail(&PipelineError{Code: ErrCodeCatalogUnavailable, Message: "load catalog", Err: err})
	}

	for _, st := range p.stages(products) {
		if pe := runStage(st, state, log); pe != nil {
			return fail(pe)
		}
	}

	state.CompletenessScore = Completeness(state.AllComponents(), state.Selections)
	state.ValidationErrors = ValidationErrors(state, p.reportUnknown)

	log.Info("resolved",
		"scenario", state.Scenario,
		"items", len(state.FinalCart),
		"completeness", state.CompletenessScore,
		"issues", len(state.CompatibilityIssues),
	)

	if p.observer != nil {
		// The observer sees the same Result the caller gets.
		res, err := Result(state, p.rules.Version, p.reportUnknown)
		if err != nil {
			return fail(&PipelineError{Code: ErrCodeStageFailed, Stage: "result", Message: "build result", Err: err})
		}
		p.observer.ObserveResolution(res, time.Since(start))
	}

	return state, nil
}

// runStage executes one stage, converting a panic into a STAGE_FAILED error.
func runStage(st stage, state *ir.State, log *slog.Logger) (pe *PipelineError) {
	defer func() {
		if r := recover(); r != nil {
			pe = &PipelineError{
				Code:    ErrCodeStageFailed,
				Stage:   st.name,
				Message: fmt.Sprintf("stage panicked: %v", r),
			}
		}
	}()

	attrs := st.run(state)
	log.Debug("stage complete", append([]any{"stage", st.name}, attrs...)...)
	return nil
}

// ValidationErrors lists, in order: one entry per compatibility issue, one
// per unmatched component, and, if reportUnanalyzed, one per pair no rule
// covers. The result is never nil.
func ValidationErrors(state *ir.State, reportUnanalyzed bool) []string {
	errs := []string{}
	for _, issue := range state.CompatibilityIssues {
		errs = append(errs, fmt.Sprintf("%s: %s and %s", issue.Issue, issue.Component1, issue.Component2))
	}
	for _, c := range Unmatched(state) {
		errs = append(errs, fmt.Sprintf("No product found for component: %s", c))
	}
	if reportUnanalyzed {
		for _, pair := range state.Unanalyzed {
			errs = append(errs, fmt.Sprintf("No compatibility rule for: %s and %s", pair.A, pair.B))
		}
	}
	return errs
}

// Unmatched returns the components without a selection, in component order.
func Unmatched(state *ir.State) []ir.Component {
	out := []ir.Component{}
	seen := make(map[ir.Component]bool)
	for _, c := range state.AllComponents() {
		if seen[c] {
			continue
		}
		seen[c] = true
		if _, ok := state.Selected(c); !ok {
			out = append(out, c)
		}
	}
	return out
}

// Result projects a finished state onto the caller-facing record.
func Result(state *ir.State, rulesVersion string, reportUnanalyzed bool) (*ir.Result, error) {
	hash, err := ir.CartHash(state.FinalCart)
	if err != nil {
		return nil, err
	}

	selected := make([]ir.Component, len(state.Selections))
	for i, s := range state.Selections {
		selected[i] = s.Component
	}

	validation := state.ValidationErrors
	if validation == nil {
		validation = ValidationErrors(state, reportUnanalyzed)
	}

	return &ir.Result{
		RequestID:         state.RequestID,
		Cart:              state.FinalCart,
		TotalPrice:        state.TotalPrice,
		CompletenessScore: state.CompletenessScore,
		CartSummary:       state.CartSummary,
		ValidationErrors:  validation,
		Metadata: ir.Metadata{
			ParsedIntent:             ir.ParsedIntent{Scenario: state.Scenario},
			RequiredComponents:       state.RequiredComponents,
			MissingDependencies:      state.MissingDependencies,
			SelectedComponents:       selected,
			UnmatchedComponents:      Unmatched(state),
			CompatibilityIssuesCount: len(state.CompatibilityIssues),
			RulesVersion:             rulesVersion,
			CartHash:                 hash,
		},
	}, nil
}
