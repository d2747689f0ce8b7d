package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/config"
	"github.com/roach88/cartpilot/internal/engine"
	"github.com/roach88/cartpilot/internal/match"
	"github.com/roach88/cartpilot/internal/rules"
	"github.com/roach88/cartpilot/internal/store"
)

// Error code constants - unified across all CLI commands.
// Rule-table validation codes (E2xx) come from the rules package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file invalid
	ErrCodeNoFiles     = "E003" // No CUE or scenario files found
	ErrCodeLoadFailed  = "E004" // CUE load or compile failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeNoCatalog   = "E006" // No catalog configured
	ErrCodeWriteFailed = "E007" // File or database write error
)

// LoadError represents an error that occurred while assembling a pipeline
// from configuration.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadRules loads the configured rule table: dir, or the embedded default
// when dir is empty.
func loadRules(dir string) (*rules.RuleSet, error) {
	if dir == "" {
		rs, err := rules.Default()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "embedded rules", Err: err}
		}
		return rs, nil
	}

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "error accessing rules directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	rs, err := rules.LoadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading rules from %s", dir), Err: err}
	}
	return rs, nil
}

// openCatalog opens the configured catalog. The database wins over the
// file. The returned close function is never nil.
func openCatalog(cfg *config.Config) (catalog.Source, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.Catalog.DB != "":
		if _, err := os.Stat(cfg.Catalog.DB); err != nil {
			return nil, noop, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog database not found: %s", cfg.Catalog.DB)}
		}
		st, err := store.Open(cfg.Catalog.DB)
		if err != nil {
			return nil, noop, &LoadError{Code: ErrCodeLoadFailed, Message: "open catalog database", Err: err}
		}
		return st.Source(cfg.Catalog.Vendor), st.Close, nil

	case cfg.Catalog.Path != "":
		if _, err := os.Stat(cfg.Catalog.Path); err != nil {
			return nil, noop, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog file not found: %s", cfg.Catalog.Path)}
		}
		return catalog.JSONFile{Path: cfg.Catalog.Path, Vendor: cfg.Catalog.Vendor}, noop, nil
	}

	return nil, noop, &LoadError{
		Code:    ErrCodeNoCatalog,
		Message: "no catalog configured: set catalog.path or catalog.db (or --catalog / --db)",
	}
}

// loadRuleSet loads and version-checks the configured rule table.
func loadRuleSet(cfg *config.Config) (*rules.RuleSet, error) {
	rs, err := loadRules(cfg.Rules.Dir)
	if err != nil {
		return nil, err
	}
	if err := rs.CheckVersion(cfg.Rules.Version); err != nil {
		return nil, &LoadError{Code: rules.ErrVersionUnsatisfiable, Message: "rules version", Err: err}
	}
	return rs, nil
}

// buildPipeline assembles a pipeline from configuration.
// The returned close function releases the catalog and is never nil.
func buildPipeline(cfg *config.Config, logger *slog.Logger, opts ...engine.Option) (*engine.Pipeline, func() error, error) {
	noop := func() error { return nil }

	rs, err := loadRuleSet(cfg)
	if err != nil {
		return nil, noop, err
	}

	matcher, err := match.New(cfg.Matcher.Strategy, cfg.ComponentMapping(), cfg.Matcher.Fallback)
	if err != nil {
		return nil, noop, &LoadError{Code: ErrCodeConfig, Message: "matcher", Err: err}
	}

	src, closeCatalog, err := openCatalog(cfg)
	if err != nil {
		return nil, noop, err
	}

	all := append([]engine.Option{
		engine.WithMatcher(matcher),
		engine.WithLogger(logger),
		engine.WithExpansion(cfg.Rules.Expansion),
		engine.WithUnanalyzedReported(cfg.Rules.UnknownPairs == config.UnknownPairsReport),
	}, opts...)

	p, err := engine.New(rs, src, all...)
	if err != nil {
		_ = closeCatalog()
		return nil, noop, err
	}
	return p, closeCatalog, nil
}
