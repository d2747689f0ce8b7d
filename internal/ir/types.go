package ir

import "maps"

// Scenario is the operational context classified from a goal.
type Scenario string

// The closed set of scenarios, in classification priority order.
const (
	ScenarioElectricalWork       Scenario = "electrical_work"
	ScenarioConstructionWork     Scenario = "construction_work"
	ScenarioFireRisk             Scenario = "fire_risk_environment"
	ScenarioWorkingAtHeight      Scenario = "working_at_height"
	ScenarioConfinedSpace        Scenario = "confined_space"
	ScenarioChemicalEnvironment  Scenario = "chemical_environment"
	ScenarioFacilitySecurity     Scenario = "facility_security"
	ScenarioEquipmentDiagnostics Scenario = "equipment_diagnostics"
	ScenarioToolUsage            Scenario = "tool_usage"
)

// Scenarios lists every valid scenario.
var Scenarios = []Scenario{
	ScenarioElectricalWork,
	ScenarioConstructionWork,
	ScenarioFireRisk,
	ScenarioWorkingAtHeight,
	ScenarioConfinedSpace,
	ScenarioChemicalEnvironment,
	ScenarioFacilitySecurity,
	ScenarioEquipmentDiagnostics,
	ScenarioToolUsage,
}

// Valid reports whether s belongs to the closed scenario set.
func (s Scenario) Valid() bool {
	for _, known := range Scenarios {
		if s == known {
			return true
		}
	}
	return false
}

// Component names a product category, e.g. "digital-multimeters".
type Component string

// Product is a catalog entry. Products are immutable reference data.
type Product struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Price             Cents          `json:"price"`
	Category          string         `json:"category"`
	Specs             map[string]any `json:"specs"`
	CompatibilityTags []string       `json:"compatibility_tags"`
}

// Clone returns a copy of p that shares no maps or slices with it.
func (p Product) Clone() Product {
	out := p
	if p.Specs != nil {
		out.Specs = maps.Clone(p.Specs)
	}
	if p.CompatibilityTags != nil {
		out.CompatibilityTags = append([]string(nil), p.CompatibilityTags...)
	}
	return out
}

// CartItem is a product copy annotated with the component it satisfies.
type CartItem struct {
	Product
	Component Component `json:"component"`
}

// Selection binds one component to its primary product and alternatives.
type Selection struct {
	Component    Component `json:"component"`
	Product      Product   `json:"product"`
	Alternatives []Product `json:"alternatives"`
}

// CompatibilityIssue records an incompatible component pair.
type CompatibilityIssue struct {
	Component1 Component `json:"component1"`
	Component2 Component `json:"component2"`
	Issue      string    `json:"issue"`
}

// ComponentPair is an unordered pair as evaluated by the checker.
type ComponentPair struct {
	A Component `json:"a"`
	B Component `json:"b"`
}

// CompatibilityMatrix maps component -> other component -> compatible.
// Self-pairs are never present.
type CompatibilityMatrix map[Component]map[Component]bool

// Set records the verdict for a pair in both directions.
func (m CompatibilityMatrix) Set(a, b Component, compatible bool) {
	if m[a] == nil {
		m[a] = make(map[Component]bool)
	}
	if m[b] == nil {
		m[b] = make(map[Component]bool)
	}
	m[a][b] = compatible
	m[b][a] = compatible
}

// State is the record threaded through the six pipeline stages.
// A fresh State is created per request and owned by that request.
type State struct {
	RequestID string `json:"request_id"`
	Goal      string `json:"user_goal"`

	// Intent classifier
	Scenario Scenario `json:"scenario"`

	// Component planner
	RequiredComponents []Component `json:"required_components"`

	// Dependency resolver
	ComponentDependencies map[Component][]Component `json:"component_dependencies"`
	MissingDependencies   []Component               `json:"missing_dependencies"`

	// Compatibility checker
	CompatibilityMatrix CompatibilityMatrix  `json:"compatibility_matrix"`
	CompatibilityIssues []CompatibilityIssue `json:"compatibility_issues"`
	Unanalyzed          []ComponentPair      `json:"unanalyzed_pairs"`

	// Product selector
	Selections []Selection `json:"selected_products"`

	// Cart composer
	FinalCart   []CartItem `json:"final_cart"`
	TotalPrice  Cents      `json:"total_price"`
	CartSummary string     `json:"cart_summary"`

	// Orchestrator
	CompletenessScore float64  `json:"completeness_score"`
	ValidationErrors  []string `json:"validation_errors"`
}

// AllComponents returns required components followed by missing dependencies.
func (s *State) AllComponents() []Component {
	out := make([]Component, 0, len(s.RequiredComponents)+len(s.MissingDependencies))
	out = append(out, s.RequiredComponents...)
	return append(out, s.MissingDependencies...)
}

// Selected returns the selection for c, if any.
func (s *State) Selected(c Component) (Selection, bool) {
	for _, sel := range s.Selections {
		if sel.Component == c {
			return sel, true
		}
	}
	return Selection{}, false
}

// Result is the caller-facing outcome of one resolution.
type Result struct {
	RequestID         string     `json:"request_id"`
	Cart              []CartItem `json:"cart"`
	TotalPrice        Cents      `json:"total_price"`
	CompletenessScore float64    `json:"completeness_score"`
	CartSummary       string     `json:"cart_summary"`
	ValidationErrors  []string   `json:"validation_errors"`
	Metadata          Metadata   `json:"metadata"`
}

// ParsedIntent is the classifier output as exposed to callers.
type ParsedIntent struct {
	Scenario Scenario `json:"scenario"`
}

// Metadata exposes intermediate pipeline results to callers.
type Metadata struct {
	ParsedIntent             ParsedIntent `json:"parsed_intent"`
	RequiredComponents       []Component  `json:"required_components"`
	MissingDependencies      []Component  `json:"missing_dependencies"`
	SelectedComponents       []Component  `json:"selected_components"`
	UnmatchedComponents      []Component  `json:"unmatched_components"`
	CompatibilityIssuesCount int          `json:"compatibility_issues_count"`
	RulesVersion             string       `json:"rules_version,omitempty"`
	CartHash                 string       `json:"cart_hash,omitempty"`
}
