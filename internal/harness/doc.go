// Package harness provides conformance testing for cartpilot rule tables
// and catalogs.
//
// The harness loads YAML scenarios, resolves each goal through a real
// pipeline, and checks the outcome against the scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	goal: "check voltage on the electrical panel"
//	request_id: fixed-id            # optional, for golden snapshots
//	options:                        # optional pipeline overrides
//	  unknown_pairs: report
//	  expansion: transitive
//	expect:
//	  scenario: electrical_work
//	  required: [digital-multimeters, clamp-meters]
//	  missing: [safety-goggles, electrical-insulating-gloves]
//	  compatible: [[digital-multimeters, clamp-meters]]
//	  incompatible: []
//	  issues: 0
//	  cart_size: 3
//	  completeness: 0.75
//	  total: 422.47
//	  selected: {clamp-meters: clamp-meters-fluke-323}
//	  unmatched: [electrical-insulating-gloves]
//	  validation_errors: ["No product found for component: electrical-insulating-gloves"]
//	  error: INVALID_REQUEST        # expect the resolution to fail instead
//
// Every expectation is optional; only the keys present are checked.
// required compares in order; missing, unmatched and validation_errors
// compare as sets, since their order follows the dependency expansion.
//
// # Deterministic Testing
//
// Each scenario resolves under a fixed request id (request_id, or
// "test-request-default"), so output can be compared byte-for-byte with a
// golden snapshot:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/electrical.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := harness.New(ruleSet, catalog.Static(products))
//	result, err := h.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
