package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/ir"
)

// Catalog returns a small grainger-style catalog covering most components
// of the default rule table.
//
// Deliberate gaps and overlaps:
//   - no electrical-insulating-gloves or hearing-protection products
//   - full-face-respirators precedes respirators, so "respirators" picks it
//   - video-surveillance also matches the monitors product (an alternative)
//   - a knowledge article priced at zero
func Catalog() []ir.Product {
	return []ir.Product{
		product("digital-multimeters-fluke-117-true-rms", "Fluke 117 True RMS Multimeter", 24999, "test_instruments", "testing"),
		product("digital-multimeters-klein-mm400", "Klein MM400 Multimeter", 8999, "test_instruments", "testing"),
		product("clamp-meters-fluke-323", "Fluke 323 Clamp Meter", 15999, "test_instruments", "testing"),
		product("kh-what-is-a-clamp-meter", "What Is a Clamp Meter?", 0, "guide", "guide"),
		product("safety-goggles-3m-virtua-ccs", "3M Virtua CCS Goggles", 1249, "safety", "ppe"),
		product("hard-hats-and-helmets-msa-v-gard", "MSA V-Gard Hard Hat", 2999, "safety", "ppe"),
		product("safety-gloves-ansell-hyflex-11-800", "Ansell HyFlex Gloves", 899, "safety", "ppe"),
		product("fire-extinguishers-amerex-b500", "Amerex B500 Extinguisher", 5999, "safety", "ppe"),
		product("safety-alarms-warning-lights-federal-signal", "Federal Signal Warning Light", 12999, "safety", "ppe"),
		product("fall-protection-3m-dbi-sala-harness", "3M DBI-SALA Harness", 24999, "safety", "ppe"),
		product("portable-gas-detectors-bw-clip4", "BW Clip4 Gas Detector", 49900, "safety", "ppe"),
		product("full-face-respirators-3m-6800", "3M 6800 Full Face Respirator", 18999, "safety", "ppe"),
		product("respirators-3m-6200-half-mask", "3M 6200 Half Mask", 2499, "safety", "ppe"),
		product("spill-kits-brady-oil-only", "Brady Oil Spill Kit", 14999, "safety", "ppe"),
		product("video-surveillance-axis-m3106", "Axis M3106 Camera", 39900, "security", "security"),
		product("video-surveillance-monitors-22in", "22in Surveillance Monitor", 19999, "security", "security"),
		product("locks-master-lock-6121", "Master Lock 6121", 1499, "security", "security"),
		product("thermal-cameras-flir-c5", "FLIR C5 Thermal Camera", 69900, "test_instruments", "testing"),
		product("air-quality-sensors-extech-co260", "Extech CO260 Air Quality Meter", 29999, "test_instruments", "testing"),
		product("power-drills-dewalt-dcd771", "DeWalt DCD771 Drill", 9900, "tools", "hand_tool"),
		product("wrenches-crescent-adjustable-8in", "Crescent 8in Adjustable Wrench", 1899, "tools", "hand_tool"),
		product("pliers-knipex-cobra-10in", "Knipex Cobra Pliers", 3999, "tools", "hand_tool"),
	}
}

func product(id, name string, price ir.Cents, category, tag string) ir.Product {
	return ir.Product{
		ID:                id,
		Name:              name,
		Price:             price,
		Category:          category,
		Specs:             map[string]any{"type": category},
		CompatibilityTags: []string{tag},
	}
}

// WriteCatalogFile writes Catalog() as a catalog file in dir and returns
// its path.
func WriteCatalogFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create catalog: %v", err)
	}
	defer f.Close()
	if err := catalog.Encode(f, catalog.DefaultVendor, Catalog()); err != nil {
		t.Fatalf("encode catalog: %v", err)
	}
	return path
}
