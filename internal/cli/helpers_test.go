package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/testutil"
)

// fixtureOptions returns root options over the fixture catalog with a
// fixed request id.
func fixtureOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:      format,
		CatalogPath: testutil.WriteCatalogFile(t, t.TempDir()),
		RequestIDs:  testutil.NewFixedRequestID("cli-test"),
	}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeVendorConfig writes a config file selecting vendor.
func writeVendorConfig(t *testing.T, vendor string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cartpilot.yaml")
	if err := os.WriteFile(path, []byte("catalog:\n  vendor: "+vendor+"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
