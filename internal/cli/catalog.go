package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cartpilot/internal/catalog"
	"github.com/roach88/cartpilot/internal/ir"
	"github.com/roach88/cartpilot/internal/store"
)

// CatalogListResult is the JSON payload of catalog list.
type CatalogListResult struct {
	Vendor   string       `json:"vendor"`
	Products []ir.Product `json:"products"`
	Count    int          `json:"count"`
	Hash     string       `json:"catalog_hash"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage product catalogs",
	}

	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	cmd.AddCommand(newCatalogListCommand(rootOpts))

	return cmd
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Load a catalog file into the sqlite catalog",
		Long: `Import one vendor section of a catalog file into the sqlite catalog
named by --db (or catalog.db), replacing that vendor's previous import.
Catalog order is preserved.

Example:
  cartpilot catalog import --db catalog.db products.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(rootOpts, args[0], cmd)
		},
	}
}

func runCatalogImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(err)
	}
	if cfg.Catalog.DB == "" {
		return formatter.Fail(&LoadError{Code: ErrCodeNoCatalog, Message: "catalog import needs --db or catalog.db"})
	}

	f, err := os.Open(path)
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog file not found: %s", path), Err: err})
	}
	defer f.Close()

	products, err := catalog.Decode(f, cfg.Catalog.Vendor)
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeLoadFailed, Message: path, Err: err})
	}

	st, err := store.Open(cfg.Catalog.DB)
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: "open catalog database", Err: err})
	}
	defer st.Close()

	rec, err := st.Import(cmd.Context(), cfg.Catalog.Vendor, path, products)
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeWriteFailed, Message: "import", Err: err})
	}
	formatter.VerboseLog("Import %d recorded at %s", rec.ID, rec.ImportedAt.Format("2006-01-02T15:04:05Z"))

	if formatter.Format == "json" {
		return formatter.Success(rec)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d products for %s into %s\n", rec.ProductCount, rec.Vendor, cfg.Catalog.DB)
	fmt.Fprintf(formatter.Writer, "  catalog hash %s\n", rec.CatalogHash)
	return nil
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the configured catalog in catalog order",
		Long: `Print the products of the configured catalog (--db or --catalog) in
the order selection sees them.

Example:
  cartpilot catalog list --db catalog.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(rootOpts, cmd)
		},
	}
}

func runCatalogList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return formatter.Fail(err)
	}

	src, closeCatalog, err := openCatalog(cfg)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeCatalog()

	products, err := src.Load(cmd.Context())
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeLoadFailed, Message: "load catalog", Err: err})
	}
	hash, err := ir.CatalogHash(products)
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CatalogListResult{
			Vendor:   cfg.Catalog.Vendor,
			Products: products,
			Count:    len(products),
			Hash:     hash,
		})
	}

	w := formatter.Writer
	for _, p := range products {
		fmt.Fprintf(w, "%-45s %-20s $%10s  %s\n", p.ID, p.Category, p.Price, p.Name)
	}
	fmt.Fprintf(w, "\n%d products (%s), catalog hash %s\n", len(products), cfg.Catalog.Vendor, hash)
	return nil
}
