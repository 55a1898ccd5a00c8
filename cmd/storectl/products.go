package main

import (
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"cleat-store/internal/catalog"
	"cleat-store/internal/repository"

	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect the catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every visible product matching a filter",
	Long: `Walk the listing page by page, exactly as the storefront does, and
print every product. The filter uses the storefront query string, e.g.

  storectl products list --filter "category=futsal&sort=price-asc"`,
	RunE: runProductsList,
}

func init() {
	productsListCmd.Flags().String("filter", "", "storefront query string")
	productsListCmd.Flags().Int("page-size", 0, "page size (defaults to CATALOG_PAGE_SIZE)")
	productsCmd.AddCommand(productsListCmd)
}

func runProductsList(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("filter")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	pageSize, _ := cmd.Flags().GetInt("page-size")
	if pageSize <= 0 {
		pageSize = cfg.Catalog.PageSize
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	paginator := catalog.NewPaginator(repository.NewProductRepository(db.DB()), pageSize, log)
	if err := paginator.LoadPage(ctx, catalog.ParseQuery(values), true); err != nil {
		return err
	}
	for paginator.Snapshot().HasMore {
		if err := paginator.LoadMore(ctx); err != nil {
			return err
		}
	}

	snapshot := paginator.Snapshot()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range snapshot.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Brand, p.Category, p.Price.StringFixed(2), p.StockQuantity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d products\n", len(snapshot.Products))
	if len(snapshot.Products) > 0 {
		facets := catalog.FacetsOf(snapshot.Products)
		fmt.Fprintf(out, "categories: %s\nbrands: %s\nprice: %s - %s\n",
			strings.Join(facets.Categories, ", "),
			strings.Join(facets.Brands, ", "),
			facets.MinPrice.StringFixed(2), facets.MaxPrice.StringFixed(2))
	}
	return nil
}
