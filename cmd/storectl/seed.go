package main

import (
	"fmt"

	"cleat-store/internal/repository"
	"cleat-store/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog",
	Long: `Insert a small catalog of football boots covering every category,
a few discounted products and a few new arrivals. Running it twice inserts
the products twice.`,
	RunE: runSeed,
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func originalPrice(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// demoCatalog is the seed data
func demoCatalog() []service.ProductInput {
	adultSizes := []string{"38", "39", "40", "41", "42", "43", "44"}
	return []service.ProductInput{
		{Name: "Mercurial Vapor 15 Elite", Brand: "Nike", Category: "campo", Price: price(1299), OriginalPrice: originalPrice(1599),
			StockQuantity: 12, Sizes: adultSizes, Colors: []string{"black", "volt"}, Tags: []string{"speed"}},
		{Name: "Phantom GX Academy", Brand: "Nike", Category: "society", Price: price(499),
			StockQuantity: 30, Sizes: adultSizes, Colors: []string{"white"}, IsNew: true},
		{Name: "Predator Club", Brand: "Adidas", Category: "futsal", Price: price(299), OriginalPrice: originalPrice(399),
			StockQuantity: 25, Sizes: adultSizes, Colors: []string{"black", "red"}},
		{Name: "Copa Pure 2 League", Brand: "Adidas", Category: "campo", Price: price(649),
			StockQuantity: 8, Sizes: adultSizes, Colors: []string{"white", "blue"}, Tags: []string{"leather"}},
		{Name: "Future 7 Play", Brand: "Puma", Category: "society", Price: price(349),
			StockQuantity: 0, Sizes: adultSizes, Colors: []string{"orange"}},
		{Name: "Ultra 5 Match", Brand: "Puma", Category: "futsal", Price: price(279), IsNew: true,
			StockQuantity: 40, Sizes: adultSizes, Colors: []string{"yellow"}},
		{Name: "Morelia Neo IV", Brand: "Mizuno", Category: "campo", Price: price(899), OriginalPrice: originalPrice(999),
			StockQuantity: 5, Sizes: adultSizes, Colors: []string{"black"}, Tags: []string{"leather"}},
		{Name: "Artilheira VI", Brand: "Penalty", Category: "infantil", Price: price(159),
			StockQuantity: 50, Sizes: []string{"30", "31", "32", "33", "34"}, Colors: []string{"blue"}},
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	products := service.NewProductService(
		repository.NewProductRepository(db.DB()),
		repository.NewFacetRepository(db.DB()),
		cfg.Catalog.PageSize,
		log,
	)

	ctx := cmd.Context()
	for _, input := range demoCatalog() {
		product, err := products.Create(ctx, input, "")
		if err != nil {
			return fmt.Errorf("failed to seed %q: %w", input.Name, err)
		}
		log.Debug("Seeded product", zap.String("id", product.ID), zap.String("name", product.Name))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", len(demoCatalog()))
	return nil
}
