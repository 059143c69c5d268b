// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/domain/catalog/product"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/infrastructure/storage/postgres"
	"stockpile/internal/infrastructure/storage/postgres/catalog_repo"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("STOCKPILE_DATABASE_DSN")
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(pool)

	productService := product.NewService(catalog_repo.NewProductRepo(txManager), numeratorService, txManager)
	materialService := material.NewService(catalog_repo.NewMaterialRepo(txManager), numeratorService, txManager)
	recipeService := recipe.NewService(catalog_repo.NewRecipeRepo(txManager), numeratorService, txManager)

	products, err := seedProducts(ctx, productService, log)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	materials, err := seedMaterials(ctx, materialService, log)
	if err != nil {
		log.Fatalw("failed to seed materials", "error", err)
	}

	if err := seedRecipes(ctx, recipeService, products, materials, log); err != nil {
		log.Fatalw("failed to seed recipes", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedProducts(ctx context.Context, svc *product.Service, log *logger.Logger) (map[string]*product.Product, error) {
	specs := []struct {
		sku       string
		name      string
		category  string
		unitCost  string
		unitPrice string
		reorder   int64
	}{
		{"TBL-OAK-01", "Oak Dining Table", "furniture", "120.00", "349.99", 5},
		{"CHR-OAK-01", "Oak Chair", "furniture", "35.50", "89.99", 20},
		{"SHF-PIN-01", "Pine Bookshelf", "furniture", "48.00", "129.99", 10},
		{"BOX-GFT-01", "Gift Box Set", "packaging", "4.20", "14.99", 50},
	}

	out := make(map[string]*product.Product, len(specs))
	for _, s := range specs {
		p := product.NewProduct(s.sku, s.name)
		p.Category = s.category
		p.UnitCost = types.MustMoney(s.unitCost)
		p.UnitPrice = types.MustMoney(s.unitPrice)
		p.ReorderThreshold = s.reorder

		if err := svc.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create product %s: %w", s.sku, err)
		}
		out[s.sku] = p
		log.Infow("seeded product", "sku", s.sku, "id", p.ID)
	}
	return out, nil
}

func seedMaterials(ctx context.Context, svc *material.Service, log *logger.Logger) (map[string]*material.RawMaterial, error) {
	specs := []struct {
		name    string
		unit    string
		stock   float64
		cost    string
		reorder float64
	}{
		{"Oak Planks", "m2", 180.5, "22.40", 40},
		{"Pine Boards", "m2", 95, "11.80", 25},
		{"Wood Glue", "l", 24.75, "6.30", 5},
		{"Varnish", "l", 36, "9.90", 8},
		{"Screws 4x40", "pcs", 5000, "0.03", 1000},
	}

	out := make(map[string]*material.RawMaterial, len(specs))
	for _, s := range specs {
		m := material.NewRawMaterial(s.name, s.unit)
		m.CurrentStock = types.NewQuantityFromFloat64(s.stock)
		m.CostPerUnit = types.MustMoney(s.cost)
		m.ReorderLevel = types.NewQuantityFromFloat64(s.reorder)

		if err := svc.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("create material %q: %w", s.name, err)
		}
		out[s.name] = m
		log.Infow("seeded material", "name", s.name, "id", m.ID)
	}
	return out, nil
}

func seedRecipes(
	ctx context.Context,
	svc *recipe.Service,
	products map[string]*product.Product,
	materials map[string]*material.RawMaterial,
	log *logger.Logger,
) error {
	table := recipe.NewRecipe(products["TBL-OAK-01"].ID, "Oak Dining Table v1")
	table.AddLine(materials["Oak Planks"].ID, types.NewQuantityFromFloat64(3.2), "m2", decimal.NewFromInt(10))
	table.AddLine(materials["Wood Glue"].ID, types.NewQuantityFromFloat64(0.4), "l", decimal.NewFromInt(5))
	table.AddLine(materials["Varnish"].ID, types.NewQuantityFromFloat64(0.6), "l", decimal.Zero)
	table.AddLine(materials["Screws 4x40"].ID, types.NewQuantityFromInt(24), "pcs", decimal.Zero)

	chair := recipe.NewRecipe(products["CHR-OAK-01"].ID, "Oak Chair v1")
	chair.AddLine(materials["Oak Planks"].ID, types.NewQuantityFromFloat64(0.9), "m2", decimal.NewFromInt(10))
	chair.AddLine(materials["Wood Glue"].ID, types.NewQuantityFromFloat64(0.15), "l", decimal.NewFromInt(5))
	chair.AddLine(materials["Screws 4x40"].ID, types.NewQuantityFromInt(12), "pcs", decimal.Zero)

	shelf := recipe.NewRecipe(products["SHF-PIN-01"].ID, "Pine Bookshelf v1")
	shelf.AddLine(materials["Pine Boards"].ID, types.NewQuantityFromFloat64(2.4), "m2", decimal.NewFromInt(8))
	shelf.AddLine(materials["Varnish"].ID, types.NewQuantityFromFloat64(0.3), "l", decimal.Zero)
	shelf.AddLine(materials["Screws 4x40"].ID, types.NewQuantityFromInt(16), "pcs", decimal.Zero)

	for _, r := range []*recipe.Recipe{table, chair, shelf} {
		if err := svc.Create(ctx, r); err != nil {
			return fmt.Errorf("create recipe %q: %w", r.Name, err)
		}
		log.Infow("seeded recipe", "name", r.Name, "id", r.ID)
	}
	return nil
}
