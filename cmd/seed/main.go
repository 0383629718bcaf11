package main

import (
	"context"
	"fmt"
	"os"

	"retail-pos/internal/auth"
	"retail-pos/internal/config"
	"retail-pos/internal/database"
	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// seedPassword is shared by the demo accounts.
const seedPassword = "123456"

var seedUsers = []model.User{
	{Name: "Super Admin", Email: "admin@toko.com", Role: model.RoleAdmin},
	{Name: "Kasir Staff", Email: "staff@toko.com", Role: model.RoleStaff},
}

var seedProducts = []model.Product{
	{ID: "PROD-1", Name: "Kopi Susu Gula Aren", Category: "Minuman", SubCategory: "Kopi", Price: decimal.NewFromInt(18000), Stock: 50},
	{ID: "PROD-2", Name: "Teh Melati", Category: "Minuman", SubCategory: "Teh", Price: decimal.NewFromInt(8000), Stock: 40},
	{ID: "PROD-3", Name: "Roti Bakar Coklat", Category: "Makanan", SubCategory: "Roti", Price: decimal.NewFromInt(15000), Stock: 25},
	{ID: "PROD-4", Name: "Kentang Goreng", Category: "Makanan", SubCategory: "Camilan", Price: decimal.NewFromInt(12000), Stock: 8},
	{ID: "PROD-5", Name: "Air Mineral 600ml", Category: "Minuman", SubCategory: model.DefaultSubCategory, Price: decimal.NewFromInt(5000), Stock: 100},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := seedAccounts(ctx, repository.NewUserRepository(pool, logger), logger); err != nil {
		return err
	}

	if err := seedCatalogue(ctx, repository.NewProductRepository(pool, logger), logger); err != nil {
		return err
	}

	logger.Info().Msg("seeding completed")
	return nil
}

// seedAccounts upserts the demo accounts, resetting their password and role.
func seedAccounts(ctx context.Context, users repository.UserRepository, logger zerolog.Logger) error {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	for _, u := range seedUsers {
		user := u
		user.ID = uuid.New()
		user.PasswordHash = hash
		if err := users.Upsert(ctx, &user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", user.Email, err)
		}
		logger.Info().Str("email", user.Email).Str("role", user.Role).Msg("account ready")
	}

	return nil
}

// seedCatalogue inserts demo products that are not present yet. Existing
// products keep their current stock.
func seedCatalogue(ctx context.Context, products repository.ProductRepository, logger zerolog.Logger) error {
	for _, p := range seedProducts {
		existing, err := products.GetByID(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to look up product %s: %w", p.ID, err)
		}
		if existing != nil {
			logger.Debug().Str("product_id", p.ID).Msg("product already present")
			continue
		}

		product := p
		if err := products.Create(ctx, &product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
		logger.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product created")
	}

	return nil
}
