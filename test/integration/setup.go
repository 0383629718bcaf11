package integration

import (
	"context"
	"testing"
	"time"

	"retail-pos/internal/config"
	"retail-pos/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// migrated schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		URL:             connStr,
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProduct inserts a single product with the given price and stock.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, id, name, category string, price string, stock int) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, category, sub_category, price, stock)
		 VALUES ($1, $2, $3, 'General', $4, $5)`,
		id, name, category, decimal.RequireFromString(price), stock,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", id, err)
	}
}

// SeedProducts inserts the default catalogue used by the API tests.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	SeedProduct(t, pool, "PROD-1", "Kopi Susu", "Minuman", "18000", 5)
	SeedProduct(t, pool, "PROD-2", "Teh Melati", "Minuman", "8000", 40)
	SeedProduct(t, pool, "PROD-3", "Roti Bakar", "Makanan", "15000", 25)
	SeedProduct(t, pool, "PROD-4", "Kentang Goreng", "Makanan", "12000", 8)
}

// StockOf returns the current stock of a product.
func StockOf(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of %s: %v", id, err)
	}
	return stock
}

// CountSales returns the number of ledger rows.
func CountSales(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM sales").Scan(&n); err != nil {
		t.Fatalf("failed to count sales: %v", err)
	}
	return n
}

// CleanupDB empties every table. TRUNCATE bypasses the row-level guard that
// keeps the sales ledger append-only.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE sales, products, users RESTART IDENTITY")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
