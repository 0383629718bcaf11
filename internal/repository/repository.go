package repository

import (
	"context"

	"retail-pos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the catalogue data access operations.
type ProductRepository interface {
	// List returns one page of products matching the search term together
	// with the total number of matches. Results are ordered by name.
	List(ctx context.Context, query model.ProductQuery) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// LockByIDs loads and row-locks the given products inside tx.
	// Missing IDs are simply absent from the result.
	LockByIDs(ctx context.Context, tx pgx.Tx, ids []string) (map[string]model.Product, error)

	// DecrementStock subtracts amount from the product's stock inside tx and
	// returns the remaining stock. It fails with a not-found or
	// insufficient-stock domain error without modifying anything.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, amount int) (int, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces the editable fields of an existing product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id string) error

	// CountLowStock counts products whose stock is below threshold.
	CountLowStock(ctx context.Context, threshold int) (int, error)
}

// SaleRepository defines the sales ledger operations. The ledger is append-only.
type SaleRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Append inserts ledger rows within the provided transaction and fills in their IDs.
	Append(ctx context.Context, tx pgx.Tx, records []model.SaleRecord) error

	// ListAll returns every ledger row ordered by order date.
	ListAll(ctx context.Context, order model.SortOrder) ([]model.SaleRecord, error)

	// ListByOrderID returns the rows of one checkout.
	ListByOrderID(ctx context.Context, orderID string) ([]model.SaleRecord, error)

	// Aggregate returns ledger-wide sales and profit sums and the number of orders.
	Aggregate(ctx context.Context) (model.SalesTotals, error)

	// GroupByCategory sums sales per category label.
	GroupByCategory(ctx context.Context) (map[string]decimal.Decimal, error)

	// RecentByMonth sums the most recent limit rows per YYYY-MM month.
	RecentByMonth(ctx context.Context, limit int) (map[string]decimal.Decimal, error)
}

// UserRepository defines the account data access operations.
type UserRepository interface {
	// Create inserts a new user. Fails with a duplicate domain error when the
	// email is already registered.
	Create(ctx context.Context, user *model.User) error

	// Upsert inserts the user or refreshes name, password and role of the
	// account with the same email.
	Upsert(ctx context.Context, user *model.User) error

	// GetByEmail retrieves a user by email, case-insensitively. Returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID retrieves a user by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}
