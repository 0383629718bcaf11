package service

import (
	"context"
	"io"
	"time"

	"retail-pos/internal/imagestore"
	"retail-pos/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List returns one page of products matching the query.
	List(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create adds a product. image may be nil.
	Create(ctx context.Context, input model.ProductInput, image *imagestore.Upload) (*model.Product, error)

	// Update replaces the editable fields of a product. A non-nil image
	// replaces the stored one.
	Update(ctx context.Context, id string, input model.ProductInput, image *imagestore.Upload) (*model.Product, error)

	// Delete removes a product and its image.
	Delete(ctx context.Context, id string) error
}

// OrderService defines operations for checkout.
type OrderService interface {
	// CreateOrder records a cart as one all-or-nothing order.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error)

	// GetByID returns the ledger rows of one order.
	GetByID(ctx context.Context, orderID string) (*model.OrderResult, error)
}

// DashboardService defines the dashboard aggregation.
type DashboardService interface {
	// Summary recomputes the dashboard from the current ledger and catalogue.
	Summary(ctx context.Context) (*model.Dashboard, error)
}

// AuthService defines account operations.
type AuthService interface {
	// Register creates a staff account.
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)

	// Login checks credentials and issues an access token.
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error)

	// Profile returns the account behind an authenticated token.
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// ReportService defines ledger exports.
type ReportService interface {
	// ExportSales writes the whole ledger, newest first, as an xlsx workbook.
	ExportSales(ctx context.Context, w io.Writer) error
}

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role string, now time.Time) (string, error)
}
