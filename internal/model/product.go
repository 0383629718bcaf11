package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money crosses the API as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// LowStockThreshold is the stock level below which a product counts as low stock.
const LowStockThreshold = 10

// Storage limits of the products table: stock is an INTEGER and price a
// NUMERIC(12,2).
const (
	MaxStock      = math.MaxInt32
	PriceDecimals = 2
)

// MaxPrice is the largest price the products table can hold.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// DefaultSubCategory is assigned to products created without a sub-category.
const DefaultSubCategory = "General"

// Product represents an item in the store catalogue.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	SubCategory string          `json:"subCategory" db:"sub_category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Image       string          `json:"image" db:"image"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductInput carries the editable product fields from a create or update request.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=100"`
	SubCategory string          `json:"subCategory" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0,lte=2147483647"`
}

// ProductQuery describes a paginated catalogue search.
type ProductQuery struct {
	Page   int
	Limit  int
	Search string
}

// Offset returns the row offset for the 1-based page.
func (q ProductQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ProductPage is one page of catalogue results.
type ProductPage struct {
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
	TotalItems int       `json:"totalItems"`
	Items      []Product `json:"data"`
}
