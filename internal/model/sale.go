package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Walk-in defaults for sales not attributed to a registered customer.
const (
	WalkInCustomerID = "WALK-IN"
	WalkInSegment    = "Consumer"
	WalkInRegion     = "Local"
)

// ProfitMargin is the fixed share of a sale's amount booked as profit.
var ProfitMargin = decimal.RequireFromString("0.2")

// SaleRecord is one immutable ledger row: a single product within a checkout.
type SaleRecord struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    string          `json:"orderId" db:"order_id"`
	OrderDate  time.Time       `json:"orderDate" db:"order_date"`
	CustomerID string          `json:"customerId" db:"customer_id"`
	Segment    string          `json:"segment" db:"segment"`
	Region     string          `json:"region" db:"region"`
	ProductID  string          `json:"productId" db:"product_id"`
	Category   string          `json:"category" db:"category"`
	Sales      decimal.Decimal `json:"sales" db:"sales"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Profit     decimal.Decimal `json:"profit" db:"profit"`
}

// SalesTotals is the ledger-wide aggregate.
type SalesTotals struct {
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
	OrderCount  int
}

// SortOrder selects ledger ordering by order date.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)
