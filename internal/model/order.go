package model

import "github.com/shopspring/decimal"

// OrderRequest represents the request payload for placing an order.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// OrderItemRequest is a single line item of a cart. Price and Category are
// optional overrides of the catalogue values.
type OrderItemRequest struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Category  string           `json:"category,omitempty"`
}

// OrderResult describes a committed order.
type OrderResult struct {
	OrderID string       `json:"orderId"`
	Records []SaleRecord `json:"items"`
}

// OrderResponse is the HTTP payload returned after a successful checkout.
type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}
