package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderProcessor turns a validated cart into stock decrements and ledger rows
// inside a caller-owned transaction.
type OrderProcessor struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	ids         *IDGenerator
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderProcessor creates a new order processor.
func NewOrderProcessor(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	ids *IDGenerator,
	logger zerolog.Logger,
) *OrderProcessor {
	return &OrderProcessor{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		ids:         ids,
		now:         time.Now,
		logger:      logger.With().Str("component", "order-processor").Logger(),
	}
}

// Process applies the cart within tx. On error nothing must be committed:
// the caller rolls tx back.
func (p *OrderProcessor) Process(ctx context.Context, tx pgx.Tx, items []model.OrderItemRequest) (*model.OrderResult, error) {
	if err := validateOrderItems(items); err != nil {
		return nil, err
	}

	products, err := p.productRepo.LockByIDs(ctx, tx, distinctProductIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	orderID := p.ids.Next()
	orderDate := p.now().UTC()
	records := make([]model.SaleRecord, 0, len(items))

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			p.logger.Debug().Str("order_id", orderID).Str("product_id", item.ProductID).Msg("product not found")
			return nil, model.NewNotFoundError("product", item.ProductID)
		}

		if item.Quantity > product.Stock {
			p.logger.Debug().
				Str("order_id", orderID).
				Str("product_id", product.ID).
				Int("requested", item.Quantity).
				Int("available", product.Stock).
				Msg("insufficient stock")
			return nil, model.NewInsufficientStockError(product.ID, product.Name, product.Stock)
		}

		if _, err := p.productRepo.DecrementStock(ctx, tx, product.ID, item.Quantity); err != nil {
			if _, ok := model.AsDomainError(err); ok {
				return nil, err
			}
			return nil, fmt.Errorf("failed to decrement stock for %s: %w", product.ID, err)
		}

		records = append(records, buildSaleRecord(orderID, orderDate, product, item))
	}

	if err := p.saleRepo.Append(ctx, tx, records); err != nil {
		return nil, fmt.Errorf("failed to record sales: %w", err)
	}

	return &model.OrderResult{
		OrderID: orderID,
		Records: records,
	}, nil
}

func buildSaleRecord(orderID string, orderDate time.Time, product model.Product, item model.OrderItemRequest) model.SaleRecord {
	price := product.Price
	if item.Price != nil {
		price = *item.Price
	}

	category := product.Category
	if c := strings.TrimSpace(item.Category); c != "" {
		category = c
	}

	sales := price.Mul(decimal.NewFromInt(int64(item.Quantity)))

	return model.SaleRecord{
		OrderID:    orderID,
		OrderDate:  orderDate,
		CustomerID: model.WalkInCustomerID,
		Segment:    model.WalkInSegment,
		Region:     model.WalkInRegion,
		ProductID:  product.ID,
		Category:   category,
		Sales:      sales,
		Quantity:   item.Quantity,
		Profit:     sales.Mul(model.ProfitMargin).Round(2),
	}
}

// validateOrderItems checks the cart shape before any store is touched.
func validateOrderItems(items []model.OrderItemRequest) error {
	if len(items) == 0 {
		return model.ErrEmptyCart
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		id := item.ProductID
		if strings.TrimSpace(id) == "" {
			return model.NewValidationError("item %d: productId is required", i)
		}
		if item.Quantity <= 0 {
			return model.NewValidationError("item %d: quantity must be greater than zero", i).
				WithDetails(map[string]any{"productId": id, "quantity": item.Quantity})
		}
		if item.Price != nil && item.Price.IsNegative() {
			return model.NewValidationError("item %d: price must not be negative", i)
		}
		if _, dup := seen[id]; dup {
			return model.NewValidationError("item %d: product %s appears more than once", i, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

// distinctProductIDs returns the cart's product IDs in ascending order.
func distinctProductIDs(items []model.OrderItemRequest) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	sort.Strings(ids)
	return ids
}
