package service

import (
	"context"
	"fmt"
	"time"

	"retail-pos/internal/metrics"
	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	saleRepo  repository.SaleRepository
	processor *OrderProcessor
	metrics   *metrics.OrderMetrics
	logger    zerolog.Logger
}

// NewOrderService creates a new order service. The service owns the
// transaction boundary; the processor works inside it.
func NewOrderService(
	saleRepo repository.SaleRepository,
	processor *OrderProcessor,
	orderMetrics *metrics.OrderMetrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		saleRepo:  saleRepo,
		processor: processor,
		metrics:   orderMetrics,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates the cart, then decrements stock and appends ledger
// rows in a single transaction.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (result *model.OrderResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			s.metrics.ObserveRejected(rejectionReason(err), time.Since(start))
		}
	}()

	if req == nil {
		return nil, model.ErrEmptyCart
	}

	if err = validateOrderItems(req.Items); err != nil {
		s.logger.Warn().Err(err).Int("item_count", len(req.Items)).Msg("order rejected")
		return nil, err
	}

	tx, err := s.saleRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	result, err = s.processor.Process(ctx, tx, req.Items)
	if err != nil {
		if de, ok := model.AsDomainError(err); ok {
			s.logger.Warn().Str("code", de.Code).Str("reason", de.Message).Msg("order rejected")
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to process order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", result.OrderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.ObservePlaced(len(result.Records), time.Since(start))

	s.logger.Info().
		Str("order_id", result.OrderID).
		Int("item_count", len(result.Records)).
		Msg("order created successfully")

	return result, nil
}

// GetByID retrieves the ledger rows of an order.
func (s *orderService) GetByID(ctx context.Context, orderID string) (*model.OrderResult, error) {
	records, err := s.saleRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if len(records) == 0 {
		return nil, model.NewNotFoundError("order", orderID)
	}

	return &model.OrderResult{
		OrderID: orderID,
		Records: records,
	}, nil
}

func rejectionReason(err error) string {
	if de, ok := model.AsDomainError(err); ok {
		return de.Code
	}
	return model.ErrCodeInternalError
}
