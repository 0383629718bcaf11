package service

import (
	"context"
	"fmt"
	"time"

	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/rs/zerolog"
)

// dashboardService implements DashboardService.
type dashboardService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "dashboard").Logger(),
	}
}

// Summary aggregates KPIs, low stock, category split and the monthly trend.
func (s *dashboardService) Summary(ctx context.Context) (*model.Dashboard, error) {
	totals, err := s.saleRepo.Aggregate(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate sales")
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	lowStock, err := s.productRepo.CountLowStock(ctx, model.LowStockThreshold)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count low stock products")
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	byCategory, err := s.saleRepo.GroupByCategory(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to group sales by category")
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	trend, err := s.saleRepo.RecentByMonth(ctx, model.TrendWindow)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to group recent sales by month")
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	return &model.Dashboard{
		GeneratedAt: s.now().UTC(),
		KPI: model.KPI{
			TotalSales:  totals.TotalSales,
			TotalProfit: totals.TotalProfit,
			TotalOrders: totals.OrderCount,
		},
		LowStockCount:    lowStock,
		PieChartCategory: byCategory,
		LineChartTrend:   trend,
	}, nil
}
