package service

import (
	"context"
	"fmt"
	"io"

	"retail-pos/internal/model"
	"retail-pos/internal/report"
	"retail-pos/internal/repository"

	"github.com/rs/zerolog"
)

// reportService implements ReportService.
type reportService struct {
	saleRepo repository.SaleRepository
	logger   zerolog.Logger
}

// NewReportService creates a new report service.
func NewReportService(saleRepo repository.SaleRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		saleRepo: saleRepo,
		logger:   logger.With().Str("service", "report").Logger(),
	}
}

// ExportSales writes every ledger row, newest first.
func (s *reportService) ExportSales(ctx context.Context, w io.Writer) error {
	records, err := s.saleRepo.ListAll(ctx, model.SortDesc)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load sales for export")
		return fmt.Errorf("failed to export sales: %w", err)
	}

	if err := report.Write(w, records); err != nil {
		s.logger.Error().Err(err).Int("rows", len(records)).Msg("failed to write sales workbook")
		return fmt.Errorf("failed to export sales: %w", err)
	}

	s.logger.Debug().Int("rows", len(records)).Msg("sales exported")

	return nil
}
