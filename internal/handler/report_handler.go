package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"retail-pos/internal/report"
	"retail-pos/internal/service"

	"github.com/rs/zerolog"
)

// ReportHandler serves spreadsheet exports of the sales ledger.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("handler", "report").Logger(),
	}
}

// Monthly handles GET /api/reports/monthly requests. The workbook is built in
// memory so a failure can still be reported as a JSON error.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportSales(r.Context(), &buf); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+report.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn().Err(err).Msg("failed to stream sales report")
	}
}
