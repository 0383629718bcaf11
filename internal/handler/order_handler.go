package handler

import (
	"errors"
	"net/http"

	"retail-pos/internal/model"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// orderResponse wraps the ledger rows of one order.
type orderResponse struct {
	Success bool               `json:"success"`
	Data    *model.OrderResult `json:"data"`
}

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeLenientJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		// An unknown product in the cart is a bad request, not a missing resource.
		if de, ok := model.AsDomainError(err); ok && errors.Is(de, model.ErrNotFound) {
			writeDomainError(w, http.StatusBadRequest, de, h.logger)
			return
		}
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.OrderResponse{
		Success: true,
		Message: "order recorded and stock updated",
		OrderID: result.OrderID,
	})
}

// GetByID handles GET /api/orders/{orderId} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, model.NewValidationError("order id is required"), h.logger)
		return
	}

	result, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Success: true, Data: result})
}
