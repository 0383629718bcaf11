package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"retail-pos/internal/imagestore"
	"retail-pos/internal/model"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// multipartMemory is how much of a multipart form is held in memory
	// before spilling file parts to disk.
	multipartMemory = 8 << 20

	// formOverhead allows for the non-file fields and part headers on top of
	// the image size limit.
	formOverhead = 1 << 20
)

// productListResponse is the body of GET /api/products.
type productListResponse struct {
	Success bool `json:"success"`
	*model.ProductPage
}

// productResponse wraps a single product.
type productResponse struct {
	Success bool           `json:"success"`
	Data    *model.Product `json:"data"`
}

// messageResponse is a bare acknowledgement.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service        service.ProductService
	maxUploadBytes int64
	logger         zerolog.Logger
	now            func() time.Time
}

// NewProductHandler creates a new product handler. maxUploadBytes caps the
// size of an uploaded product image.
func NewProductHandler(service service.ProductService, maxUploadBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "product").Logger(),
		now:            time.Now,
	}
}

// List handles GET /api/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := model.ProductQuery{
		Page:   1,
		Limit:  service.DefaultPageSize,
		Search: r.URL.Query().Get("search"),
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			writeError(w, model.NewValidationError("invalid page parameter"), h.logger)
			return
		}
		query.Page = page
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, model.NewValidationError("invalid limit parameter"), h.logger)
			return
		}
		query.Limit = limit
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productListResponse{Success: true, ProductPage: page})
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Success: true, Data: product})
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, image, err := h.parseProductForm(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), input, image)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, productResponse{Success: true, Data: product})
}

// Update handles PUT /api/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, image, err := h.parseProductForm(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input, image)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Success: true, Data: product})
}

// Delete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "product deleted"})
}

// parseProductForm reads the product fields and optional image from a
// multipart or urlencoded form. A JSON body is accepted without an image.
func (h *ProductHandler) parseProductForm(w http.ResponseWriter, r *http.Request) (model.ProductInput, *imagestore.Upload, error) {
	var input model.ProductInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &input); err != nil {
			return input, nil, err
		}
		return input, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return input, nil, model.NewValidationError("image exceeds the %d byte limit", h.maxUploadBytes)
		}
		return input, nil, model.NewValidationError("invalid form body: %v", err)
	}

	input.Name = r.PostFormValue("name")
	input.Category = r.PostFormValue("category")
	input.SubCategory = r.PostFormValue("subCategory")

	priceStr := strings.TrimSpace(r.PostFormValue("price"))
	if priceStr == "" {
		return input, nil, model.NewValidationError("price is required")
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return input, nil, model.NewValidationError("price must be a number")
	}
	input.Price = price

	stockStr := strings.TrimSpace(r.PostFormValue("stock"))
	if stockStr == "" {
		return input, nil, model.NewValidationError("stock is required")
	}
	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		return input, nil, model.NewValidationError("stock must be a whole number")
	}
	input.Stock = stock

	if err := validateStruct(&input); err != nil {
		return input, nil, err
	}

	image, err := h.readImage(r)
	if err != nil {
		return input, nil, err
	}

	return input, image, nil
}

// readImage returns the prepared "image" part of the form, or nil when the
// request carries none.
func (h *ProductHandler) readImage(r *http.Request) (*imagestore.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewValidationError("invalid image upload: %v", err)
	}
	defer file.Close()

	upload, err := imagestore.Prepare(file, header.Filename, h.maxUploadBytes, h.now())
	switch {
	case errors.Is(err, imagestore.ErrTooLarge):
		return nil, model.NewValidationError("image exceeds the %d byte limit", h.maxUploadBytes)
	case errors.Is(err, imagestore.ErrUnsupportedType):
		return nil, model.NewValidationError("image must be a jpeg, png, gif, webp or bmp file")
	case err != nil:
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to read image upload")
		return nil, err
	}

	return upload, nil
}
