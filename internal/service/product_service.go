package service

import (
	"context"
	"fmt"
	"strings"

	"retail-pos/internal/imagestore"
	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/rs/zerolog"
)

// Pagination bounds for catalogue listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	images      imagestore.Store
	ids         *IDGenerator
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	images imagestore.Store,
	ids *IDGenerator,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		ids:         ids,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves one page of products. Page and limit are clamped to sane values.
func (s *productService) List(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = DefaultPageSize
	}
	if query.Limit > MaxPageSize {
		query.Limit = MaxPageSize
	}
	query.Search = strings.TrimSpace(query.Search)

	products, total, err := s.productRepo.List(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", query.Page).
			Int("limit", query.Limit).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Int("page", query.Page).
		Msg("retrieved products")

	return &model.ProductPage{
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: (total + query.Limit - 1) / query.Limit,
		TotalItems: total,
		Items:      products,
	}, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.NewValidationError("product id is required")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		return nil, model.NewNotFoundError("product", id)
	}

	return product, nil
}

// Create adds a product with a generated PROD- identifier.
func (s *productService) Create(ctx context.Context, input model.ProductInput, image *imagestore.Upload) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{ID: s.ids.Next()}
	applyProductInput(product, input)

	if image != nil {
		ref, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to store product image")
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		product.Image = ref
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.discardImage(ctx, product.Image)
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product created")

	return product, nil
}

// Update replaces the editable fields of a product and swaps its image when a
// new one is supplied.
func (s *productService) Update(ctx context.Context, id string, input model.ProductInput, image *imagestore.Upload) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousImage := product.Image
	applyProductInput(product, input)

	if image != nil {
		ref, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", id).Msg("failed to store product image")
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		product.Image = ref
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if image != nil {
			s.discardImage(ctx, product.Image)
		}
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if image != nil {
		s.discardImage(ctx, previousImage)
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")

	return product, nil
}

// Delete removes a product and then its image. Ledger rows are kept.
func (s *productService) Delete(ctx context.Context, id string) error {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.discardImage(ctx, product.Image)

	s.logger.Info().Str("product_id", id).Msg("product deleted")

	return nil
}

// discardImage deletes a stored image; failures are only logged.
func (s *productService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.logger.Warn().Err(err).Str("image", ref).Msg("failed to delete product image")
	}
}

func validateProductInput(input model.ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return model.NewValidationError("name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return model.NewValidationError("category is required")
	}
	if input.Price.IsNegative() {
		return model.NewValidationError("price must not be negative")
	}
	if input.Price.Round(model.PriceDecimals).GreaterThan(model.MaxPrice) {
		return model.NewValidationError("price must not exceed %s", model.MaxPrice.StringFixed(model.PriceDecimals))
	}
	if input.Stock < 0 {
		return model.NewValidationError("stock must not be negative")
	}
	if input.Stock > model.MaxStock {
		return model.NewValidationError("stock must not exceed %d", model.MaxStock)
	}
	return nil
}

func applyProductInput(product *model.Product, input model.ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Category = strings.TrimSpace(input.Category)
	product.SubCategory = strings.TrimSpace(input.SubCategory)
	if product.SubCategory == "" {
		product.SubCategory = model.DefaultSubCategory
	}
	product.Price = input.Price.Round(model.PriceDecimals)
	product.Stock = input.Stock
}
