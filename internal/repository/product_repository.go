package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retail-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, category, sub_category, price, stock, image, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.SubCategory,
		&p.Price,
		&p.Stock,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List retrieves one page of products. The count and the page are read from
// the same snapshot so totalItems always agrees with the returned rows.
func (r *productRepository) List(ctx context.Context, query model.ProductQuery) ([]model.Product, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin read transaction")
		return nil, 0, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	where := ""
	args := []any{}
	if search := strings.TrimSpace(query.Search); search != "" {
		where = `WHERE name ILIKE $1 OR id ILIKE $1`
		args = append(args, containsPattern(search))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products ` + where
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("search", query.Search).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := tx.Query(ctx, pageQuery, append(args, query.Limit, query.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page", query.Page).
			Int("limit", query.Limit).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// LockByIDs row-locks the requested products in primary key order so that
// concurrent checkouts over overlapping carts cannot deadlock.
func (r *productRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []string) (map[string]model.Product, error) {
	locked := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read locked product rows")
		return nil, err
	}

	for _, p := range products {
		locked[p.ID] = p
	}

	return locked, nil
}

// DecrementStock subtracts amount from stock only when enough is available.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, amount int) (int, error) {
	if amount <= 0 {
		return 0, model.ErrInvalidQuantity
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var remaining int
	err := tx.QueryRow(ctx, query, id, amount).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("product_id", id).Int("amount", amount).Msg("failed to decrement stock")
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	var (
		name  string
		stock int
	)
	err = tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1`, id).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.NewNotFoundError("product", id)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to read stock")
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}

	r.logger.Debug().
		Str("product_id", id).
		Int("requested", amount).
		Int("available", stock).
		Msg("stock decrement refused")

	return 0, model.NewInsufficientStockError(id, name, stock)
}

// Create inserts a new product and fills in its timestamps.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, name, category, sub_category, price, stock, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		product.SubCategory,
		product.Price,
		product.Stock,
		product.Image,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateError(fmt.Sprintf("product %s already exists", product.ID))
		}
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", product.ID).Msg("product created")

	return nil
}

// Update writes the editable fields of an existing product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, sub_category = $4, price = $5, stock = $6, image = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		product.SubCategory,
		product.Price,
		product.Stock,
		product.Image,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewNotFoundError("product", product.ID)
		}
		r.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Ledger rows referencing it are untouched.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("product", id)
	}

	return nil
}

// CountLowStock counts products with stock strictly below threshold.
func (r *productRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE stock < $1`, threshold).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to count low stock products")
		return 0, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return count, nil
}
