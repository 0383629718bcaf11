package repository

import (
	"context"
	"fmt"

	"retail-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, order_id, order_date, customer_id, segment, region, product_id, category, sales, quantity, profit`

// saleRepository implements the SaleRepository interface using PostgreSQL.
type saleRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSaleRepository creates a new PostgreSQL-backed sales ledger.
func NewSaleRepository(pool *pgxpool.Pool, logger zerolog.Logger) SaleRepository {
	return &saleRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "sale").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *saleRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Append inserts ledger rows within the provided transaction.
func (r *saleRepository) Append(ctx context.Context, tx pgx.Tx, records []model.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO sales (order_id, order_date, customer_id, segment, region, product_id, category, sales, quantity, profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.OrderID,
			rec.OrderDate,
			rec.CustomerID,
			rec.Segment,
			rec.Region,
			rec.ProductID,
			rec.Category,
			rec.Sales,
			rec.Quantity,
			rec.Profit,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if err := results.QueryRow().Scan(&records[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", records[i].OrderID).
				Str("product_id", records[i].ProductID).
				Msg("failed to append sale record")
			return fmt.Errorf("failed to append sale record: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", records[0].OrderID).
		Int("count", len(records)).
		Msg("sale records appended")

	return nil
}

func collectSales(rows pgx.Rows) ([]model.SaleRecord, error) {
	defer rows.Close()

	records := []model.SaleRecord{}
	for rows.Next() {
		var rec model.SaleRecord
		err := rows.Scan(
			&rec.ID,
			&rec.OrderID,
			&rec.OrderDate,
			&rec.CustomerID,
			&rec.Segment,
			&rec.Region,
			&rec.ProductID,
			&rec.Category,
			&rec.Sales,
			&rec.Quantity,
			&rec.Profit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale records: %w", err)
	}

	return records, nil
}

// ListAll returns the whole ledger ordered by order date.
func (r *saleRepository) ListAll(ctx context.Context, order model.SortOrder) ([]model.SaleRecord, error) {
	direction := "ASC"
	if order == model.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM sales ORDER BY order_date %s, id %s`, saleColumns, direction, direction)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query sales")
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}

	records, err := collectSales(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read sale rows")
		return nil, err
	}

	return records, nil
}

// ListByOrderID returns the ledger rows written by one checkout.
func (r *saleRepository) ListByOrderID(ctx context.Context, orderID string) ([]model.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE order_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to query order sales")
		return nil, fmt.Errorf("failed to query order sales: %w", err)
	}

	records, err := collectSales(rows)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to read order sale rows")
		return nil, err
	}

	return records, nil
}

// Aggregate returns ledger-wide totals. An empty ledger yields zeros.
func (r *saleRepository) Aggregate(ctx context.Context) (model.SalesTotals, error) {
	query := `
		SELECT COALESCE(SUM(sales), 0), COALESCE(SUM(profit), 0), COUNT(DISTINCT order_id)
		FROM sales
	`

	var totals model.SalesTotals
	err := r.pool.QueryRow(ctx, query).Scan(&totals.TotalSales, &totals.TotalProfit, &totals.OrderCount)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to aggregate sales")
		return model.SalesTotals{}, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	return totals, nil
}

// GroupByCategory sums sales per category label across the whole ledger.
func (r *saleRepository) GroupByCategory(ctx context.Context) (map[string]decimal.Decimal, error) {
	query := `SELECT category, SUM(sales) FROM sales GROUP BY category`
	return r.sumBy(ctx, "category", query)
}

// RecentByMonth sums the sales of the most recent limit rows per UTC calendar month.
func (r *saleRepository) RecentByMonth(ctx context.Context, limit int) (map[string]decimal.Decimal, error) {
	query := `
		SELECT to_char(order_date AT TIME ZONE 'UTC', 'YYYY-MM') AS month, SUM(sales)
		FROM (
			SELECT order_date, sales
			FROM sales
			ORDER BY order_date DESC, id DESC
			LIMIT $1
		) recent
		GROUP BY month
	`
	return r.sumBy(ctx, "month", query, limit)
}

func (r *saleRepository) sumBy(ctx context.Context, key, query string, args ...any) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("group", key).Msg("failed to group sales")
		return nil, fmt.Errorf("failed to group sales by %s: %w", key, err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			label string
			total decimal.Decimal
		)
		if err := rows.Scan(&label, &total); err != nil {
			r.logger.Error().Err(err).Str("group", key).Msg("failed to scan sales group")
			return nil, fmt.Errorf("failed to scan sales group: %w", err)
		}
		sums[label] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales groups: %w", err)
	}

	return sums, nil
}
