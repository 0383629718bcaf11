package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendWindow is the number of most recent sale rows the dashboard trend covers.
const TrendWindow = 50

// KPI holds the headline dashboard figures.
type KPI struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	TotalOrders int             `json:"total_orders"`
}

// Dashboard is the aggregated view served by GET /api/dashboard.
type Dashboard struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	KPI              KPI                        `json:"kpi"`
	LowStockCount    int                        `json:"low_stock_count"`
	PieChartCategory map[string]decimal.Decimal `json:"pie_chart_category"`
	LineChartTrend   map[string]decimal.Decimal `json:"line_chart_trend"`
}
