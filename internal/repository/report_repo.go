package repository

import (
	"time"

	"go-pos-backoffice/internal/model"

	"gorm.io/gorm"
)

// DashboardStats is the all-time overview.
type DashboardStats struct {
	TotalRevenue  float64 `json:"total_revenue"`
	SaleCount     int64   `json:"sale_count"`
	UnitsSold     int64   `json:"units_sold"`
	RevenueToday  float64 `json:"revenue_today"`
	LowStockCount int64   `json:"low_stock_count"`
	TotalProfit   float64 `json:"total_profit"`
}

// TodayStats is the today-only overview.
type TodayStats struct {
	RevenueToday       float64 `json:"revenue_today"`
	SaleCountToday     int64   `json:"sale_count_today"`
	UnitsSoldToday     int64   `json:"units_sold_today"`
	ProfitToday        float64 `json:"profit_today"`
	LowStockCount      int64   `json:"low_stock_count"`
	CriticalStockCount int64   `json:"critical_stock_count"`
}

// DailySalesPoint is one calendar day of aggregated sales.
type DailySalesPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// DailyProfitPoint carries revenue and profit for one calendar day.
type DailyProfitPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// RankedItem is one row of a top-N listing (product or category).
type RankedItem struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Total    float64 `json:"total"`
}

// PaymentMethodStat aggregates sales per payment method.
type PaymentMethodStat struct {
	Method string  `json:"method"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type ReportRepository interface {
	GetDashboardStats(now time.Time) (*DashboardStats, error)
	GetTodayStats(now time.Time) (*TodayStats, error)
	GetDailySales(start, end time.Time) ([]DailySalesPoint, error)
	GetDailyProfit(start, end time.Time) ([]DailyProfitPoint, error)
	GetTopProducts(limit int) ([]RankedItem, error)
	GetTopCategories(limit int) ([]RankedItem, error)
	GetPaymentMethods() ([]PaymentMethodStat, error)
	GetSaleTimes(start, end time.Time) ([]time.Time, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// profitSelect computes profit from the products' current prices, not the
// snapshotted unit price: historical sales drift with later price changes.
const profitSelect = "COALESCE(SUM((products.sale_price - products.cost_price) * sale_items.quantity), 0)"

func (r *reportRepo) GetDashboardStats(now time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	if err := r.db.Model(&model.Sale{}).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Sale{}).Count(&stats.SaleCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.SaleItem{}).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stats.UnitsSold).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Sale{}).
		Where("created_at >= ? AND created_at < ?", today, tomorrow).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.RevenueToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Product{}).
		Where("stock < min_stock AND is_active = ?", true).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN products ON products.id = sale_items.product_id").
		Select(profitSelect).Scan(&stats.TotalProfit).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *reportRepo) GetTodayStats(now time.Time) (*TodayStats, error) {
	var stats TodayStats
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	todayRange := r.db.Model(&model.Sale{}).
		Where("created_at >= ? AND created_at < ?", today, tomorrow)

	if err := todayRange.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.RevenueToday).Error; err != nil {
		return nil, err
	}
	if err := todayRange.Session(&gorm.Session{}).Count(&stats.SaleCountToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.created_at >= ? AND sales.created_at < ?", today, tomorrow).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stats.UnitsSoldToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN products ON products.id = sale_items.product_id").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.created_at >= ? AND sales.created_at < ?", today, tomorrow).
		Select(profitSelect).Scan(&stats.ProfitToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Product{}).
		Where("stock < min_stock AND stock >= ? AND is_active = ?", lowStockFloor, true).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Product{}).
		Where("stock < ? AND is_active = ?", lowStockFloor, true).
		Count(&stats.CriticalStockCount).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetDailySales groups by calendar day with DATE(), which both Postgres and
// the SQLite test store understand. Coarser periods are bucketed by the
// service on top of these rows.
func (r *reportRepo) GetDailySales(start, end time.Time) ([]DailySalesPoint, error) {
	var results []DailySalesPoint

	rows, err := r.db.Model(&model.Sale{}).
		Select("DATE(created_at) as date, COALESCE(SUM(total), 0) as total, COUNT(id) as count").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p DailySalesPoint
		if err := rows.Scan(&p.Date, &p.Total, &p.Count); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (r *reportRepo) GetDailyProfit(start, end time.Time) ([]DailyProfitPoint, error) {
	var results []DailyProfitPoint

	rows, err := r.db.Model(&model.SaleItem{}).
		Select("DATE(sales.created_at) as date, COALESCE(SUM(sale_items.subtotal), 0) as revenue, "+profitSelect+" as profit").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.created_at >= ? AND sales.created_at < ?", start, end).
		Group("DATE(sales.created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p DailyProfitPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (r *reportRepo) GetTopProducts(limit int) ([]RankedItem, error) {
	var results []RankedItem
	err := r.db.Model(&model.SaleItem{}).
		Select("products.name as name, SUM(sale_items.quantity) as quantity, SUM(sale_items.subtotal) as total").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Group("products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

func (r *reportRepo) GetTopCategories(limit int) ([]RankedItem, error) {
	var results []RankedItem
	err := r.db.Model(&model.SaleItem{}).
		Select("CASE WHEN products.category IS NULL OR products.category = '' THEN 'uncategorized' ELSE products.category END as name, "+
			"SUM(sale_items.quantity) as quantity, SUM(sale_items.subtotal) as total").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Group("name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

func (r *reportRepo) GetPaymentMethods() ([]PaymentMethodStat, error) {
	var results []PaymentMethodStat
	err := r.db.Model(&model.Sale{}).
		Select("payment_method as method, COUNT(id) as count, COALESCE(SUM(total), 0) as total").
		Group("payment_method").
		Scan(&results).Error
	return results, err
}

// GetSaleTimes returns raw sale timestamps in the range; hour-of-day
// bucketing happens in the service to stay portable across stores.
func (r *reportRepo) GetSaleTimes(start, end time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Model(&model.Sale{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}
