package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
)

func newReportFixture(t *testing.T) (*gorm.DB, ReportService) {
	t.Helper()

	db := newTestDB(t)
	return db, NewReportService(repository.NewReportRepo(db), repository.NewSaleRepo(db))
}

// seedSale writes a one-line sale directly, backdated to the given time.
func seedSale(t *testing.T, db *gorm.DB, user *model.User, product *model.Product, qty int, unitPrice float64, at time.Time) *model.Sale {
	t.Helper()

	sale := &model.Sale{
		UserID:        user.ID,
		Total:         float64(qty) * unitPrice,
		PaymentMethod: model.PaymentCash,
	}
	sale.CreatedAt = at
	sale.UpdatedAt = at
	require.NoError(t, db.Create(sale).Error)

	item := &model.SaleItem{
		SaleID:    sale.ID,
		ProductID: product.ID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Subtotal:  float64(qty) * unitPrice,
	}
	item.CreatedAt = at
	require.NoError(t, db.Create(item).Error)
	return sale
}

func TestDashboardAggregates(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	now := time.Now()
	seedSale(t, db, user, product, 2, 10.0, now)
	seedSale(t, db, user, product, 3, 10.0, now.AddDate(0, 0, -1))

	stats, err := svc.Dashboard()
	require.NoError(t, err)

	assert.Equal(t, 50.0, stats.TotalRevenue)
	assert.EqualValues(t, 2, stats.SaleCount)
	assert.EqualValues(t, 5, stats.UnitsSold)
	assert.Equal(t, 20.0, stats.RevenueToday)
	// Profit from the live price spread: (10 - 6) per unit
	assert.Equal(t, 20.0, stats.TotalProfit)
}

func TestDashboardTodayIgnoresOtherDays(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	now := time.Now()
	seedSale(t, db, user, product, 2, 10.0, now)
	seedSale(t, db, user, product, 9, 10.0, now.AddDate(0, 0, -3))

	stats, err := svc.DashboardToday()
	require.NoError(t, err)

	assert.Equal(t, 20.0, stats.RevenueToday)
	assert.EqualValues(t, 1, stats.SaleCountToday)
	assert.EqualValues(t, 2, stats.UnitsSoldToday)
	assert.Equal(t, 8.0, stats.ProfitToday)
}

func TestSalesByPeriodDay(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	now := time.Now()
	seedSale(t, db, user, product, 2, 10.0, now)
	seedSale(t, db, user, product, 1, 10.0, now)
	seedSale(t, db, user, product, 3, 10.0, now.AddDate(0, 0, -1))

	points, err := svc.SalesByPeriod(PeriodDay)
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Days come back oldest first
	assert.Equal(t, now.AddDate(0, 0, -1).Format("2006-01-02"), points[0].Period)
	assert.Equal(t, 30.0, points[0].Total)
	assert.EqualValues(t, 1, points[0].Count)

	assert.Equal(t, now.Format("2006-01-02"), points[1].Period)
	assert.Equal(t, 30.0, points[1].Total)
	assert.EqualValues(t, 2, points[1].Count)
}

func TestSalesByPeriodMonthBucketsDays(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	// Two different days of last month collapse into one bucket
	now := time.Now()
	month := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	seedSale(t, db, user, product, 2, 10.0, month)
	seedSale(t, db, user, product, 3, 10.0, month.AddDate(0, 0, 1))

	points, err := svc.SalesByPeriod(PeriodMonth)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, month.Format("2006-01"), points[0].Period)
	assert.Equal(t, 50.0, points[0].Total)
	assert.EqualValues(t, 2, points[0].Count)
}

func TestSalesByPeriodRejectsUnknownPeriod(t *testing.T) {
	_, svc := newReportFixture(t)

	_, err := svc.SalesByPeriod("fortnight")
	assert.True(t, IsValidation(err))
}

func TestHourlySalesZeroFilled(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	seedSale(t, db, user, product, 1, 10.0, day.Add(9*time.Hour))
	seedSale(t, db, user, product, 1, 10.0, day.Add(9*time.Hour+30*time.Minute))
	seedSale(t, db, user, product, 1, 10.0, day.Add(17*time.Hour))

	points, err := svc.HourlySales(day)
	require.NoError(t, err)
	require.Len(t, points, 24)

	for _, p := range points {
		switch p.Hour {
		case 9:
			assert.EqualValues(t, 2, p.Count)
		case 17:
			assert.EqualValues(t, 1, p.Count)
		default:
			assert.Zero(t, p.Count, "hour %d", p.Hour)
		}
	}
}

func TestProfitByPeriod(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	seedSale(t, db, user, product, 5, 10.0, time.Now())

	points, err := svc.ProfitByPeriod(PeriodDay)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 50.0, points[0].Revenue)
	assert.Equal(t, 20.0, points[0].Profit)
}

func TestTopProductsRankedByQuantity(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	cola := seedProduct(t, db, "Cola", 6.0, 10.0, 100)
	chips := seedProduct(t, db, "Chips", 1.0, 2.5, 100)

	now := time.Now()
	seedSale(t, db, user, cola, 2, 10.0, now)
	seedSale(t, db, user, chips, 7, 2.5, now)

	items, err := svc.TopProducts(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chips", items[0].Name)
	assert.EqualValues(t, 7, items[0].Quantity)
	assert.Equal(t, "Cola", items[1].Name)
}

func TestExportSalesXLSX(t *testing.T) {
	db, svc := newReportFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	now := time.Now()
	seedSale(t, db, user, product, 2, 10.0, now)
	seedSale(t, db, user, product, 3, 10.0, now)

	buf, filename, err := svc.ExportSalesXLSX(repository.SaleFilter{})
	require.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Sales Summary", "Line Items", "Statistics"}, f.GetSheetList())

	header, err := f.GetCellValue("Sales Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sale ID", header)

	// Two data rows plus the formula total row
	rows, err := f.GetRows("Sales Summary")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	formula, err := f.GetCellFormula("Sales Summary", "G4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(G2:G3)", formula)

	revenue, err := f.GetCellValue("Statistics", "B4")
	require.NoError(t, err)
	assert.Equal(t, "50.00", revenue)
}

func TestExportSalesXLSXEmptyRangeIsNotFound(t *testing.T) {
	_, svc := newReportFixture(t)

	_, _, err := svc.ExportSalesXLSX(repository.SaleFilter{})
	assert.True(t, IsNotFound(err))
}
