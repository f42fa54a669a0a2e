package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PeriodPoint is one bucket of the sales-by-period series. The label format
// depends on the period: 2006-01-02, 2006-W02, 2006-01 or 2006.
type PeriodPoint struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
	Count  int64   `json:"count"`
}

type ProfitPoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

type HourPoint struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type ReportService interface {
	Dashboard() (*repository.DashboardStats, error)
	DashboardToday() (*repository.TodayStats, error)
	SalesByPeriod(period string) ([]PeriodPoint, error)
	ProfitByPeriod(period string) ([]ProfitPoint, error)
	TopProducts(limit int) ([]repository.RankedItem, error)
	TopCategories(limit int) ([]repository.RankedItem, error)
	PaymentMethods() ([]repository.PaymentMethodStat, error)
	HourlySales(date time.Time) ([]HourPoint, error)
	SalesDetail(filter repository.SaleFilter) ([]model.Sale, int64, error)
	ExportSalesXLSX(filter repository.SaleFilter) (*bytes.Buffer, string, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	saleRepo   repository.SaleRepository
	now        func() time.Time
}

func NewReportService(reportRepo repository.ReportRepository, saleRepo repository.SaleRepository) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		saleRepo:   saleRepo,
		now:        time.Now,
	}
}

func (s *reportService) Dashboard() (*repository.DashboardStats, error) {
	return s.reportRepo.GetDashboardStats(s.now())
}

func (s *reportService) DashboardToday() (*repository.TodayStats, error) {
	return s.reportRepo.GetTodayStats(s.now())
}

// periodRange maps a period name to its reporting window ending now.
func periodRange(period string, now time.Time) (time.Time, time.Time, error) {
	end := startOfNextDay(now)
	switch period {
	case PeriodDay:
		return end.AddDate(0, 0, -30), end, nil
	case PeriodWeek:
		return end.AddDate(0, 0, -12*7), end, nil
	case PeriodMonth:
		return end.AddDate(-1, 0, 0), end, nil
	case PeriodYear:
		return end.AddDate(-5, 0, 0), end, nil
	default:
		return time.Time{}, time.Time{}, newValidationError("invalid period: %s (expected day, week, month or year)", period)
	}
}

func startOfNextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

// periodKey buckets a calendar day into the requested period's label.
func periodKey(day time.Time, period string) string {
	switch period {
	case PeriodWeek:
		year, week := day.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonth:
		return day.Format("2006-01")
	case PeriodYear:
		return day.Format("2006")
	default:
		return day.Format("2006-01-02")
	}
}

func (s *reportService) SalesByPeriod(period string) ([]PeriodPoint, error) {
	start, end, err := periodRange(period, s.now())
	if err != nil {
		return nil, err
	}

	daily, err := s.reportRepo.GetDailySales(start, end)
	if err != nil {
		return nil, err
	}

	points := make([]PeriodPoint, 0, len(daily))
	index := make(map[string]int)
	for _, d := range daily {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		key := periodKey(day, period)
		if i, ok := index[key]; ok {
			points[i].Total += d.Total
			points[i].Count += d.Count
			continue
		}
		index[key] = len(points)
		points = append(points, PeriodPoint{Period: key, Total: d.Total, Count: d.Count})
	}
	return points, nil
}

func (s *reportService) ProfitByPeriod(period string) ([]ProfitPoint, error) {
	start, end, err := periodRange(period, s.now())
	if err != nil {
		return nil, err
	}

	daily, err := s.reportRepo.GetDailyProfit(start, end)
	if err != nil {
		return nil, err
	}

	points := make([]ProfitPoint, 0, len(daily))
	index := make(map[string]int)
	for _, d := range daily {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		key := periodKey(day, period)
		if i, ok := index[key]; ok {
			points[i].Revenue += d.Revenue
			points[i].Profit += d.Profit
			continue
		}
		index[key] = len(points)
		points = append(points, ProfitPoint{Period: key, Revenue: d.Revenue, Profit: d.Profit})
	}
	return points, nil
}

func (s *reportService) TopProducts(limit int) ([]repository.RankedItem, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.reportRepo.GetTopProducts(limit)
}

func (s *reportService) TopCategories(limit int) ([]repository.RankedItem, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.reportRepo.GetTopCategories(limit)
}

func (s *reportService) PaymentMethods() ([]repository.PaymentMethodStat, error) {
	return s.reportRepo.GetPaymentMethods()
}

// HourlySales counts sales per hour of the given date, zero-filled for all
// 24 hours so charts render a full axis.
func (s *reportService) HourlySales(date time.Time) ([]HourPoint, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)

	times, err := s.reportRepo.GetSaleTimes(start, end)
	if err != nil {
		return nil, err
	}

	points := make([]HourPoint, 24)
	for h := range points {
		points[h].Hour = h
	}
	for _, t := range times {
		points[t.In(date.Location()).Hour()].Count++
	}
	return points, nil
}

func (s *reportService) SalesDetail(filter repository.SaleFilter) ([]model.Sale, int64, error) {
	return s.saleRepo.List(filter)
}

const (
	sheetSummary = "Sales Summary"
	sheetItems   = "Line Items"
	sheetStats   = "Statistics"
)

// ExportSalesXLSX renders the sales matching the filter into a three-sheet
// workbook and returns it as a buffer together with a suggested filename.
func (s *reportService) ExportSalesXLSX(filter repository.SaleFilter) (*bytes.Buffer, string, error) {
	filter.Limit = 0
	filter.Offset = 0
	sales, err := s.saleRepo.ListAll(filter)
	if err != nil {
		return nil, "", err
	}
	if len(sales) == 0 {
		return nil, "", ErrSaleNotFound
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetSummary)
	if _, err := f.NewSheet(sheetItems); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(sheetStats); err != nil {
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, "", err
	}
	currencyFmt := "#,##0.00"
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return nil, "", err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", err
	}

	if err := s.writeSummarySheet(f, sales, headerStyle, currencyStyle, boldStyle); err != nil {
		return nil, "", err
	}
	if err := s.writeItemsSheet(f, sales, headerStyle, currencyStyle); err != nil {
		return nil, "", err
	}
	if err := s.writeStatsSheet(f, sales, filter, headerStyle, currencyStyle); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("sales_report_%s.xlsx", s.now().Format("20060102_150405"))
	return buf, filename, nil
}

func (s *reportService) writeSummarySheet(f *excelize.File, sales []model.Sale, headerStyle, currencyStyle, boldStyle int) error {
	headers := []string{"Sale ID", "Date", "Time", "Cashier", "Payment Method", "Items", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetSummary, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "G1", headerStyle); err != nil {
		return err
	}

	for i, sale := range sales {
		row := i + 2
		units := 0
		for _, item := range sale.Items {
			units += item.Quantity
		}
		cashier := ""
		if sale.User != nil {
			cashier = sale.User.FullName
		}
		values := []interface{}{
			sale.ID.String(),
			sale.CreatedAt.Format("2006-01-02"),
			sale.CreatedAt.Format("15:04:05"),
			cashier,
			sale.PaymentMethod,
			units,
			sale.Total,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetSummary, cell, v); err != nil {
				return err
			}
		}
	}

	lastDataRow := len(sales) + 1
	totalRow := lastDataRow + 1
	if err := f.SetCellValue(sheetSummary, fmt.Sprintf("F%d", totalRow), "TOTAL"); err != nil {
		return err
	}
	if err := f.SetCellFormula(sheetSummary, fmt.Sprintf("G%d", totalRow), fmt.Sprintf("SUM(G2:G%d)", lastDataRow)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "G2", fmt.Sprintf("G%d", totalRow), currencyStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, fmt.Sprintf("F%d", totalRow), fmt.Sprintf("F%d", totalRow), boldStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 38); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "B", "G", 16)
}

func (s *reportService) writeItemsSheet(f *excelize.File, sales []model.Sale, headerStyle, currencyStyle int) error {
	headers := []string{"Sale ID", "Date", "Product", "Quantity", "Unit Price", "Subtotal"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetItems, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetItems, "A1", "F1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, sale := range sales {
		for _, item := range sale.Items {
			name := item.ProductID.String()
			if item.Product != nil {
				name = item.Product.Name
			}
			values := []interface{}{
				sale.ID.String(),
				sale.CreatedAt.Format("2006-01-02"),
				name,
				item.Quantity,
				item.UnitPrice,
				item.Subtotal,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheetItems, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	if row > 2 {
		if err := f.SetCellStyle(sheetItems, "E2", fmt.Sprintf("F%d", row-1), currencyStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetItems, "A", "A", 38); err != nil {
		return err
	}
	return f.SetColWidth(sheetItems, "B", "F", 16)
}

func (s *reportService) writeStatsSheet(f *excelize.File, sales []model.Sale, filter repository.SaleFilter, headerStyle, currencyStyle int) error {
	var revenue float64
	var units int
	byMethod := make(map[string]int)
	for _, sale := range sales {
		revenue += sale.Total
		for _, item := range sale.Items {
			units += item.Quantity
		}
		byMethod[sale.PaymentMethod]++
	}
	avgTicket := 0.0
	if len(sales) > 0 {
		avgTicket = revenue / float64(len(sales))
	}

	rangeLabel := "all time"
	if filter.From != nil && filter.To != nil {
		// To is exclusive, so the label shows the last included day.
		rangeLabel = fmt.Sprintf("%s to %s",
			filter.From.Format("2006-01-02"),
			filter.To.AddDate(0, 0, -1).Format("2006-01-02"))
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Date Range", rangeLabel},
		{"Total Sales", len(sales)},
		{"Total Revenue", revenue},
		{"Units Sold", units},
		{"Average Ticket", avgTicket},
	}
	for _, method := range []string{model.PaymentCash, model.PaymentCard, model.PaymentTransfer} {
		if count, ok := byMethod[method]; ok {
			rows = append(rows, []interface{}{fmt.Sprintf("Sales (%s)", method), count})
		}
	}

	for i, r := range rows {
		for col, v := range r {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := f.SetCellValue(sheetStats, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetCellStyle(sheetStats, "A1", "B1", headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetStats, "B4", "B4", currencyStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetStats, "B6", "B6", currencyStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheetStats, "A", "B", 22)
}
