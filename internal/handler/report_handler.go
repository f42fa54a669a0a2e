package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

func (h *ReportHandler) DashboardToday(c *fiber.Ctx) error {
	stats, err := h.service.DashboardToday()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

func (h *ReportHandler) SalesByPeriod(c *fiber.Ctx) error {
	points, err := h.service.SalesByPeriod(c.Query("period", service.PeriodDay))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": points})
}

func (h *ReportHandler) ProfitByPeriod(c *fiber.Ctx) error {
	points, err := h.service.ProfitByPeriod(c.Query("period", service.PeriodDay))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": points})
}

func (h *ReportHandler) TopProducts(c *fiber.Ctx) error {
	items, err := h.service.TopProducts(c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *ReportHandler) TopCategories(c *fiber.Ctx) error {
	items, err := h.service.TopCategories(c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *ReportHandler) PaymentMethods(c *fiber.Ctx) error {
	stats, err := h.service.PaymentMethods()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

// HourlySales answers sale counts for each hour of the requested date,
// defaulting to today.
func (h *ReportHandler) HourlySales(c *fiber.Ctx) error {
	date := time.Now()
	if parsed, err := parseDateQuery(c, "date"); err != nil {
		return respondError(c, err)
	} else if parsed != nil {
		date = *parsed
	}

	points, err := h.service.HourlySales(date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": points})
}

func saleFilterFromQuery(c *fiber.Ctx) (repository.SaleFilter, error) {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return repository.SaleFilter{}, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return repository.SaleFilter{}, err
	}
	if to != nil {
		t := to.AddDate(0, 0, 1)
		to = &t
	}

	filter := repository.SaleFilter{
		From:          from,
		To:            to,
		PaymentMethod: c.Query("payment_method"),
		Limit:         c.QueryInt("limit", 50),
		Offset:        c.QueryInt("offset", 0),
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return repository.SaleFilter{}, &service.ValidationError{Message: "Invalid user ID"}
		}
		filter.UserID = &userID
	}
	return filter, nil
}

func (h *ReportHandler) SalesDetail(c *fiber.Ctx) error {
	filter, err := saleFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	sales, total, err := h.service.SalesDetail(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":   sales,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// ExportSales streams the filtered sales as an XLSX attachment.
func (h *ReportHandler) ExportSales(c *fiber.Ctx) error {
	filter, err := saleFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	buf, filename, err := h.service.ExportSalesXLSX(filter)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
