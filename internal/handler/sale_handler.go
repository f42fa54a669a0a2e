package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// CreateSale registers a sale and decrements stock in one transaction.
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if len(req.Items) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Sale must contain at least one item"})
	}

	sale, err := h.service.CreateSale(getUserUUID(c), &req)
	if err != nil {
		// Stock shortage is a request problem at this endpoint, not a conflict
		if service.IsInsufficientStock(err) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Sale created", "data": sale})
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		return respondError(c, err)
	}

	// Cashiers only see their own tickets
	if !middleware.HasPrivilege(c, "sale:view_all") && sale.UserID != getUserUUID(c) {
		return c.Status(403).JSON(fiber.Map{"error": "Insufficient privileges"})
	}

	return c.JSON(fiber.Map{"data": sale})
}

func (h *SaleHandler) ListSales(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return respondError(c, err)
	}
	// "to" is inclusive on the wire, exclusive in the filter
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

	if middleware.HasPrivilege(c, "sale:view_all") {
		if raw := c.Query("user_id"); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
			}
			filter.UserID = &userID
		}
	} else {
		own := getUserUUID(c)
		filter.UserID = &own
	}

	sales, total, err := h.service.ListSales(filter)
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
