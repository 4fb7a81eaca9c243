package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"invoiceflow-backend/middlewares"
	"invoiceflow-backend/models"
	"invoiceflow-backend/services"
)

// InvoiceController translates HTTP requests into lifecycle-engine calls.
// Ownership comes from the authenticated subject, never from the body.
type InvoiceController struct {
	invoices *services.InvoiceService
}

func NewInvoiceController(invoices *services.InvoiceService) *InvoiceController {
	return &InvoiceController{invoices: invoices}
}

type invoiceItemDTO struct {
	Description string  `json:"description" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	Price       float64 `json:"price" validate:"gt=0"`
}

type createInvoiceDTO struct {
	ClientEmail string           `json:"clientEmail" validate:"required,email"`
	Items       []invoiceItemDTO `json:"items" validate:"required,min=1,dive"`
	DueDate     string           `json:"dueDate" validate:"required"`
}

type updateInvoiceDTO struct {
	ClientEmail *string          `json:"clientEmail" validate:"omitempty,email"`
	Items       []invoiceItemDTO `json:"items" validate:"omitempty,min=1,dive"`
	DueDate     *string          `json:"dueDate" validate:"omitempty"`
	Status      *string          `json:"status" validate:"omitempty"`
}

func toItems(dtos []invoiceItemDTO) []models.InvoiceItem {
	items := make([]models.InvoiceItem, len(dtos))
	for i, d := range dtos {
		items[i] = models.InvoiceItem{Description: d.Description, Quantity: d.Quantity, Price: d.Price}
	}
	return items
}

func parseDueDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		verr := &services.ValidationError{Fields: []services.FieldError{
			{Field: "dueDate", Message: "Must be a valid ISO date"},
		}}
		return time.Time{}, verr
	}
	return t, nil
}

func ownerID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func (ic *InvoiceController) Create(c *fiber.Ctx) error {
	var dto createInvoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	dueDate, err := parseDueDate(dto.DueDate)
	if err != nil {
		return err
	}

	inv, err := ic.invoices.Create(c.Context(), ownerID(c), services.CreateInvoiceParams{
		ClientEmail: dto.ClientEmail,
		Items:       toItems(dto.Items),
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice created successfully",
		"invoice": inv,
	})
}

func (ic *InvoiceController) List(c *fiber.Ctx) error {
	invoices, err := ic.invoices.List(c.Context(), ownerID(c))
	if err != nil {
		return err
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

func (ic *InvoiceController) Get(c *fiber.Ctx) error {
	inv, err := ic.invoices.Get(c.Context(), ownerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoice": inv})
}

func (ic *InvoiceController) Update(c *fiber.Ctx) error {
	var dto updateInvoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	params := services.UpdateInvoiceParams{ClientEmail: dto.ClientEmail}
	if dto.Items != nil {
		params.Items = toItems(dto.Items)
	}
	if dto.DueDate != nil {
		dueDate, err := parseDueDate(*dto.DueDate)
		if err != nil {
			return err
		}
		params.DueDate = &dueDate
	}
	if dto.Status != nil {
		status := models.InvoiceStatus(*dto.Status)
		params.Status = &status
	}

	inv, err := ic.invoices.Update(c.Context(), ownerID(c), c.Params("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Invoice updated", "invoice": inv})
}

func (ic *InvoiceController) Delete(c *fiber.Ctx) error {
	if err := ic.invoices.Delete(c.Context(), ownerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Invoice deleted successfully"})
}
