package controllers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vdmx/vdmx-backend/app/models"
	"github.com/vdmx/vdmx-backend/app/repository"
)

const formListPageSize = 50

// FormController handles insurance quote form submissions.
type FormController struct {
	forms repository.QuoteFormRepository
}

// NewFormController wires the controller with its repository.
func NewFormController(forms repository.QuoteFormRepository) *FormController {
	return &FormController{forms: forms}
}

// HandleSubmitForm stores a quote form and returns the generated folio the
// client later uses for checkout.
func (fc *FormController) HandleSubmitForm(c *fiber.Ctx) error {
	var form models.QuoteForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	form.ID = 0
	form.Folio = uuid.NewString()
	form.PayloadJSON = string(c.Body())

	if err := form.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := fc.forms.Create(&form); err != nil {
		log.Printf("quote form insert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"folio":      form.Folio,
		"created_at": form.CreatedAt,
	})
}

// HandleListForms returns stored submissions, newest first. Guarded by the
// admin API key middleware in the router.
func (fc *FormController) HandleListForms(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	forms, err := fc.forms.List((page-1)*formListPageSize, formListPageSize)
	if err != nil {
		log.Printf("quote form list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}

	total, err := fc.forms.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"forms": forms,
		"page":  page,
		"total": total,
	})
}

// HandleFormPing answers the forms liveness probe.
func (fc *FormController) HandleFormPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Forms endpoint operational",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleFormHealth reports the quote_forms table row count.
func (fc *FormController) HandleFormHealth(c *fiber.Ctx) error {
	count, err := fc.forms.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"table":   "quote_forms",
		"records": count,
	})
}
