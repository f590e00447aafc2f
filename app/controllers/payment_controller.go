package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vdmx/vdmx-backend/app/models"
	"github.com/vdmx/vdmx-backend/app/repository"
	"github.com/vdmx/vdmx-backend/internal/pkg/cache"
	"github.com/vdmx/vdmx-backend/internal/pkg/env"
	"github.com/vdmx/vdmx-backend/internal/pkg/metrics"
	"github.com/vdmx/vdmx-backend/internal/pkg/openpay"
)

const paidFolioCacheTTL = 24 * time.Hour

// PaymentController handles the checkout lifecycle: pre-registration, the
// Openpay webhook, folio validation and the legacy charge-creation flow.
type PaymentController struct {
	svc      *openpay.Service
	payments repository.PaymentRepository
	gateway  *openpay.Client
}

// NewPaymentController wires the controller with its collaborators.
func NewPaymentController(svc *openpay.Service, payments repository.PaymentRepository, gateway *openpay.Client) *PaymentController {
	return &PaymentController{svc: svc, payments: payments, gateway: gateway}
}

// HandleOpenpayWebhook receives asynchronous charge notifications. The raw
// body bytes are verified before any parsing happens; every delivery that
// does not need a gateway retry is acknowledged with 200.
func (pc *PaymentController) HandleOpenpayWebhook(c *fiber.Ctx) error {
	start := time.Now()
	defer func() { metrics.ObserveWebhookDuration(time.Since(start).Seconds()) }()
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := firstHeaderValue(c, "X-Openpay-Signature", "Openpay-Signature")
	secret := env.GetEnv("OPENPAY_WEBHOOK_SECRET", "")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Handshake probe: Openpay calls the endpoint without a signature to
	// confirm reachability before enabling live delivery. Acknowledge and
	// touch nothing.
	if signature == "" {
		metrics.IncWebhookOutcome("handshake")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "verification": true})
	}

	if !openpay.VerifyWebhookSignature(rawBody, signature, secret) {
		metrics.IncWebhookOutcome("auth_failed")
		log.Printf("openpay webhook signature mismatch (body %d bytes)", len(rawBody))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, parseErr := openpay.ParseWebhookEvent(rawBody)

	in := openpay.WebhookEventInput{
		Provider:       models.PaymentProviderOpenpay,
		PayloadJSON:    string(rawBody),
		SignatureValid: true,
	}
	if ev != nil {
		in.EventType = ev.Type
		if ev.Transaction != nil && strings.TrimSpace(ev.Transaction.ID) != "" {
			in.ProviderEventID = ev.Transaction.ID + ":" + ev.Type
		}
	}
	created, stored, err := pc.svc.RecordEvent(ctx, in)
	if err != nil {
		log.Printf("openpay webhook persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	// A known event id only short-circuits when its first delivery was
	// handled cleanly. A redelivery after a processing failure must run
	// again; ProcessEvent is idempotent, so re-running is safe.
	if !created && stored.Processed() {
		metrics.IncWebhookOutcome("duplicate")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	if parseErr != nil {
		// Malformed body with a valid signature: upstream anomaly. Do not
		// ask the gateway to redeliver bytes that will never parse.
		log.Printf("openpay webhook payload unreadable: %v", parseErr)
		_ = pc.svc.MarkEventProcessed(ctx, stored.ID, parseErr)
		metrics.IncWebhookOutcome("malformed")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "error": "malformed_payload"})
	}

	result, procErr := pc.svc.ProcessEvent(ctx, ev)
	_ = pc.svc.MarkEventProcessed(ctx, stored.ID, procErr)
	if procErr != nil {
		log.Printf("openpay webhook processing failed: %v", procErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	metrics.IncWebhookOutcome(result.Action)

	switch result.Action {
	case openpay.ActionCreated, openpay.ActionUpdated:
		if result.Outcome == openpay.OutcomePaid {
			cachePaidFolio(result.Folio)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"received": true,
			"folio":    result.Folio,
			"status":   result.Outcome.String(),
		})
	case openpay.ActionDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	case openpay.ActionConflict:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "conflict": true})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "ignored": true})
	}
}

type preRegisterRequest struct {
	Folio   string          `json:"folio"`
	Package string          `json:"package"`
	Amount  decimal.Decimal `json:"amount"`
}

// HandlePreRegister creates a pending payment record ahead of checkout.
// Re-posting an existing folio is a no-op.
func (pc *PaymentController) HandlePreRegister(c *fiber.Ctx) error {
	var req preRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.IncPaymentRequest("pre_register", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	if strings.TrimSpace(req.Package) == "" || !req.Amount.IsPositive() {
		metrics.IncPaymentRequest("pre_register", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "package and a positive amount are required"})
	}

	folio := strings.TrimSpace(req.Folio)
	if folio == "" {
		folio = uuid.NewString()
	}

	payment := &models.Payment{
		Folio:   folio,
		Package: strings.TrimSpace(req.Package),
		Amount:  req.Amount,
		Status:  models.PaymentStatusPending,
	}
	created, err := pc.payments.CreateIfAbsent(payment)
	if err != nil {
		log.Printf("pre-register failed for folio %s: %v", folio, err)
		metrics.IncPaymentRequest("pre_register", "error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}

	metrics.IncPaymentRequest("pre_register", "ok")
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"folio":   payment.Folio,
		"status":  payment.Status,
		"created": created,
	})
}

// HandleValidateFolio reports whether a folio has reached paid status.
// Unknown folios are a distinct, non-error outcome.
func (pc *PaymentController) HandleValidateFolio(c *fiber.Ctx) error {
	folio := normalizeFolio(c.Params("folio"))
	if folio == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "folio is required"})
	}

	// Paid is terminal, so a cache hit can never be stale.
	if cached, err := cache.Get(paidFolioCacheKey(folio)); err == nil && cached == models.PaymentStatusPaid {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"valid":  true,
			"folio":  folio,
			"status": models.PaymentStatusPaid,
		})
	}

	payment, err := pc.payments.GetByFolio(folio)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"valid": false, "folio": folio})
		}
		log.Printf("folio lookup failed for %s: %v", folio, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}

	if payment.Status == models.PaymentStatusPaid {
		cachePaidFolio(folio)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid":  payment.Status == models.PaymentStatusPaid,
		"folio":  folio,
		"status": payment.Status,
	})
}

type chargeRequest struct {
	Folio           string                 `json:"folio"`
	Package         string                 `json:"package"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description"`
	SourceID        string                 `json:"source_id"`
	DeviceSessionID string                 `json:"device_session_id"`
	Customer        openpay.ChargeCustomer `json:"customer"`
}

// HandleCreateCharge is the legacy server-initiated charge flow: register a
// pending record, then create the charge against Openpay and attach its id.
// The final paid/failed state still arrives through the webhook.
func (pc *PaymentController) HandleCreateCharge(c *fiber.Ctx) error {
	var req chargeRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.IncPaymentRequest("charge", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if strings.TrimSpace(req.Package) == "" || strings.TrimSpace(req.SourceID) == "" || !req.Amount.IsPositive() {
		metrics.IncPaymentRequest("charge", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "package, source_id and a positive amount are required"})
	}

	folio := strings.TrimSpace(req.Folio)
	if folio == "" {
		folio = uuid.NewString()
	}

	payment := &models.Payment{
		Folio:       folio,
		Package:     strings.TrimSpace(req.Package),
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Status:      models.PaymentStatusPending,
	}
	created, err := pc.payments.CreateIfAbsent(payment)
	if err != nil {
		log.Printf("charge pre-create failed for folio %s: %v", folio, err)
		metrics.IncPaymentRequest("charge", "error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_error"})
	}
	if payment.IsTerminal() {
		metrics.IncPaymentRequest("charge", "conflict")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "folio_settled", "folio": folio, "status": payment.Status})
	}
	if !created && payment.ChargeID != "" {
		// A charge already exists at the gateway for this folio; its outcome
		// arrives through the webhook. Issuing a second one would double-bill.
		metrics.IncPaymentRequest("charge", "conflict")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "charge_exists", "folio": folio, "charge_id": payment.ChargeID})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// The stored row is authoritative: a re-POST against an existing pending
	// folio cannot re-price it through the request body.
	charge, err := pc.gateway.CreateCharge(ctx, openpay.ChargeRequest{
		SourceID:        strings.TrimSpace(req.SourceID),
		Amount:          payment.Amount,
		Description:     payment.Description,
		OrderID:         folio,
		DeviceSessionID: strings.TrimSpace(req.DeviceSessionID),
		Customer:        req.Customer,
	})
	if err != nil {
		log.Printf("openpay charge failed for folio %s: %v", folio, err)
		metrics.IncPaymentRequest("charge", "gateway_error")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "folio": folio})
	}

	if err := pc.payments.AttachCharge(folio, charge.ID); err != nil {
		// The charge exists at the gateway; the webhook will still land it.
		log.Printf("failed to attach charge %s to folio %s: %v", charge.ID, folio, err)
	}

	metrics.IncPaymentRequest("charge", "ok")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"folio":     folio,
		"charge_id": charge.ID,
		"status":    models.PaymentStatusPending,
	})
}

// HandlePaymentPing answers the payments liveness probe.
func (pc *PaymentController) HandlePaymentPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Payments endpoint operational",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandlePaymentHealth reports the payments table row count.
func (pc *PaymentController) HandlePaymentHealth(c *fiber.Ctx) error {
	count, err := pc.payments.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"table":   "payments",
		"records": count,
	})
}

func paidFolioCacheKey(folio string) string {
	return fmt.Sprintf("payment:paid:%s", folio)
}

func cachePaidFolio(folio string) {
	if err := cache.Set(paidFolioCacheKey(folio), models.PaymentStatusPaid, paidFolioCacheTTL); err != nil {
		log.Printf("failed to cache paid folio %s: %v", folio, err)
	}
}
