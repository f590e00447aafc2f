package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/vdmx/vdmx-backend/app/controllers"
	"github.com/vdmx/vdmx-backend/app/repository"
	"github.com/vdmx/vdmx-backend/internal/pkg/constants"
	"github.com/vdmx/vdmx-backend/internal/pkg/database"
	"github.com/vdmx/vdmx-backend/internal/pkg/env"
	"github.com/vdmx/vdmx-backend/internal/pkg/middleware"
	"github.com/vdmx/vdmx-backend/internal/pkg/openpay"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()
	paymentCtrl := controllers.NewPaymentController(
		openpay.NewServiceFromDB(database.GetDB()),
		repos.Payment,
		openpay.NewClientFromEnv(),
	)
	formCtrl := controllers.NewFormController(repos.QuoteForm)

	// The webhook is registered before the rate-limited group on purpose:
	// gateway redeliveries must never be throttled into retry storms.
	app.Post(constants.APIRoute+constants.PaymentsRoute+constants.OpenpayWebhookRoute, paymentCtrl.HandleOpenpayWebhook)

	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))

	payments := api.Group(constants.PaymentsRoute)
	payments.Get("/ping", paymentCtrl.HandlePaymentPing)
	payments.Get(constants.HealthRoute, paymentCtrl.HandlePaymentHealth)
	payments.Post("/pre-register", paymentCtrl.HandlePreRegister)
	payments.Post("/charge", paymentCtrl.HandleCreateCharge)
	payments.Get("/:folio", paymentCtrl.HandleValidateFolio)

	forms := api.Group(constants.FormsRoute)
	forms.Get("/ping", formCtrl.HandleFormPing)
	forms.Get(constants.HealthRoute, formCtrl.HandleFormHealth)
	forms.Post("/", formCtrl.HandleSubmitForm)
	forms.Get("/", middleware.APIKeyAuthMiddleware(), formCtrl.HandleListForms)
}

// newLimiterStorage shares rate-limit counters across instances via Redis.
func newLimiterStorage() fiber.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
