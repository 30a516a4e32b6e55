package billingHandler

import (
	billingService "CarePortalGolang/internal/api/billing/service"
	"CarePortalGolang/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type BillingHandler struct {
	log            *logrus.Logger
	middleware     middleware.Middleware
	billingService billingService.IBillingService
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	bs billingService.IBillingService,
) *BillingHandler {
	return &BillingHandler{
		log:            log,
		middleware:     middleware,
		billingService: bs,
	}
}

func (h *BillingHandler) Start(srv fiber.Router) {
	billing := srv.Group("/billing")

	billing.Use(h.middleware.NewTokenMiddleware)

	billing.Get("/balance", h.GetBalance)
	billing.Get("/invoices", h.GetUnpaidInvoices)
	billing.Get("/summary", h.GetOutstandingSummary)
}
