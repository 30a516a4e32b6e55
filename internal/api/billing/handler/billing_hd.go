package billingHandler

import (
	contextPkg "CarePortalGolang/pkg/context"
	"CarePortalGolang/pkg/handlerUtil"
	jwtPkg "CarePortalGolang/pkg/jwt"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *BillingHandler) GetBalance(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	summary, err := h.billingService.GetBalance(c, userData.ID, ctx.Query("period"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_balance")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}

func (h *BillingHandler) GetUnpaidInvoices(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	invoices, err := h.billingService.GetUnpaidInvoices(c, userData.ID, ctx.Query("period"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_unpaid_invoices")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"invoices": invoices})
	}
}

func (h *BillingHandler) GetOutstandingSummary(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	// outstanding totals across patients are staff-only
	if userData.Role != "admin" && userData.Role != "owner" {
		return errHandler.HandleUnauthorized(ctx, requestID, "Insufficient role")
	}

	summary, err := h.billingService.GetOutstandingSummary(c, ctx.Query("period"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_outstanding_summary")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}
