package billing

import "CarePortalGolang/pkg/response"

var (
	ErrInvoiceNotFound = response.NewError(404, "invoice not found")
	ErrInvalidPeriod   = response.NewError(400, "invalid billing period")
)
