package appointment

import "CarePortalGolang/pkg/response"

var (
	ErrAppointmentNotFound = response.NewError(404, "appointment not found")
	ErrSlotUnavailable     = response.NewError(409, "requested slot is not available")
	ErrAlreadyCancelled    = response.NewError(409, "appointment already cancelled")
)
