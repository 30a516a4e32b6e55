package medication

import "CarePortalGolang/pkg/response"

var (
	ErrMedicationNotFound = response.NewError(404, "medication not found")
	ErrDuplicateEntry     = response.NewError(409, "medication already on the list")
)
