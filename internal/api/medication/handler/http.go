package medicationHandler

import (
	medicationService "CarePortalGolang/internal/api/medication/service"
	"CarePortalGolang/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MedicationHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	medicationService medicationService.IMedicationService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ms medicationService.IMedicationService,
) *MedicationHandler {
	return &MedicationHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		medicationService: ms,
	}
}

func (h *MedicationHandler) Start(srv fiber.Router) {
	medications := srv.Group("/medications")

	medications.Use(h.middleware.NewTokenMiddleware)

	medications.Post("/", h.AddMedication)
	medications.Get("/", h.GetMedications)
	medications.Delete("/:id", h.RemoveMedication)
}
