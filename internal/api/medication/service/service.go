package medicationService

import (
	"CarePortalGolang/internal/api/medication"
	medicationRepository "CarePortalGolang/internal/api/medication/repository"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

type IMedicationService interface {
	AddMedication(ctx context.Context, patientID string, req medication.AddMedicationRequest) (entity.Medication, error)
	GetMedications(ctx context.Context, patientID string) ([]entity.Medication, error)
	RemoveMedication(ctx context.Context, patientID, medicationID string) error
}

type medicationService struct {
	log            *logrus.Logger
	medicationRepo medicationRepository.Repository
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	medicationRepo medicationRepository.Repository,
	utils utils.IUtils,
) IMedicationService {
	return &medicationService{
		log:            log,
		medicationRepo: medicationRepo,
		utils:          utils,
	}
}
