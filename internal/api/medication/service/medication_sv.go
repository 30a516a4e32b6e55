package medicationService

import (
	"CarePortalGolang/internal/api/medication"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *medicationService) AddMedication(ctx context.Context, patientID string, req medication.AddMedicationRequest) (entity.Medication, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.medicationRepo.NewClient(false)
	if err != nil {
		return entity.Medication{}, err
	}

	existing, err := repo.Medications.GetMedicationsByPatientID(ctx, patientID)
	if err != nil {
		return entity.Medication{}, err
	}
	for _, med := range existing {
		if strings.EqualFold(med.Name, req.Name) && med.Strength == req.Strength {
			return entity.Medication{}, medication.ErrDuplicateEntry
		}
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate medication ID")
		return entity.Medication{}, err
	}

	med := entity.Medication{
		ID:        id,
		PatientID: patientID,
		Name:      req.Name,
		Strength:  req.Strength,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		CreatedAt: time.Now(),
	}

	if err := repo.Medications.CreateMedication(ctx, med); err != nil {
		return entity.Medication{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":    requestID,
		"medication_id": med.ID,
		"name":          med.Name,
	}).Info("Medication added")

	return med, nil
}

func (s *medicationService) GetMedications(ctx context.Context, patientID string) ([]entity.Medication, error) {
	repo, err := s.medicationRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Medications.GetMedicationsByPatientID(ctx, patientID)
}

func (s *medicationService) RemoveMedication(ctx context.Context, patientID, medicationID string) error {
	repo, err := s.medicationRepo.NewClient(false)
	if err != nil {
		return err
	}

	return repo.Medications.DeleteMedication(ctx, medicationID, patientID)
}
