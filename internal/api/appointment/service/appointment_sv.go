package appointmentService

import (
	"CarePortalGolang/internal/api/appointment"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultUpcomingLimit = 5

func (s *appointmentService) CreateAppointment(ctx context.Context, patientID string, req appointment.CreateAppointmentRequest) (entity.Appointment, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.appointmentRepo.NewClient(false)
	if err != nil {
		return entity.Appointment{}, err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate appointment ID")
		return entity.Appointment{}, err
	}

	appt := entity.Appointment{
		ID:        id,
		PatientID: patientID,
		Provider:  req.Provider,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		Status:    entity.AppointmentRequested,
		CreatedAt: time.Now(),
	}

	if err := repo.Appointments.CreateAppointment(ctx, appt); err != nil {
		return entity.Appointment{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":     requestID,
		"appointment_id": appt.ID,
		"provider":       appt.Provider,
		"date":           appt.Date,
	}).Info("Appointment requested")

	return appt, nil
}

func (s *appointmentService) GetUpcomingAppointments(ctx context.Context, patientID string, limit int) ([]entity.Appointment, error) {
	if limit < 1 || limit > 50 {
		limit = defaultUpcomingLimit
	}

	repo, err := s.appointmentRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Appointments.GetUpcomingByPatientID(ctx, patientID, limit)
}

func (s *appointmentService) CancelAppointment(ctx context.Context, patientID, appointmentID string) error {
	repo, err := s.appointmentRepo.NewClient(false)
	if err != nil {
		return err
	}

	appt, err := repo.Appointments.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	// patients can only touch their own appointments
	if appt.PatientID != patientID {
		return appointment.ErrAppointmentNotFound
	}

	if appt.Status == entity.AppointmentCancelled {
		return appointment.ErrAlreadyCancelled
	}

	return repo.Appointments.UpdateAppointmentStatus(ctx, appointmentID, entity.AppointmentCancelled)
}
