package appointmentService

import (
	"CarePortalGolang/internal/api/appointment"
	appointmentRepository "CarePortalGolang/internal/api/appointment/repository"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

type IAppointmentService interface {
	CreateAppointment(ctx context.Context, patientID string, req appointment.CreateAppointmentRequest) (entity.Appointment, error)
	GetUpcomingAppointments(ctx context.Context, patientID string, limit int) ([]entity.Appointment, error)
	CancelAppointment(ctx context.Context, patientID, appointmentID string) error
}

type appointmentService struct {
	log             *logrus.Logger
	appointmentRepo appointmentRepository.Repository
	utils           utils.IUtils
}

func New(
	log *logrus.Logger,
	appointmentRepo appointmentRepository.Repository,
	utils utils.IUtils,
) IAppointmentService {
	return &appointmentService{
		log:             log,
		appointmentRepo: appointmentRepo,
		utils:           utils,
	}
}
