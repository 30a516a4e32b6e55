package appointmentRepository

import (
	"CarePortalGolang/internal/api/appointment"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type AppointmentDB struct {
	ID        sql.NullString `db:"id"`
	PatientID sql.NullString `db:"patient_id"`
	Provider  sql.NullString `db:"provider"`
	Date      sql.NullString `db:"date"`
	Time      sql.NullString `db:"time"`
	Reason    sql.NullString `db:"reason"`
	Status    sql.NullString `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *appointmentRepository) CreateAppointment(ctx context.Context, appt entity.Appointment) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         appt.ID,
		"patient_id": appt.PatientID,
		"provider":   appt.Provider,
		"date":       appt.Date,
		"time":       appt.Time,
		"reason":     appt.Reason,
		"status":     string(appt.Status),
		"created_at": appt.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateAppointment, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateAppointment")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating appointment")
		return err
	}

	return nil
}

func (r *appointmentRepository) GetAppointmentByID(ctx context.Context, id string) (entity.Appointment, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var apptDB AppointmentDB

	query, args, err := sqlx.Named(queryGetAppointmentByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAppointmentByID named query preparation err")
		return entity.Appointment{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&apptDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Appointment{}, appointment.ErrAppointmentNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAppointmentByID execution err")
		return entity.Appointment{}, err
	}

	return r.makeAppointment(apptDB), nil
}

func (r *appointmentRepository) GetUpcomingByPatientID(ctx context.Context, patientID string, limit int) ([]entity.Appointment, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var apptsList []AppointmentDB

	argsKV := map[string]interface{}{
		"patient_id": patientID,
		"today":      time.Now().Format("2006-01-02"),
		"limit":      limit,
	}

	query, args, err := sqlx.Named(queryGetUpcomingByPatientID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUpcomingByPatientID named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &apptsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUpcomingByPatientID execution err")
		return nil, err
	}

	var appts []entity.Appointment
	for _, apptDB := range apptsList {
		appts = append(appts, r.makeAppointment(apptDB))
	}

	return appts, nil
}

func (r *appointmentRepository) UpdateAppointmentStatus(ctx context.Context, id string, status entity.AppointmentStatus) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":     id,
		"status": string(status),
	}

	query, args, err := sqlx.Named(queryUpdateAppointmentStatus, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateAppointmentStatus named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating appointment status")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return appointment.ErrAppointmentNotFound
	}

	return nil
}

func (r *appointmentRepository) makeAppointment(apptDB AppointmentDB) entity.Appointment {
	return entity.Appointment{
		ID:        apptDB.ID.String,
		PatientID: apptDB.PatientID.String,
		Provider:  apptDB.Provider.String,
		Date:      apptDB.Date.String,
		Time:      apptDB.Time.String,
		Reason:    apptDB.Reason.String,
		Status:    entity.AppointmentStatus(apptDB.Status.String),
		CreatedAt: apptDB.CreatedAt,
	}
}
