package medicationRepository

import (
	"CarePortalGolang/internal/api/medication"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type MedicationDB struct {
	ID        sql.NullString `db:"id"`
	PatientID sql.NullString `db:"patient_id"`
	Name      sql.NullString `db:"name"`
	Strength  sql.NullString `db:"strength"`
	Dosage    sql.NullString `db:"dosage"`
	Frequency sql.NullString `db:"frequency"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *medicationRepository) CreateMedication(ctx context.Context, med entity.Medication) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         med.ID,
		"patient_id": med.PatientID,
		"name":       med.Name,
		"strength":   med.Strength,
		"dosage":     med.Dosage,
		"frequency":  med.Frequency,
		"created_at": med.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateMedication, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateMedication")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating medication")
		return err
	}

	return nil
}

func (r *medicationRepository) GetMedicationsByPatientID(ctx context.Context, patientID string) ([]entity.Medication, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var medsList []MedicationDB

	query, args, err := sqlx.Named(queryGetMedicationsByPatientID, map[string]interface{}{"patient_id": patientID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetMedicationsByPatientID named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &medsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetMedicationsByPatientID execution err")
		return nil, err
	}

	var meds []entity.Medication
	for _, medDB := range medsList {
		meds = append(meds, entity.Medication{
			ID:        medDB.ID.String,
			PatientID: medDB.PatientID.String,
			Name:      medDB.Name.String,
			Strength:  medDB.Strength.String,
			Dosage:    medDB.Dosage.String,
			Frequency: medDB.Frequency.String,
			CreatedAt: medDB.CreatedAt,
		})
	}

	return meds, nil
}

func (r *medicationRepository) DeleteMedication(ctx context.Context, id, patientID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         id,
		"patient_id": patientID,
	}

	query, args, err := sqlx.Named(queryDeleteMedication, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteMedication named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when deleting medication")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return medication.ErrMedicationNotFound
	}

	return nil
}
