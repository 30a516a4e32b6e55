package billingRepository

import (
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type InvoiceDB struct {
	ID        sql.NullString  `db:"id"`
	PatientID sql.NullString  `db:"patient_id"`
	Period    sql.NullString  `db:"period"`
	AmountDue sql.NullFloat64 `db:"amount_due"`
	Status    sql.NullString  `db:"status"`
	DueDate   time.Time       `db:"due_date"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r *invoiceRepository) GetUnpaidByPatientID(ctx context.Context, patientID, period string) ([]entity.Invoice, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var invoicesList []InvoiceDB

	argsKV := map[string]interface{}{
		"patient_id": patientID,
		"period":     period,
	}

	query, args, err := sqlx.Named(queryGetUnpaidByPatientID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUnpaidByPatientID named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &invoicesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUnpaidByPatientID execution err")
		return nil, err
	}

	var invoices []entity.Invoice
	for _, invDB := range invoicesList {
		invoices = append(invoices, entity.Invoice{
			ID:        invDB.ID.String,
			PatientID: invDB.PatientID.String,
			Period:    invDB.Period.String,
			AmountDue: invDB.AmountDue.Float64,
			Status:    invDB.Status.String,
			DueDate:   invDB.DueDate,
			CreatedAt: invDB.CreatedAt,
		})
	}

	return invoices, nil
}

func (r *invoiceRepository) GetOutstandingTotals(ctx context.Context, period string) (float64, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var row struct {
		Total float64 `db:"total"`
		Count int     `db:"count"`
	}

	query, args, err := sqlx.Named(queryGetOutstandingTotals, map[string]interface{}{"period": period})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetOutstandingTotals named query preparation err")
		return 0, 0, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetOutstandingTotals execution err")
		return 0, 0, err
	}

	return row.Total, row.Count, nil
}
