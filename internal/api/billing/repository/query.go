package billingRepository

const (
	queryGetUnpaidByPatientID = `
		SELECT
			id, patient_id, period, amount_due, status, due_date, created_at
		FROM invoices
		WHERE patient_id = :patient_id
		AND status = 'unpaid'
		AND (:period = '' OR period = :period)
		ORDER BY due_date ASC
	`

	queryGetOutstandingTotals = `
		SELECT
			COALESCE(SUM(amount_due), 0) AS total,
			COUNT(*) AS count
		FROM invoices
		WHERE status = 'unpaid'
		AND (:period = '' OR period = :period)
	`
)
