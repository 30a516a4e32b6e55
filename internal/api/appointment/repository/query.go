package appointmentRepository

const (
	queryCreateAppointment = `
		INSERT INTO appointments (
			id, patient_id, provider, date, time, reason, status, created_at
		) VALUES (
			:id, :patient_id, :provider, :date, :time, :reason, :status, :created_at
		)
	`

	queryGetAppointmentByID = `
		SELECT
			id, patient_id, provider, date, time, reason, status, created_at
		FROM appointments
		WHERE id = :id
	`

	queryGetUpcomingByPatientID = `
		SELECT
			id, patient_id, provider, date, time, reason, status, created_at
		FROM appointments
		WHERE patient_id = :patient_id
		AND status != 'cancelled'
		AND date >= :today
		ORDER BY date ASC, time ASC
		LIMIT :limit
	`

	queryUpdateAppointmentStatus = `
		UPDATE appointments
		SET status = :status
		WHERE id = :id
	`
)
