package medicationRepository

const (
	queryCreateMedication = `
		INSERT INTO medications (
			id, patient_id, name, strength, dosage, frequency, created_at
		) VALUES (
			:id, :patient_id, :name, :strength, :dosage, :frequency, :created_at
		)
	`

	queryGetMedicationsByPatientID = `
		SELECT
			id, patient_id, name, strength, dosage, frequency, created_at
		FROM medications
		WHERE patient_id = :patient_id
		ORDER BY created_at DESC
	`

	queryDeleteMedication = `
		DELETE FROM medications
		WHERE id = :id AND patient_id = :patient_id
	`
)
