package entity

import "time"

type AppointmentStatus string

const (
	AppointmentRequested AppointmentStatus = "requested"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	Provider  string            `json:"provider"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Reason    string            `json:"reason"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type Medication struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Strength  string    `json:"strength"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency"`
	CreatedAt time.Time `json:"created_at"`
}

type Invoice struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Period    string    `json:"period"`
	AmountDue float64   `json:"amount_due"`
	Status    string    `json:"status"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}
