package appointment

import "time"

type CreateAppointmentRequest struct {
	Provider string `json:"provider" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
	Reason   string `json:"reason,omitempty" validate:"max=300"`
}

type AppointmentResponse struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
