package medication

type AddMedicationRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Strength  string `json:"strength,omitempty" validate:"max=40"`
	Dosage    string `json:"dosage,omitempty" validate:"max=60"`
	Frequency string `json:"frequency,omitempty" validate:"max=60"`
}
