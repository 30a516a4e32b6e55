package entity

type IntentKind string

const (
	IntentNavigate          IntentKind = "navigate"
	IntentBookAppointment   IntentKind = "book_appointment"
	IntentAddMedication     IntentKind = "add_medication"
	IntentCheckAppointments IntentKind = "check_appointments"
	IntentQueryBilling      IntentKind = "query_billing"
	IntentUnknown           IntentKind = "unknown"
)

// Intent is the structured interpretation of a final transcript. Confidence
// is derived from which rule matched, not a probability.
type Intent struct {
	Kind       IntentKind       `json:"kind"`
	Context    OperatingContext `json:"context"`
	Rule       string           `json:"rule,omitempty"`
	Confidence float64          `json:"confidence"`

	Navigate    *NavigatePayload         `json:"navigate,omitempty"`
	Appointment *AppointmentPayload      `json:"appointment,omitempty"`
	Medication  *MedicationPayload       `json:"medication,omitempty"`
	Query       *AppointmentQueryPayload `json:"query,omitempty"`
	Billing     *BillingQueryPayload     `json:"billing,omitempty"`
}

type NavigatePayload struct {
	PageID      string `json:"page_id"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
}

type AppointmentPayload struct {
	Provider string `json:"provider,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type MedicationPayload struct {
	Name      string `json:"name"`
	Strength  string `json:"strength,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

type AppointmentQueryPayload struct {
	Limit int `json:"limit,omitempty"`
}

type BillingQueryPayload struct {
	Period string `json:"period,omitempty"`
}

type ErrorKind string

const (
	ErrKindPermissionDenied         ErrorKind = "permission_denied"
	ErrKindDeviceUnavailable        ErrorKind = "device_unavailable"
	ErrKindSessionBusy              ErrorKind = "session_busy"
	ErrKindTranscriptionUnavailable ErrorKind = "transcription_unavailable"
	ErrKindClassificationMiss       ErrorKind = "classification_miss"
	ErrKindDispatchFailure          ErrorKind = "dispatch_failure"
	ErrKindSynthesisFailure         ErrorKind = "synthesis_failure"
)

// CommandResult is the terminal outcome of one dispatched intent.
// Reply is always non-empty, even on failure.
type CommandResult struct {
	Reply     string      `json:"reply"`
	Success   bool        `json:"success"`
	Action    string      `json:"action,omitempty"`
	Target    string      `json:"target,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	ErrorKind ErrorKind   `json:"error_kind,omitempty"`
}
