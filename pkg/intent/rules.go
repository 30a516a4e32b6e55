package intent

import (
	"CarePortalGolang/internal/entity"
	"time"
)

// Rule order inside each context encodes precedence: action verbs before the
// generic navigation catch-all, so "show my appointments" reads as a lookup
// rather than a page hop.
func defaultRules() map[entity.OperatingContext][]Rule {
	return map[entity.OperatingContext][]Rule{
		entity.ContextPatient: {
			{
				Name:       "patient.book_appointment",
				Kind:       entity.IntentBookAppointment,
				Phrases:    []string{"book an appointment", "book me", "schedule an appointment", "make an appointment", "schedule a visit", "see the doctor", "book a visit"},
				AllWords:   []string{"book", "appointment"},
				Confidence: 0.92,
				Extract:    extractAppointment,
			},
			{
				Name:       "patient.check_appointments",
				Kind:       entity.IntentCheckAppointments,
				Phrases:    []string{"my appointments", "upcoming appointments", "next appointment", "when is my appointment", "do i have an appointment", "do i have any appointments", "check my appointments"},
				Confidence: 0.9,
				Extract:    extractAppointmentQuery,
			},
			{
				Name:       "patient.add_medication",
				Kind:       entity.IntentAddMedication,
				Phrases:    []string{"add a medication", "add medication", "add a new medication", "new medication", "start taking", "i am taking", "i m taking", "record that i take"},
				Confidence: 0.9,
				Extract:    extractMedication,
			},
			{
				Name:       "patient.navigate",
				Kind:       entity.IntentNavigate,
				Phrases:    []string{"go to", "open", "show me", "show my", "take me to", "navigate to", "pull up"},
				Confidence: 0.8,
				Extract:    extractNavigation,
			},
		},
		entity.ContextProvider: {
			{
				Name:       "provider.add_medication",
				Kind:       entity.IntentAddMedication,
				Phrases:    []string{"prescribe", "add a medication", "add medication", "start the patient on", "put the patient on"},
				Confidence: 0.92,
				Extract:    extractMedication,
			},
			{
				Name:       "provider.check_schedule",
				Kind:       entity.IntentCheckAppointments,
				Phrases:    []string{"my schedule", "today s appointments", "todays appointments", "upcoming appointments", "who is next", "next patient", "my appointments"},
				Confidence: 0.9,
				Extract:    extractAppointmentQuery,
			},
			{
				Name:       "provider.navigate",
				Kind:       entity.IntentNavigate,
				Phrases:    []string{"go to", "open", "show me", "show my", "take me to", "navigate to", "pull up"},
				Confidence: 0.8,
				Extract:    extractNavigation,
			},
		},
		entity.ContextBilling: {
			{
				Name:       "billing.query",
				Kind:       entity.IntentQueryBilling,
				Phrases:    []string{"balance", "what do i owe", "how much do i owe", "my bill", "invoice", "outstanding", "charges", "statement", "payment due", "amount due"},
				Confidence: 0.9,
				Extract:    extractBillingQuery,
			},
			{
				Name:       "billing.navigate",
				Kind:       entity.IntentNavigate,
				Phrases:    []string{"go to", "open", "show me", "show my", "take me to", "navigate to", "pull up"},
				Confidence: 0.8,
				Extract:    extractNavigation,
			},
		},
		entity.ContextAdmin: {
			{
				Name:       "admin.check_appointments",
				Kind:       entity.IntentCheckAppointments,
				Phrases:    []string{"appointments today", "appointment volume", "upcoming appointments", "how many appointments"},
				Confidence: 0.88,
				Extract:    extractAppointmentQuery,
			},
			{
				Name:       "admin.billing_summary",
				Kind:       entity.IntentQueryBilling,
				Phrases:    []string{"outstanding invoices", "unpaid invoices", "billing summary", "revenue"},
				Confidence: 0.88,
				Extract:    extractBillingQuery,
			},
			{
				Name:       "admin.navigate",
				Kind:       entity.IntentNavigate,
				Phrases:    []string{"go to", "open", "show me", "show my", "take me to", "navigate to", "pull up"},
				Confidence: 0.8,
				Extract:    extractNavigation,
			},
		},
	}
}

func defaultPages() map[entity.OperatingContext][]PageTarget {
	return map[entity.OperatingContext][]PageTarget{
		entity.ContextPatient: {
			{PageID: "patient_dashboard", Path: "/patient", DisplayName: "Dashboard", Keywords: []string{"dashboard", "home"}},
			{PageID: "patient_appointments", Path: "/patient/appointments", DisplayName: "Appointments", Keywords: []string{"appointment"}},
			{PageID: "patient_medications", Path: "/patient/medications", DisplayName: "Medications", Keywords: []string{"medication", "medicine", "prescription"}},
			{PageID: "patient_records", Path: "/patient/records", DisplayName: "Medical Records", Keywords: []string{"record", "lab", "result", "history"}},
			{PageID: "patient_messages", Path: "/patient/messages", DisplayName: "Messages", Keywords: []string{"message", "inbox"}},
		},
		entity.ContextProvider: {
			{PageID: "provider_schedule", Path: "/provider/schedule", DisplayName: "Schedule", Keywords: []string{"schedule", "calendar", "appointment"}},
			{PageID: "provider_patients", Path: "/provider/patients", DisplayName: "Patients", Keywords: []string{"patient", "roster"}},
			{PageID: "provider_charts", Path: "/provider/charts", DisplayName: "Charts", Keywords: []string{"chart", "note"}},
		},
		entity.ContextBilling: {
			{PageID: "billing_invoices", Path: "/billing/invoices", DisplayName: "Invoices", Keywords: []string{"invoice", "bill"}},
			{PageID: "billing_payments", Path: "/billing/payments", DisplayName: "Payments", Keywords: []string{"payment", "pay"}},
			{PageID: "billing_statements", Path: "/billing/statements", DisplayName: "Statements", Keywords: []string{"statement"}},
		},
		entity.ContextAdmin: {
			{PageID: "admin_users", Path: "/admin/users", DisplayName: "User Management", Keywords: []string{"user", "account", "staff"}},
			{PageID: "admin_reports", Path: "/admin/reports", DisplayName: "Reports", Keywords: []string{"report", "analytics"}},
			{PageID: "admin_settings", Path: "/admin/settings", DisplayName: "Settings", Keywords: []string{"setting", "configuration"}},
		},
	}
}

func extractNavigation(c *Classifier, text string, opCtx entity.OperatingContext, _ time.Time, in *entity.Intent) bool {
	page, ok := c.findPage(text, opCtx)
	if !ok {
		return false
	}

	in.Navigate = &entity.NavigatePayload{
		PageID:      page.PageID,
		Path:        page.Path,
		DisplayName: page.DisplayName,
	}
	return true
}
