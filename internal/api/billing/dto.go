package billing

type BalanceSummary struct {
	PatientID    string  `json:"patient_id"`
	TotalDue     float64 `json:"total_due"`
	InvoiceCount int     `json:"invoice_count"`
	Period       string  `json:"period,omitempty"`
}

type OutstandingSummary struct {
	TotalOutstanding float64 `json:"total_outstanding"`
	UnpaidInvoices   int     `json:"unpaid_invoices"`
	Period           string  `json:"period,omitempty"`
}
