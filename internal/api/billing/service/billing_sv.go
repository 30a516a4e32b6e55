package billingService

import (
	"CarePortalGolang/internal/api/billing"
	"CarePortalGolang/internal/entity"
	"context"
	"regexp"
)

var periodRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (s *billingService) GetBalance(ctx context.Context, patientID, period string) (billing.BalanceSummary, error) {
	if period != "" && !periodRe.MatchString(period) {
		return billing.BalanceSummary{}, billing.ErrInvalidPeriod
	}

	repo, err := s.billingRepo.NewClient(false)
	if err != nil {
		return billing.BalanceSummary{}, err
	}

	invoices, err := repo.Invoices.GetUnpaidByPatientID(ctx, patientID, period)
	if err != nil {
		return billing.BalanceSummary{}, err
	}

	summary := billing.BalanceSummary{
		PatientID: patientID,
		Period:    period,
	}
	for _, inv := range invoices {
		summary.TotalDue += inv.AmountDue
		summary.InvoiceCount++
	}

	return summary, nil
}

func (s *billingService) GetUnpaidInvoices(ctx context.Context, patientID, period string) ([]entity.Invoice, error) {
	if period != "" && !periodRe.MatchString(period) {
		return nil, billing.ErrInvalidPeriod
	}

	repo, err := s.billingRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Invoices.GetUnpaidByPatientID(ctx, patientID, period)
}

func (s *billingService) GetOutstandingSummary(ctx context.Context, period string) (billing.OutstandingSummary, error) {
	if period != "" && !periodRe.MatchString(period) {
		return billing.OutstandingSummary{}, billing.ErrInvalidPeriod
	}

	repo, err := s.billingRepo.NewClient(false)
	if err != nil {
		return billing.OutstandingSummary{}, err
	}

	total, count, err := repo.Invoices.GetOutstandingTotals(ctx, period)
	if err != nil {
		return billing.OutstandingSummary{}, err
	}

	return billing.OutstandingSummary{
		TotalOutstanding: total,
		UnpaidInvoices:   count,
		Period:           period,
	}, nil
}
