package billingService

import (
	"CarePortalGolang/internal/api/billing"
	billingRepository "CarePortalGolang/internal/api/billing/repository"
	"CarePortalGolang/internal/entity"
	"context"

	"github.com/sirupsen/logrus"
)

type IBillingService interface {
	GetBalance(ctx context.Context, patientID, period string) (billing.BalanceSummary, error)
	GetUnpaidInvoices(ctx context.Context, patientID, period string) ([]entity.Invoice, error)
	GetOutstandingSummary(ctx context.Context, period string) (billing.OutstandingSummary, error)
}

type billingService struct {
	log         *logrus.Logger
	billingRepo billingRepository.Repository
}

func New(log *logrus.Logger, billingRepo billingRepository.Repository) IBillingService {
	return &billingService{
		log:         log,
		billingRepo: billingRepo,
	}
}
