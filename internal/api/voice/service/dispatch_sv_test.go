package voiceService

import (
	"CarePortalGolang/internal/api/appointment"
	"CarePortalGolang/internal/api/billing"
	"CarePortalGolang/internal/api/medication"
	"CarePortalGolang/internal/entity"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppointments struct {
	createCalls   int
	upcomingCalls int
	err           error
	upcoming      []entity.Appointment
}

func (f *fakeAppointments) CreateAppointment(ctx context.Context, patientID string, req appointment.CreateAppointmentRequest) (entity.Appointment, error) {
	f.createCalls++
	if f.err != nil {
		return entity.Appointment{}, f.err
	}
	return entity.Appointment{
		ID:       "appt-1",
		Provider: req.Provider,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Status:   entity.AppointmentRequested,
	}, nil
}

func (f *fakeAppointments) GetUpcomingAppointments(ctx context.Context, patientID string, limit int) ([]entity.Appointment, error) {
	f.upcomingCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.upcoming, nil
}

func (f *fakeAppointments) CancelAppointment(ctx context.Context, patientID, appointmentID string) error {
	return nil
}

type fakeMedications struct {
	addCalls int
	err      error
}

func (f *fakeMedications) AddMedication(ctx context.Context, patientID string, req medication.AddMedicationRequest) (entity.Medication, error) {
	f.addCalls++
	if f.err != nil {
		return entity.Medication{}, f.err
	}
	return entity.Medication{
		ID:        "med-1",
		Name:      req.Name,
		Strength:  req.Strength,
		Frequency: req.Frequency,
	}, nil
}

func (f *fakeMedications) GetMedications(ctx context.Context, patientID string) ([]entity.Medication, error) {
	return nil, nil
}

func (f *fakeMedications) RemoveMedication(ctx context.Context, patientID, medicationID string) error {
	return nil
}

type fakeBilling struct {
	balanceCalls int
	summaryCalls int
	err          error
	balance      billing.BalanceSummary
	summary      billing.OutstandingSummary
}

func (f *fakeBilling) GetBalance(ctx context.Context, patientID, period string) (billing.BalanceSummary, error) {
	f.balanceCalls++
	if f.err != nil {
		return billing.BalanceSummary{}, f.err
	}
	return f.balance, nil
}

func (f *fakeBilling) GetUnpaidInvoices(ctx context.Context, patientID, period string) ([]entity.Invoice, error) {
	return nil, nil
}

func (f *fakeBilling) GetOutstandingSummary(ctx context.Context, period string) (billing.OutstandingSummary, error) {
	f.summaryCalls++
	if f.err != nil {
		return billing.OutstandingSummary{}, f.err
	}
	return f.summary, nil
}

type dispatchFixture struct {
	dispatcher   *dispatcher
	appointments *fakeAppointments
	medications  *fakeMedications
	billing      *fakeBilling
}

func newDispatchFixture() *dispatchFixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	appts := &fakeAppointments{}
	meds := &fakeMedications{}
	bill := &fakeBilling{}

	return &dispatchFixture{
		dispatcher:   newDispatcher(logger, appts, meds, bill, 5*time.Second),
		appointments: appts,
		medications:  meds,
		billing:      bill,
	}
}

func (f *dispatchFixture) totalCalls() int {
	return f.appointments.createCalls + f.appointments.upcomingCalls +
		f.medications.addCalls + f.billing.balanceCalls + f.billing.summaryCalls
}

var testUser = entity.UserLoginData{ID: "user-1", Email: "pat@example.com", Role: "patient"}

func TestDispatchUnknownShortCircuits(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentUnknown,
		Context: entity.ContextPatient,
	})

	assert.False(t, result.Success)
	assert.Equal(t, entity.ErrKindClassificationMiss, result.ErrorKind)
	assert.NotEmpty(t, result.Reply)
	assert.Zero(t, f.totalCalls(), "unknown intents must never reach a collaborator")
}

func TestDispatchCallsExactlyOneCollaborator(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentBookAppointment,
		Context: entity.ContextPatient,
		Appointment: &entity.AppointmentPayload{
			Provider: "Dr. Rivas",
			Date:     "2025-03-11",
			Time:     "15:00",
			Reason:   "chest pain",
		},
	})

	assert.True(t, result.Success)
	assert.Equal(t, "book_appointment", result.Action)
	assert.Contains(t, result.Reply, "Dr. Rivas")
	assert.Contains(t, result.Reply, "2025-03-11")
	assert.Equal(t, 1, f.appointments.createCalls)
	assert.Equal(t, 1, f.totalCalls())
}

func TestDispatchBookWithoutDateIsMiss(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:        entity.IntentBookAppointment,
		Context:     entity.ContextPatient,
		Appointment: &entity.AppointmentPayload{Provider: "Dr. Rivas"},
	})

	assert.False(t, result.Success)
	assert.Equal(t, entity.ErrKindClassificationMiss, result.ErrorKind)
	assert.Zero(t, f.totalCalls())
}

func TestDispatchBookDefaultsProvider(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:        entity.IntentBookAppointment,
		Context:     entity.ContextPatient,
		Appointment: &entity.AppointmentPayload{Date: "2025-03-11"},
	})

	assert.True(t, result.Success)
	assert.Contains(t, result.Reply, "next available provider")
}

func TestDispatchCollaboratorFailure(t *testing.T) {
	f := newDispatchFixture()
	f.appointments.err = errors.New("db down")

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:        entity.IntentBookAppointment,
		Context:     entity.ContextPatient,
		Appointment: &entity.AppointmentPayload{Date: "2025-03-11"},
	})

	assert.False(t, result.Success)
	assert.Equal(t, entity.ErrKindDispatchFailure, result.ErrorKind)
	assert.NotEmpty(t, result.Reply)
	assert.Equal(t, 1, f.appointments.createCalls, "failure must not trigger a retry")
}

func TestDispatchNavigate(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentNavigate,
		Context: entity.ContextPatient,
		Navigate: &entity.NavigatePayload{
			PageID:      "records",
			Path:        "/patient/records",
			DisplayName: "Medical Records",
		},
	})

	require.True(t, result.Success)
	assert.Equal(t, "navigate", result.Action)
	assert.Equal(t, "/patient/records", result.Target)
	assert.Equal(t, "Opening Medical Records.", result.Reply)
	assert.Zero(t, f.totalCalls(), "navigation is resolved locally")
}

func TestDispatchNavigateWithoutPayloadIsMiss(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentNavigate,
		Context: entity.ContextPatient,
	})

	assert.False(t, result.Success)
	assert.Equal(t, entity.ErrKindClassificationMiss, result.ErrorKind)
}

func TestDispatchCheckAppointments(t *testing.T) {
	f := newDispatchFixture()
	f.appointments.upcoming = []entity.Appointment{
		{ID: "appt-1", Provider: "Dr. Chen", Date: "2025-03-12", Time: "09:00"},
		{ID: "appt-2", Provider: "Dr. Rivas", Date: "2025-03-20"},
	}

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentCheckAppointments,
		Context: entity.ContextPatient,
	})

	require.True(t, result.Success)
	assert.Contains(t, result.Reply, "2 upcoming appointments")
	assert.Contains(t, result.Reply, "Dr. Chen")
	assert.Contains(t, result.Reply, "09:00")
	assert.Equal(t, 1, f.appointments.upcomingCalls)
}

func TestDispatchCheckAppointmentsEmpty(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentCheckAppointments,
		Context: entity.ContextPatient,
	})

	require.True(t, result.Success)
	assert.Equal(t, "You have no upcoming appointments.", result.Reply)
}

func TestDispatchBillingPatientBalance(t *testing.T) {
	f := newDispatchFixture()
	f.billing.balance = billing.BalanceSummary{PatientID: "user-1", TotalDue: 142.50, InvoiceCount: 2}

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentQueryBilling,
		Context: entity.ContextBilling,
	})

	require.True(t, result.Success)
	assert.Contains(t, result.Reply, "142.50")
	assert.Equal(t, 1, f.billing.balanceCalls)
	assert.Zero(t, f.billing.summaryCalls)
}

func TestDispatchBillingFullyPaid(t *testing.T) {
	f := newDispatchFixture()
	f.billing.balance = billing.BalanceSummary{PatientID: "user-1"}

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentQueryBilling,
		Context: entity.ContextBilling,
	})

	require.True(t, result.Success)
	assert.Equal(t, "Your balance is fully paid. Nothing is due.", result.Reply)
}

func TestDispatchBillingAdminSummary(t *testing.T) {
	f := newDispatchFixture()
	f.billing.summary = billing.OutstandingSummary{TotalOutstanding: 980.25, UnpaidInvoices: 7}

	admin := entity.UserLoginData{ID: "admin-1", Email: "admin@example.com", Role: "admin"}
	result := f.dispatcher.Dispatch(context.Background(), admin, entity.Intent{
		Kind:    entity.IntentQueryBilling,
		Context: entity.ContextAdmin,
	})

	require.True(t, result.Success)
	assert.Contains(t, result.Reply, "7 unpaid invoices")
	assert.Equal(t, 1, f.billing.summaryCalls)
	assert.Zero(t, f.billing.balanceCalls)
}

func TestDispatchAddMedication(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentAddMedication,
		Context: entity.ContextPatient,
		Medication: &entity.MedicationPayload{
			Name:      "Metformin",
			Strength:  "500mg",
			Frequency: "twice daily",
		},
	})

	require.True(t, result.Success)
	assert.Contains(t, result.Reply, "Metformin")
	assert.Contains(t, result.Reply, "500mg")
	assert.Equal(t, 1, f.medications.addCalls)
}

func TestDispatchAddMedicationWithoutNameIsMiss(t *testing.T) {
	f := newDispatchFixture()

	result := f.dispatcher.Dispatch(context.Background(), testUser, entity.Intent{
		Kind:    entity.IntentAddMedication,
		Context: entity.ContextPatient,
	})

	assert.False(t, result.Success)
	assert.Equal(t, entity.ErrKindClassificationMiss, result.ErrorKind)
	assert.Zero(t, f.medications.addCalls)
}

func TestDispatchReplyNeverEmpty(t *testing.T) {
	f := newDispatchFixture()

	intents := []entity.Intent{
		{Kind: entity.IntentUnknown, Context: entity.ContextPatient},
		{Kind: entity.IntentNavigate, Context: entity.ContextPatient},
		{Kind: entity.IntentBookAppointment, Context: entity.ContextPatient},
		{Kind: entity.IntentAddMedication, Context: entity.ContextPatient},
		{Kind: entity.IntentCheckAppointments, Context: entity.ContextPatient},
		{Kind: entity.IntentQueryBilling, Context: entity.ContextBilling},
		{Kind: "unsupported_kind", Context: entity.ContextPatient},
	}

	for _, it := range intents {
		result := f.dispatcher.Dispatch(context.Background(), testUser, it)
		assert.NotEmpty(t, result.Reply, "intent %s produced an empty reply", it.Kind)
	}
}
