package voiceService

import (
	"CarePortalGolang/internal/api/appointment"
	appointmentService "CarePortalGolang/internal/api/appointment/service"
	billingService "CarePortalGolang/internal/api/billing/service"
	"CarePortalGolang/internal/api/medication"
	medicationService "CarePortalGolang/internal/api/medication/service"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// dispatcher routes one classified intent to exactly one collaborator call.
// Unknown intents never reach a collaborator, and whatever happens the caller
// gets a non-empty spoken reply back.
type dispatcher struct {
	log          *logrus.Logger
	appointments appointmentService.IAppointmentService
	medications  medicationService.IMedicationService
	billing      billingService.IBillingService
	timeout      time.Duration
}

func newDispatcher(
	log *logrus.Logger,
	appointments appointmentService.IAppointmentService,
	medications medicationService.IMedicationService,
	billing billingService.IBillingService,
	timeout time.Duration,
) *dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &dispatcher{
		log:          log,
		appointments: appointments,
		medications:  medications,
		billing:      billing,
		timeout:      timeout,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, user entity.UserLoginData, it entity.Intent) entity.CommandResult {
	if it.Kind == entity.IntentUnknown {
		return entity.CommandResult{
			Reply:     "Sorry, I didn't understand that. You can ask me to open a page, book an appointment, or check your information.",
			Success:   false,
			ErrorKind: entity.ErrKindClassificationMiss,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var result entity.CommandResult
	switch it.Kind {
	case entity.IntentNavigate:
		result = d.navigate(it)
	case entity.IntentBookAppointment:
		result = d.bookAppointment(callCtx, user, it)
	case entity.IntentAddMedication:
		result = d.addMedication(callCtx, user, it)
	case entity.IntentCheckAppointments:
		result = d.checkAppointments(callCtx, user, it)
	case entity.IntentQueryBilling:
		result = d.queryBilling(callCtx, user, it)
	default:
		result = entity.CommandResult{
			Reply:     "Sorry, I can't do that yet.",
			Success:   false,
			ErrorKind: entity.ErrKindDispatchFailure,
		}
	}

	if result.Reply == "" {
		result.Reply = "Done."
	}

	return result
}

func (d *dispatcher) failure(ctx context.Context, operation string, err error) entity.CommandResult {
	d.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"operation":  operation,
		"error":      err.Error(),
	}).Error("Dispatch failed")

	return entity.CommandResult{
		Reply:     "Sorry, something went wrong while handling that. Please try again.",
		Success:   false,
		ErrorKind: entity.ErrKindDispatchFailure,
	}
}

func (d *dispatcher) navigate(it entity.Intent) entity.CommandResult {
	if it.Navigate == nil {
		return entity.CommandResult{
			Reply:     "Sorry, I couldn't find that page.",
			Success:   false,
			ErrorKind: entity.ErrKindClassificationMiss,
		}
	}

	return entity.CommandResult{
		Reply:   "Opening " + it.Navigate.DisplayName + ".",
		Success: true,
		Action:  "navigate",
		Target:  it.Navigate.Path,
	}
}

func (d *dispatcher) bookAppointment(ctx context.Context, user entity.UserLoginData, it entity.Intent) entity.CommandResult {
	payload := it.Appointment
	if payload == nil || payload.Date == "" {
		return entity.CommandResult{
			Reply:     "I can book that, but I need a day. Try something like: book me with Dr. Rivas tomorrow at 3.",
			Success:   false,
			ErrorKind: entity.ErrKindClassificationMiss,
		}
	}

	req := appointment.CreateAppointmentRequest{
		Provider: payload.Provider,
		Date:     payload.Date,
		Time:     payload.Time,
		Reason:   payload.Reason,
	}
	if req.Provider == "" {
		req.Provider = "next available provider"
	}

	appt, err := d.appointments.CreateAppointment(ctx, user.ID, req)
	if err != nil {
		return d.failure(ctx, "book_appointment", err)
	}

	reply := fmt.Sprintf("Requested an appointment with %s on %s", appt.Provider, appt.Date)
	if appt.Time != "" {
		reply += " at " + appt.Time
	}
	reply += ". You'll get a confirmation once the office approves it."

	return entity.CommandResult{
		Reply:   reply,
		Success: true,
		Action:  "book_appointment",
		Target:  appt.ID,
		Data:    appt,
	}
}

func (d *dispatcher) addMedication(ctx context.Context, user entity.UserLoginData, it entity.Intent) entity.CommandResult {
	payload := it.Medication
	if payload == nil || payload.Name == "" {
		return entity.CommandResult{
			Reply:     "I didn't catch the medication name. Try something like: add metformin 500 milligrams twice a day.",
			Success:   false,
			ErrorKind: entity.ErrKindClassificationMiss,
		}
	}

	med, err := d.medications.AddMedication(ctx, user.ID, medication.AddMedicationRequest{
		Name:      payload.Name,
		Strength:  payload.Strength,
		Dosage:    payload.Dosage,
		Frequency: payload.Frequency,
	})
	if err != nil {
		return d.failure(ctx, "add_medication", err)
	}

	reply := "Added " + med.Name
	if med.Strength != "" {
		reply += " " + med.Strength
	}
	if med.Frequency != "" {
		reply += ", " + med.Frequency
	}
	reply += " to your medication list."

	return entity.CommandResult{
		Reply:   reply,
		Success: true,
		Action:  "add_medication",
		Target:  med.ID,
		Data:    med,
	}
}

func (d *dispatcher) checkAppointments(ctx context.Context, user entity.UserLoginData, it entity.Intent) entity.CommandResult {
	limit := 0
	if it.Query != nil {
		limit = it.Query.Limit
	}

	appts, err := d.appointments.GetUpcomingAppointments(ctx, user.ID, limit)
	if err != nil {
		return d.failure(ctx, "check_appointments", err)
	}

	if len(appts) == 0 {
		return entity.CommandResult{
			Reply:   "You have no upcoming appointments.",
			Success: true,
			Action:  "check_appointments",
		}
	}

	next := appts[0]
	reply := fmt.Sprintf("You have %d upcoming appointment", len(appts))
	if len(appts) > 1 {
		reply += "s"
	}
	reply += fmt.Sprintf(". The next one is with %s on %s", next.Provider, next.Date)
	if next.Time != "" {
		reply += " at " + next.Time
	}
	reply += "."

	return entity.CommandResult{
		Reply:   reply,
		Success: true,
		Action:  "check_appointments",
		Data:    appts,
	}
}

func (d *dispatcher) queryBilling(ctx context.Context, user entity.UserLoginData, it entity.Intent) entity.CommandResult {
	period := ""
	if it.Billing != nil {
		period = it.Billing.Period
	}

	// admins ask about the practice, everyone else about their own account
	if it.Context == entity.ContextAdmin {
		summary, err := d.billing.GetOutstandingSummary(ctx, period)
		if err != nil {
			return d.failure(ctx, "query_billing", err)
		}

		return entity.CommandResult{
			Reply:   fmt.Sprintf("There are %d unpaid invoices totaling %.2f dollars.", summary.UnpaidInvoices, summary.TotalOutstanding),
			Success: true,
			Action:  "query_billing",
			Data:    summary,
		}
	}

	summary, err := d.billing.GetBalance(ctx, user.ID, period)
	if err != nil {
		return d.failure(ctx, "query_billing", err)
	}

	if summary.InvoiceCount == 0 {
		return entity.CommandResult{
			Reply:   "Your balance is fully paid. Nothing is due.",
			Success: true,
			Action:  "query_billing",
			Data:    summary,
		}
	}

	return entity.CommandResult{
		Reply:   fmt.Sprintf("Your current balance is %.2f dollars across %d invoices.", summary.TotalDue, summary.InvoiceCount),
		Success: true,
		Action:  "query_billing",
		Data:    summary,
	}
}
