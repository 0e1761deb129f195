package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-clinic-negotiation/config"
	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotEnoughSuggestions = errors.New("at least 3 suggestions are required")
	ErrDuplicateSuggestions = errors.New("suggestions must be pairwise distinct")
)

// Notification actions
const (
	ActionAppointmentOpened    = "appointment_opened"
	ActionAppointmentReopened  = "appointment_reopened"
	ActionEventInactivated     = "event_inactivated"
	ActionAppointmentAccepted  = "appointment_accepted"
	ActionSuggestionsAdded     = "suggestions_added"
	ActionSuggestionAccepted   = "suggestion_accepted"
	ActionSuggestionsRejected  = "suggestions_rejected"
	ActionAppointmentConfirmed = "appointment_confirmed"
	ActionAppointmentCanceled  = "appointment_canceled"
	ActionAppointmentTimeout   = "appointment_timeout"
)

// Fallback block length when the appointment carries no priced basket.
const defaultAppointmentMinutes = 60

// How long after the appointment starts the rating prompt goes out.
const ratingFollowUpDelay = time.Hour

// SuggestionInput is one proposed alternative in a clinic's suggest action.
type SuggestionInput struct {
	DoctorID    uuid.UUID
	DateTime    time.Time
	Adjust30Min bool
}

// CancelOptions tunes the cancel operation: whether a missing refund aborts
// it and whether the patient gets a notice.
type CancelOptions struct {
	RaiseIfNoRefund bool
	NotifyPatient   bool
}

// NegotiationUsecase is the orchestrator over the appointment and clinic-event
// state machines. Every operation runs as one transaction: the guard checks,
// the conditional status writes, the schedule derivation and the pending
// notification rows commit together or not at all. Delivery of the computed
// notices happens after commit and is best-effort.
type NegotiationUsecase interface {
	Open(ctx context.Context, appointmentID uuid.UUID, clinics []entity.Clinic) error
	Accept(ctx context.Context, eventID, adminID, doctorID uuid.UUID) error
	Suggest(ctx context.Context, eventID, adminID uuid.UUID, proposals []SuggestionInput) error
	Reject(ctx context.Context, eventID, adminID uuid.UUID) error
	RejectSuggestions(ctx context.Context, eventID, patientID uuid.UUID) error
	AcceptSuggestion(ctx context.Context, eventID, suggestionID, patientID uuid.UUID) error
	Confirm(ctx context.Context, appointmentID, patientID uuid.UUID) error
	Cancel(ctx context.Context, appointmentID uuid.UUID, opts CancelOptions) error
	// Timeout expires an appointment nobody took. Firing against an
	// appointment no longer opened is a silent no-op.
	Timeout(ctx context.Context, appointmentID uuid.UUID, slots []service.SlotSuggestion) error
	Reopen(ctx context.Context, appointmentID uuid.UUID, clinics []entity.Clinic) error
	Refund(ctx context.Context, appointmentID uuid.UUID, raiseIfNoRefund bool) error
}

type negotiationUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	appointmentRepo  repository.AppointmentRepository
	eventRepo        repository.ClinicEventRepository
	suggestionRepo   repository.SuggestionRepository
	scheduleRepo     repository.ScheduleRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	window           *service.SupportWindow
	notifier         service.Notifier
	payment          service.PaymentService
	scheduler        service.DelayedTaskScheduler
	clock            clock.Clock
	suggestExpiry    time.Duration
	reservedExpiry   time.Duration
}

func NewNegotiationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	eventRepo repository.ClinicEventRepository,
	suggestionRepo repository.SuggestionRepository,
	scheduleRepo repository.ScheduleRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	window *service.SupportWindow,
	notifier service.Notifier,
	payment service.PaymentService,
	scheduler service.DelayedTaskScheduler,
	clk clock.Clock,
	cfg config.NegotiationConfig,
) NegotiationUsecase {
	return &negotiationUsecase{
		db:               db,
		log:              log,
		appointmentRepo:  appointmentRepo,
		eventRepo:        eventRepo,
		suggestionRepo:   suggestionRepo,
		scheduleRepo:     scheduleRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		window:           window,
		notifier:         notifier,
		payment:          payment,
		scheduler:        scheduler,
		clock:            clk,
		suggestExpiry:    cfg.SuggestExpiry,
		reservedExpiry:   cfg.ReservedExpiry,
	}
}

// noticeIntent is one computed notification: rows already created pending in
// the transaction, delivered (and flipped to sent) after commit.
type noticeIntent struct {
	userIDs []uuid.UUID
	rowIDs  []uuid.UUID
	action  string
	payload any
	grouped bool
	push    string
}

func (u *negotiationUsecase) Open(ctx context.Context, appointmentID uuid.UUID, clinics []entity.Clinic) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		created, err := u.createMissingEvents(tx, appointmentID, clinics)
		if err != nil {
			return err
		}

		adminIDs := make([]uuid.UUID, 0, len(clinics))
		for _, c := range clinics {
			adminIDs = append(adminIDs, c.AdminID)
		}

		intents, err = u.queueAdminNotices(tx, nil, appointmentID, adminIDs, ActionAppointmentOpened, appointmentPayload(appointment))
		if err != nil {
			return err
		}

		if _, err := u.scheduler.Schedule(tx, entity.TaskOpenTimeout, appointmentID,
			u.clock.Now().Add(u.window.OpenCountdown()), nil); err != nil {
			return err
		}

		u.log.Infof("Appointment %s opened to %d clinics (%d new events)", appointmentID, len(clinics), created)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Accept(ctx context.Context, eventID, adminID, doctorID uuid.UUID) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, appointment, err := u.loadEventForAdmin(tx, eventID, adminID)
		if err != nil {
			return err
		}
		if !appointment.IsOpened() || !event.IsActive() {
			return stateConflict("accept", appointment, event)
		}

		// Sibling admins to notify, captured before their rows change.
		siblings, err := u.eventRepo.FindByAppointmentInStatus(tx, appointment.ID, entity.PreWinStatuses())
		if err != nil {
			return err
		}

		rows, err := u.appointmentRepo.Reserve(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentOpened},
			event.ClinicID, doctorID, appointment.DateTime, appointment.Adjust30Min)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("accept", appointment, event)
		}

		rows, err = u.eventRepo.UpdateStatusIf(tx, event.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive}, entity.ClinicEventAccepted)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("accept", appointment, event)
		}

		if _, err := u.eventRepo.DeactivateSiblings(tx, appointment.ID, &event.ID, entity.PreWinStatuses()); err != nil {
			return err
		}

		if err := u.upsertSchedule(tx, appointment, doctorID, appointment.DateTime); err != nil {
			return err
		}

		intents, err = u.queueAdminNotices(tx, nil, appointment.ID,
			siblingAdminIDs(siblings, event.ID), ActionEventInactivated, appointmentPayload(appointment))
		if err != nil {
			return err
		}
		intents, err = u.queuePatientNotice(tx, intents, appointment, ActionAppointmentAccepted, map[string]any{
			"appointment_id": appointment.ID,
			"clinic_id":      event.ClinicID,
			"clinic_name":    event.Clinic.Name,
		})
		if err != nil {
			return err
		}

		if _, err := u.notificationRepo.CancelPendingForSettledAdmins(tx, appointment.ID, appointment.PatientID, nil); err != nil {
			return err
		}

		if _, err := u.scheduler.Schedule(tx, entity.TaskReservedExpiry, appointment.ID,
			u.clock.Now().Add(u.reservedExpiry), nil); err != nil {
			return err
		}

		u.log.Infof("Appointment %s accepted by clinic %s", appointment.ID, event.ClinicID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Suggest(ctx context.Context, eventID, adminID uuid.UUID, proposals []SuggestionInput) error {
	if err := validateProposals(proposals); err != nil {
		return err
	}

	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, appointment, err := u.loadEventForAdmin(tx, eventID, adminID)
		if err != nil {
			return err
		}
		if !appointment.IsOpened() || !event.IsActive() {
			return stateConflict("suggest", appointment, event)
		}

		siblings, err := u.eventRepo.FindByAppointmentInStatus(tx, appointment.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive})
		if err != nil {
			return err
		}

		rows, err := u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentOpened}, entity.AppointmentWaitingForUserDecide)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("suggest", appointment, event)
		}

		rows, err = u.eventRepo.UpdateStatusIf(tx, event.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive}, entity.ClinicEventSuggested)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("suggest", appointment, event)
		}

		suggestions := make([]entity.Suggestion, 0, len(proposals))
		for _, p := range proposals {
			suggestions = append(suggestions, entity.Suggestion{
				ClinicEventID: event.ID,
				DoctorID:      p.DoctorID,
				DateTime:      p.DateTime,
				Adjust30Min:   p.Adjust30Min,
			})
		}
		if err := u.suggestionRepo.BulkCreate(tx, suggestions); err != nil {
			return err
		}

		if _, err := u.eventRepo.DeactivateSiblings(tx, appointment.ID, &event.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive}); err != nil {
			return err
		}

		intents, err = u.queueAdminNotices(tx, nil, appointment.ID,
			siblingAdminIDs(siblings, event.ID), ActionEventInactivated, appointmentPayload(appointment))
		if err != nil {
			return err
		}
		intents, err = u.queuePatientNotice(tx, intents, appointment, ActionSuggestionsAdded, map[string]any{
			"appointment_id": appointment.ID,
			"clinic_id":      event.ClinicID,
			"clinic_name":    event.Clinic.Name,
			"suggestions":    suggestionPayload(suggestions),
		})
		if err != nil {
			return err
		}

		if _, err := u.notificationRepo.CancelPendingForSettledAdmins(tx, appointment.ID, appointment.PatientID, nil); err != nil {
			return err
		}

		if _, err := u.scheduler.Schedule(tx, entity.TaskSuggestExpiry, appointment.ID,
			u.clock.Now().Add(u.suggestExpiry), nil); err != nil {
			return err
		}

		u.log.Infof("Clinic %s suggested %d alternatives for appointment %s", event.ClinicID, len(suggestions), appointment.ID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Reject(ctx context.Context, eventID, adminID uuid.UUID) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, appointment, err := u.loadEventForAdmin(tx, eventID, adminID)
		if err != nil {
			return err
		}
		if !appointment.IsOpened() || !event.IsActive() {
			return stateConflict("reject", appointment, event)
		}

		rows, err := u.eventRepo.UpdateStatusIf(tx, event.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive}, entity.ClinicEventRejected)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("reject", appointment, event)
		}

		if _, err := u.notificationRepo.CancelPendingForSettledAdmins(tx, appointment.ID, appointment.PatientID, &adminID); err != nil {
			return err
		}

		u.log.Infof("Clinic %s rejected appointment %s", event.ClinicID, appointment.ID)
		return nil
	})
}

func (u *negotiationUsecase) RejectSuggestions(ctx context.Context, eventID, patientID uuid.UUID) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, appointment, err := u.loadEventForPatient(tx, eventID, patientID)
		if err != nil {
			return err
		}
		if !appointment.IsWaitingForUser() || !event.IsSuggested() {
			return stateConflict("reject suggestions of", appointment, event)
		}

		if err := u.suggestionRepo.MarkAllNotChosen(tx, event.ID); err != nil {
			return err
		}

		rows, err := u.eventRepo.UpdateStatusIf(tx, event.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventSuggested}, entity.ClinicEventRejectedSuggestions)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("reject suggestions of", appointment, event)
		}

		rows, err = u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentWaitingForUserDecide}, entity.AppointmentUserRejectSuggestions)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("reject suggestions of", appointment, event)
		}

		intents, err = u.queueUserNotice(tx, nil, appointment.ID, event.Clinic.AdminID, ActionSuggestionsRejected, appointmentPayload(appointment))
		if err != nil {
			return err
		}

		u.log.Infof("Patient rejected suggestions of clinic %s for appointment %s", event.ClinicID, appointment.ID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) AcceptSuggestion(ctx context.Context, eventID, suggestionID, patientID uuid.UUID) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, appointment, err := u.loadEventForPatient(tx, eventID, patientID)
		if err != nil {
			return err
		}
		if !appointment.IsWaitingForUser() || !event.IsSuggested() {
			return stateConflict("accept suggestion of", appointment, event)
		}

		suggestion, err := u.suggestionRepo.FindByID(tx, suggestionID)
		if err != nil {
			return err
		}
		if suggestion == nil || suggestion.ClinicEventID != event.ID {
			return &apperr.NotFoundError{Resource: "suggestion"}
		}

		if err := u.suggestionRepo.MarkAllNotChosen(tx, event.ID); err != nil {
			return err
		}
		if err := u.suggestionRepo.MarkChosen(tx, suggestion.ID); err != nil {
			return err
		}

		rows, err := u.appointmentRepo.Reserve(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentWaitingForUserDecide},
			event.ClinicID, suggestion.DoctorID, suggestion.DateTime, suggestion.Adjust30Min)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("accept suggestion of", appointment, event)
		}

		if err := u.upsertSchedule(tx, appointment, suggestion.DoctorID, suggestion.DateTime); err != nil {
			return err
		}

		intents, err = u.queueUserNotice(tx, nil, appointment.ID, event.Clinic.AdminID, ActionSuggestionAccepted, map[string]any{
			"appointment_id": appointment.ID,
			"suggestion_id":  suggestion.ID,
			"date_time":      suggestion.DateTime,
		})
		if err != nil {
			return err
		}

		if _, err := u.scheduler.Schedule(tx, entity.TaskReservedExpiry, appointment.ID,
			u.clock.Now().Add(u.reservedExpiry), nil); err != nil {
			return err
		}

		u.log.Infof("Patient accepted suggestion %s, appointment %s reserved with clinic %s",
			suggestion.ID, appointment.ID, event.ClinicID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Confirm(ctx context.Context, appointmentID, patientID uuid.UUID) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.loadAppointmentForPatient(tx, appointmentID, patientID)
		if err != nil {
			return err
		}
		if !appointment.IsReserved() {
			return stateConflict("confirm", appointment, nil)
		}

		rows, err := u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentReserved}, entity.AppointmentConfirmed)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("confirm", appointment, nil)
		}

		if appointment.Basket != nil {
			if err := u.payment.SetPaid(tx, appointment.Basket); err != nil {
				return err
			}
		}

		if appointment.ClinicID != nil {
			clinicEvents, err := u.eventRepo.FindByAppointmentAndClinics(tx, appointment.ID, []uuid.UUID{*appointment.ClinicID})
			if err != nil {
				return err
			}
			if len(clinicEvents) == 1 {
				event, err := u.eventRepo.FindByID(tx, clinicEvents[0].ID)
				if err != nil {
					return err
				}
				intents, err = u.queueUserNotice(tx, nil, appointment.ID, event.Clinic.AdminID, ActionAppointmentConfirmed, appointmentPayload(appointment))
				if err != nil {
					return err
				}
			}
		}

		intents = append(intents, noticeIntent{
			userIDs: []uuid.UUID{appointment.PatientID},
			push:    "Your appointment on " + appointment.DateTime.Format("2006-01-02 15:04") + " is confirmed",
		})

		// Ask for a rating once the visit is over.
		if _, err := u.scheduler.Schedule(tx, entity.TaskRatingFollowUp, appointment.ID,
			appointment.DateTime.Add(ratingFollowUpDelay), nil); err != nil {
			return err
		}

		u.log.Infof("Appointment %s confirmed", appointment.ID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Cancel(ctx context.Context, appointmentID uuid.UUID, opts CancelOptions) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if appointment.IsTerminal() {
			return stateConflict("cancel", appointment, nil)
		}

		if err := u.payment.CheckRefund(appointment.DateTime, opts.RaiseIfNoRefund); err != nil {
			if errors.Is(err, apperr.ErrNoRefundWindow) {
				return err
			}
			// Refund flow not implemented yet; cancellation proceeds without one.
			u.log.Debugf("No refund for appointment %s: %v", appointment.ID, err)
		}

		preWin, err := u.eventRepo.FindByAppointmentInStatus(tx, appointment.ID, entity.PreWinStatuses())
		if err != nil {
			return err
		}

		rows, err := u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{
				entity.AppointmentOpened,
				entity.AppointmentWaitingForUserDecide,
				entity.AppointmentUserRejectSuggestions,
				entity.AppointmentReserved,
				entity.AppointmentTimeOut,
			}, entity.AppointmentCanceled)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("cancel", appointment, nil)
		}

		if appointment.BasketID != nil {
			if err := u.payment.SetCanceled(tx, *appointment.BasketID); err != nil {
				return err
			}
		}

		if _, err := u.eventRepo.DeactivateSiblings(tx, appointment.ID, nil, entity.PreWinStatuses()); err != nil {
			return err
		}

		intents, err = u.queueAdminNotices(tx, nil, appointment.ID,
			siblingAdminIDs(preWin, uuid.Nil), ActionEventInactivated, appointmentPayload(appointment))
		if err != nil {
			return err
		}
		if opts.NotifyPatient {
			intents, err = u.queuePatientNotice(tx, intents, appointment, ActionAppointmentCanceled, appointmentPayload(appointment))
			if err != nil {
				return err
			}
		}

		if _, err := u.notificationRepo.CancelPendingForSettledAdmins(tx, appointment.ID, appointment.PatientID, nil); err != nil {
			return err
		}

		if err := u.scheduleRepo.DeleteByAppointment(tx, appointment.ID); err != nil {
			return err
		}

		u.log.Infof("Appointment %s canceled", appointment.ID)
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Timeout(ctx context.Context, appointmentID uuid.UUID, slots []service.SlotSuggestion) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if !appointment.IsOpened() {
			u.log.Debugf("Timeout fired for appointment %s in status %s, skipping", appointment.ID, appointment.Status)
			return nil
		}

		active, err := u.eventRepo.FindByAppointmentInStatus(tx, appointment.ID,
			[]entity.ClinicEventStatus{entity.ClinicEventActive})
		if err != nil {
			return err
		}

		rows, err := u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentOpened}, entity.AppointmentTimeOut)
		if err != nil {
			return err
		}
		if rows == 0 {
			// a human action got there first
			return nil
		}

		if _, err := u.eventRepo.DeactivateSiblings(tx, appointment.ID, nil,
			[]entity.ClinicEventStatus{entity.ClinicEventActive}); err != nil {
			return err
		}

		intents, err = u.queueAdminNotices(tx, nil, appointment.ID,
			siblingAdminIDs(active, uuid.Nil), ActionEventInactivated, appointmentPayload(appointment))
		if err != nil {
			return err
		}
		intents, err = u.queuePatientNotice(tx, intents, appointment, ActionAppointmentTimeout, map[string]any{
			"appointment_id": appointment.ID,
			"slots":          slots,
		})
		if err != nil {
			return err
		}

		if _, err := u.notificationRepo.CancelPendingForSettledAdmins(tx, appointment.ID, appointment.PatientID, nil); err != nil {
			return err
		}

		u.log.Infof("Appointment %s timed out with %d fallback slots", appointment.ID, len(slots))
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Reopen(ctx context.Context, appointmentID uuid.UUID, clinics []entity.Clinic) error {
	var intents []noticeIntent

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.loadAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if appointment.Status != entity.AppointmentTimeOut && appointment.Status != entity.AppointmentUserRejectSuggestions {
			return stateConflict("reopen", appointment, nil)
		}

		rows, err := u.appointmentRepo.UpdateStatusIf(tx, appointment.ID,
			[]entity.AppointmentStatus{entity.AppointmentTimeOut, entity.AppointmentUserRejectSuggestions},
			entity.AppointmentOpened)
		if err != nil {
			return err
		}
		if rows == 0 {
			return stateConflict("reopen", appointment, nil)
		}

		clinicIDs := make([]uuid.UUID, 0, len(clinics))
		for _, c := range clinics {
			clinicIDs = append(clinicIDs, c.ID)
		}
		existing, err := u.eventRepo.FindByAppointmentAndClinics(tx, appointment.ID, clinicIDs)
		if err != nil {
			return err
		}
		existingIDs := make([]uuid.UUID, 0, len(existing))
		for _, e := range existing {
			existingIDs = append(existingIDs, e.ID)
		}
		if err := u.eventRepo.ActivateByIDs(tx, existingIDs); err != nil {
			return err
		}

		if _, err := u.createMissingEvents(tx, appointment.ID, clinics); err != nil {
			return err
		}

		adminIDs := make([]uuid.UUID, 0, len(clinics))
		for _, c := range clinics {
			adminIDs = append(adminIDs, c.AdminID)
		}
		intents, err = u.queueAdminNotices(tx, nil, appointment.ID, adminIDs, ActionAppointmentReopened, appointmentPayload(appointment))
		if err != nil {
			return err
		}

		if _, err := u.scheduler.Schedule(tx, entity.TaskOpenTimeout, appointment.ID,
			u.clock.Now().Add(u.window.OpenCountdown()), nil); err != nil {
			return err
		}

		u.log.Infof("Appointment %s reopened to %d clinics", appointment.ID, len(clinics))
		return nil
	})
	if err != nil {
		return err
	}

	u.dispatch(ctx, intents)
	return nil
}

func (u *negotiationUsecase) Refund(ctx context.Context, appointmentID uuid.UUID, raiseIfNoRefund bool) error {
	appointment, err := u.loadAppointment(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		return err
	}
	return u.payment.CheckRefund(appointment.DateTime, raiseIfNoRefund)
}

// --- loading and guard helpers ---

func (u *negotiationUsecase) loadAppointment(tx *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, &apperr.NotFoundError{Resource: "appointment"}
	}
	return appointment, nil
}

func (u *negotiationUsecase) loadAppointmentForPatient(tx *gorm.DB, id, patientID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.loadAppointment(tx, id)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != patientID {
		return nil, &apperr.NotFoundError{Resource: "appointment"}
	}
	return appointment, nil
}

func (u *negotiationUsecase) loadEventForAdmin(tx *gorm.DB, eventID, adminID uuid.UUID) (*entity.ClinicEvent, *entity.Appointment, error) {
	event, err := u.eventRepo.FindByID(tx, eventID)
	if err != nil {
		u.log.Warnf("Failed to find event %s: %+v", eventID, err)
		return nil, nil, err
	}
	if event == nil || event.Clinic.AdminID != adminID {
		return nil, nil, &apperr.NotFoundError{Resource: "event"}
	}
	appointment, err := u.loadAppointment(tx, event.AppointmentID)
	if err != nil {
		return nil, nil, err
	}
	return event, appointment, nil
}

func (u *negotiationUsecase) loadEventForPatient(tx *gorm.DB, eventID, patientID uuid.UUID) (*entity.ClinicEvent, *entity.Appointment, error) {
	event, err := u.eventRepo.FindByID(tx, eventID)
	if err != nil {
		u.log.Warnf("Failed to find event %s: %+v", eventID, err)
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, &apperr.NotFoundError{Resource: "event"}
	}
	appointment, err := u.loadAppointmentForPatient(tx, event.AppointmentID, patientID)
	if err != nil {
		return nil, nil, err
	}
	return event, appointment, nil
}

func stateConflict(op string, appointment *entity.Appointment, event *entity.ClinicEvent) error {
	conflict := &apperr.StateConflictError{Op: op, AppointmentStatus: string(appointment.Status)}
	if event != nil {
		conflict.EventStatus = string(event.Status)
	}
	return conflict
}

// createMissingEvents bulk-creates Active events for clinics not yet paired
// with the appointment. A (appointment, clinic) pair is never recreated.
func (u *negotiationUsecase) createMissingEvents(tx *gorm.DB, appointmentID uuid.UUID, clinics []entity.Clinic) (int, error) {
	clinicIDs := make([]uuid.UUID, 0, len(clinics))
	for _, c := range clinics {
		clinicIDs = append(clinicIDs, c.ID)
	}

	existing, err := u.eventRepo.FindByAppointmentAndClinics(tx, appointmentID, clinicIDs)
	if err != nil {
		return 0, err
	}
	paired := make(map[uuid.UUID]struct{}, len(existing))
	for _, e := range existing {
		paired[e.ClinicID] = struct{}{}
	}

	var events []entity.ClinicEvent
	for _, c := range clinics {
		if _, ok := paired[c.ID]; ok {
			continue
		}
		events = append(events, entity.ClinicEvent{
			AppointmentID: appointmentID,
			ClinicID:      c.ID,
			Status:        entity.ClinicEventActive,
		})
	}
	if err := u.eventRepo.BulkCreate(tx, events); err != nil {
		return 0, err
	}
	return len(events), nil
}

func (u *negotiationUsecase) upsertSchedule(tx *gorm.DB, appointment *entity.Appointment, doctorID uuid.UUID, startsAt time.Time) error {
	minutes := defaultAppointmentMinutes
	if appointment.Basket != nil && len(appointment.Basket.Treatments) > 0 {
		minutes = appointment.Basket.TotalDurationMinutes()
	}
	return u.scheduleRepo.Upsert(tx, &entity.AppointmentSchedule{
		AppointmentID: appointment.ID,
		DoctorID:      doctorID,
		StartsAt:      startsAt,
		EndsAt:        startsAt.Add(time.Duration(minutes) * time.Minute),
	})
}

// --- notification intents ---

// queueAdminNotices addresses clinic admins, switching to one grouped notice
// for the support desk while its window is active.
func (u *negotiationUsecase) queueAdminNotices(tx *gorm.DB, intents []noticeIntent, appointmentID uuid.UUID, adminIDs []uuid.UUID, action string, payload any) ([]noticeIntent, error) {
	if len(adminIDs) == 0 {
		return intents, nil
	}

	if u.window.Active() {
		supportAdmins, err := u.userRepo.FindSupportAdmins(tx)
		if err != nil {
			return nil, err
		}
		supportIDs := make([]uuid.UUID, 0, len(supportAdmins))
		for _, a := range supportAdmins {
			supportIDs = append(supportIDs, a.ID)
		}
		return u.queueNotice(tx, intents, appointmentID, supportIDs, action, payload, true)
	}

	return u.queueNotice(tx, intents, appointmentID, adminIDs, action, payload, false)
}

func (u *negotiationUsecase) queuePatientNotice(tx *gorm.DB, intents []noticeIntent, appointment *entity.Appointment, action string, payload any) ([]noticeIntent, error) {
	return u.queueUserNotice(tx, intents, appointment.ID, appointment.PatientID, action, payload)
}

func (u *negotiationUsecase) queueUserNotice(tx *gorm.DB, intents []noticeIntent, appointmentID, userID uuid.UUID, action string, payload any) ([]noticeIntent, error) {
	return u.queueNotice(tx, intents, appointmentID, []uuid.UUID{userID}, action, payload, false)
}

func (u *negotiationUsecase) queueNotice(tx *gorm.DB, intents []noticeIntent, appointmentID uuid.UUID, userIDs []uuid.UUID, action string, payload any, grouped bool) ([]noticeIntent, error) {
	if len(userIDs) == 0 {
		return intents, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.UserNotification, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, entity.UserNotification{
			UserID:        userID,
			AppointmentID: appointmentID,
			Action:        action,
			Payload:       string(body),
			Status:        entity.NotificationPending,
		})
	}
	if err := u.notificationRepo.BulkCreate(tx, rows); err != nil {
		return nil, err
	}

	rowIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		rowIDs = append(rowIDs, row.ID)
	}

	return append(intents, noticeIntent{
		userIDs: userIDs,
		rowIDs:  rowIDs,
		action:  action,
		payload: payload,
		grouped: grouped,
	}), nil
}

// dispatch delivers the committed notices. Failures are logged and swallowed;
// the state change already committed and stands.
func (u *negotiationUsecase) dispatch(ctx context.Context, intents []noticeIntent) {
	for _, intent := range intents {
		if intent.push != "" {
			for _, userID := range intent.userIDs {
				if err := u.notifier.Push(ctx, userID, intent.push); err != nil {
					u.log.Warnf("Failed to push to %s: %+v", userID, err)
				}
			}
			continue
		}

		var err error
		if intent.grouped {
			err = u.notifier.SendGroup(ctx, intent.userIDs, intent.action, intent.payload)
		} else {
			for _, userID := range intent.userIDs {
				if sendErr := u.notifier.Send(ctx, userID, intent.action, intent.payload); sendErr != nil {
					err = sendErr
				}
			}
		}
		if err != nil {
			u.log.Warnf("Failed to deliver %s notice: %+v", intent.action, err)
			continue
		}

		if err := u.notificationRepo.MarkSent(u.db, intent.rowIDs); err != nil {
			u.log.Warnf("Failed to mark %s notices sent: %+v", intent.action, err)
		}
	}
}

// --- payload helpers ---

func appointmentPayload(a *entity.Appointment) map[string]any {
	return map[string]any{
		"appointment_id": a.ID,
		"date_time":      a.DateTime,
		"status":         a.Status,
	}
}

func suggestionPayload(suggestions []entity.Suggestion) []map[string]any {
	out := make([]map[string]any, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, map[string]any{
			"suggestion_id": s.ID,
			"doctor_id":     s.DoctorID,
			"date_time":     s.DateTime,
			"adjust_30_min": s.Adjust30Min,
		})
	}
	return out
}

func siblingAdminIDs(events []entity.ClinicEvent, exclude uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		if e.ID == exclude {
			continue
		}
		ids = append(ids, e.Clinic.AdminID)
	}
	return ids
}

func validateProposals(proposals []SuggestionInput) error {
	if len(proposals) < 3 {
		return ErrNotEnoughSuggestions
	}
	seen := make(map[string]struct{}, len(proposals))
	for _, p := range proposals {
		s := entity.Suggestion{DoctorID: p.DoctorID, DateTime: p.DateTime, Adjust30Min: p.Adjust30Min}
		key := s.Key()
		if _, ok := seen[key]; ok {
			return ErrDuplicateSuggestions
		}
		seen[key] = struct{}{}
	}
	return nil
}
