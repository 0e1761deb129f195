package usecase

import (
	"context"
	"errors"
	"time"

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
	ErrAppointmentPast  = errors.New("cannot request an appointment in the past")
	ErrNoTreatments     = errors.New("at least one treatment is required")
	ErrUnknownTreatment = errors.New("one or more treatments do not exist")
)

// CreateAppointmentInput is the patient's booking request.
type CreateAppointmentInput struct {
	TreatmentIDs []uuid.UUID
	DateTime     time.Time
	Latitude     *float64
	Longitude    *float64
	Adjust30Min  bool
}

// AppointmentUsecase composes the matcher, the orchestrator and the timers
// into the patient-facing appointment lifecycle: create a request, reopen it
// after a dead end, and read back history and suggestions. It also hosts the
// delayed-task callbacks that re-enter the orchestrator.
type AppointmentUsecase interface {
	Create(ctx context.Context, patientID uuid.UUID, in CreateAppointmentInput) (*entity.Appointment, error)
	Reopen(ctx context.Context, appointmentID, patientID uuid.UUID) error
	Cancel(ctx context.Context, appointmentID, patientID uuid.UUID, raiseIfNoRefund bool) error
	Get(ctx context.Context, appointmentID, patientID uuid.UUID) (*entity.Appointment, error)
	ListUpcoming(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error)
	ListPassed(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error)
	// ListSuggestions returns every suggestion across the appointment's events,
	// the read model behind the patient's decision screen.
	ListSuggestions(ctx context.Context, appointmentID, patientID uuid.UUID) ([]entity.Suggestion, error)

	// Delayed task callbacks. Each re-validates current state; stale timers
	// are silent no-ops.
	HandleOpenTimeout(ctx context.Context, task entity.DelayedTask) error
	HandleSuggestExpiry(ctx context.Context, task entity.DelayedTask) error
	HandleReservedExpiry(ctx context.Context, task entity.DelayedTask) error
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	basketRepo      repository.BasketRepository
	treatmentRepo   repository.TreatmentRepository
	suggestionRepo  repository.SuggestionRepository
	matcher         *service.ClinicMatcher
	recommender     *service.SlotRecommender
	negotiation     NegotiationUsecase
	clock           clock.Clock
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	basketRepo repository.BasketRepository,
	treatmentRepo repository.TreatmentRepository,
	suggestionRepo repository.SuggestionRepository,
	matcher *service.ClinicMatcher,
	recommender *service.SlotRecommender,
	negotiation NegotiationUsecase,
	clk clock.Clock,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		basketRepo:      basketRepo,
		treatmentRepo:   treatmentRepo,
		suggestionRepo:  suggestionRepo,
		matcher:         matcher,
		recommender:     recommender,
		negotiation:     negotiation,
		clock:           clk,
	}
}

// Create validates the request, matches candidate clinics (failing with an
// EmptyMatch when nothing fits), persists the basket and the opened
// appointment, then fans the negotiation out via the orchestrator.
func (u *appointmentUsecase) Create(ctx context.Context, patientID uuid.UUID, in CreateAppointmentInput) (*entity.Appointment, error) {
	if !in.DateTime.After(u.clock.Now()) {
		return nil, ErrAppointmentPast
	}
	if len(in.TreatmentIDs) == 0 {
		return nil, ErrNoTreatments
	}

	treatments, err := u.treatmentRepo.FindByIDs(u.db.WithContext(ctx), in.TreatmentIDs)
	if err != nil {
		u.log.Warnf("Failed to load treatments: %+v", err)
		return nil, err
	}
	if len(treatments) != len(in.TreatmentIDs) {
		return nil, ErrUnknownTreatment
	}

	clinics, err := u.matcher.Match(ctx, u.db.WithContext(ctx), service.MatchInput{
		TreatmentIDs: in.TreatmentIDs,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		RaiseOnEmpty: true,
	})
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{}
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket := &entity.Basket{
			PatientID:  patientID,
			Status:     entity.BasketBooked,
			Treatments: treatments,
		}
		if err := u.basketRepo.Create(tx, basket); err != nil {
			return err
		}

		*appointment = entity.Appointment{
			PatientID:   patientID,
			BasketID:    &basket.ID,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
			DateTime:    in.DateTime,
			Adjust30Min: in.Adjust30Min,
			Status:      entity.AppointmentOpened,
		}
		return u.appointmentRepo.Create(tx, appointment)
	})
	if err != nil {
		u.log.Errorf("Failed to create appointment for patient %s: %+v", patientID, err)
		return nil, err
	}

	if err := u.negotiation.Open(ctx, appointment.ID, clinics); err != nil {
		return nil, err
	}

	u.log.Infof("Appointment created: id=%s, patient=%s, clinics=%d", appointment.ID, patientID, len(clinics))
	return appointment, nil
}

// Reopen re-runs the matcher over the appointment's history (clinics that
// rejected or whose suggestions were rejected stay excluded) and reactivates
// the negotiation.
func (u *appointmentUsecase) Reopen(ctx context.Context, appointmentID, patientID uuid.UUID) error {
	appointment, err := u.ownedAppointment(ctx, appointmentID, patientID)
	if err != nil {
		return err
	}

	clinics, err := u.matchForAppointment(ctx, appointment, true, false)
	if err != nil {
		return err
	}

	return u.negotiation.Reopen(ctx, appointment.ID, clinics)
}

func (u *appointmentUsecase) Cancel(ctx context.Context, appointmentID, patientID uuid.UUID, raiseIfNoRefund bool) error {
	if _, err := u.ownedAppointment(ctx, appointmentID, patientID); err != nil {
		return err
	}
	return u.negotiation.Cancel(ctx, appointmentID, CancelOptions{
		RaiseIfNoRefund: raiseIfNoRefund,
		NotifyPatient:   false,
	})
}

func (u *appointmentUsecase) Get(ctx context.Context, appointmentID, patientID uuid.UUID) (*entity.Appointment, error) {
	return u.ownedAppointment(ctx, appointmentID, patientID)
}

func (u *appointmentUsecase) ListUpcoming(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	return u.appointmentRepo.FindConfirmedUpcoming(u.db.WithContext(ctx), patientID, u.clock.Now())
}

func (u *appointmentUsecase) ListPassed(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	return u.appointmentRepo.FindConfirmedPassed(u.db.WithContext(ctx), patientID, u.clock.Now())
}

func (u *appointmentUsecase) ListSuggestions(ctx context.Context, appointmentID, patientID uuid.UUID) ([]entity.Suggestion, error) {
	if _, err := u.ownedAppointment(ctx, appointmentID, patientID); err != nil {
		return nil, err
	}
	return u.suggestionRepo.FindByAppointment(u.db.WithContext(ctx), appointmentID)
}

// HandleOpenTimeout expires an appointment nobody answered. The fallback
// payload comes from a non-raising matcher run (online admins only) feeding
// the slot recommender.
func (u *appointmentUsecase) HandleOpenTimeout(ctx context.Context, task entity.DelayedTask) error {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || !appointment.IsOpened() {
		return nil
	}

	var slots []service.SlotSuggestion
	clinics, err := u.matchForAppointment(ctx, appointment, false, true)
	if err != nil {
		// Suggestions are garnish here; the timeout itself must still land.
		u.log.Warnf("Slot matching failed for timed-out appointment %s: %+v", appointment.ID, err)
	} else if len(clinics) > 0 {
		clinicIDs := make([]uuid.UUID, 0, len(clinics))
		for _, c := range clinics {
			clinicIDs = append(clinicIDs, c.ID)
		}
		slots, err = u.recommender.Recommend(u.db.WithContext(ctx), appointment.DateTime, clinicIDs)
		if err != nil {
			u.log.Warnf("Slot recommendation failed for appointment %s: %+v", appointment.ID, err)
		}
	}

	return u.negotiation.Timeout(ctx, appointment.ID, slots)
}

// HandleSuggestExpiry cancels an appointment whose patient never answered the
// clinic's suggestions.
func (u *appointmentUsecase) HandleSuggestExpiry(ctx context.Context, task entity.DelayedTask) error {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || !appointment.IsWaitingForUser() {
		return nil
	}
	return u.negotiation.Cancel(ctx, appointment.ID, CancelOptions{NotifyPatient: true})
}

// HandleReservedExpiry cancels a reservation the patient never confirmed.
func (u *appointmentUsecase) HandleReservedExpiry(ctx context.Context, task entity.DelayedTask) error {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || !appointment.IsReserved() {
		return nil
	}
	return u.negotiation.Cancel(ctx, appointment.ID, CancelOptions{NotifyPatient: true})
}

func (u *appointmentUsecase) ownedAppointment(ctx context.Context, appointmentID, patientID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil || appointment.PatientID != patientID {
		return nil, &apperr.NotFoundError{Resource: "appointment"}
	}
	return appointment, nil
}

// matchForAppointment re-runs the pipeline with the appointment's own
// treatments, location and exclusion history.
func (u *appointmentUsecase) matchForAppointment(ctx context.Context, appointment *entity.Appointment, raiseOnEmpty, onlineOnly bool) ([]entity.Clinic, error) {
	var treatmentIDs []uuid.UUID
	if appointment.Basket != nil {
		for _, t := range appointment.Basket.Treatments {
			treatmentIDs = append(treatmentIDs, t.ID)
		}
	}

	return u.matcher.Match(ctx, u.db.WithContext(ctx), service.MatchInput{
		TreatmentIDs:  treatmentIDs,
		Latitude:      appointment.Latitude,
		Longitude:     appointment.Longitude,
		AppointmentID: &appointment.ID,
		RaiseOnEmpty:  raiseOnEmpty,
		OnlineOnly:    onlineOnly,
	})
}
