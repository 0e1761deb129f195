package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
)

type staticPresence map[uuid.UUID]struct{}

func (p staticPresence) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	p[userID] = struct{}{}
	return nil
}

func (p staticPresence) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	delete(p, userID)
	return nil
}

func (p staticPresence) OnlineAdmins(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	return p, nil
}

func newAppointmentUsecase(t *testing.T, f *negotiationFixture, presence staticPresence) AppointmentUsecase {
	t.Helper()
	log := testLogger()
	clk := clock.Fixed{T: f.now}
	matcher := service.NewClinicMatcher(
		log,
		repository.NewClinicRepository(),
		repository.NewClinicEventRepository(),
		presence,
		f.cfg.SearchRadiusKm,
	)
	recommender := service.NewSlotRecommender(log, repository.NewDoctorRepository(), repository.NewScheduleRepository(), clk)
	return NewAppointmentUsecase(
		f.db,
		log,
		repository.NewAppointmentRepository(),
		repository.NewBasketRepository(),
		repository.NewTreatmentRepository(),
		repository.NewSuggestionRepository(),
		matcher,
		recommender,
		f.uc,
		clk,
	)
}

func attachTreatment(t *testing.T, f *negotiationFixture, clinic entity.Clinic, treatment entity.Treatment) {
	t.Helper()
	if err := f.db.Model(&clinic).Association("Treatments").Append(&treatment); err != nil {
		t.Fatalf("failed to attach treatment: %v", err)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newNegotiationFixture(t, 20)
	uc := newAppointmentUsecase(t, f, staticPresence{})
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	ctx := context.Background()

	_, err := uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{uuid.New()},
		DateTime:     f.now.Add(-time.Hour),
	})
	if !errors.Is(err, ErrAppointmentPast) {
		t.Fatalf("past request should fail, got %v", err)
	}

	_, err = uc.Create(ctx, patient.ID, CreateAppointmentInput{
		DateTime: f.now.Add(24 * time.Hour),
	})
	if !errors.Is(err, ErrNoTreatments) {
		t.Fatalf("empty treatment list should fail, got %v", err)
	}

	_, err = uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{uuid.New()},
		DateTime:     f.now.Add(24 * time.Hour),
	})
	if !errors.Is(err, ErrUnknownTreatment) {
		t.Fatalf("unknown treatment should fail, got %v", err)
	}
}

func TestCreateAppointmentOpensNegotiation(t *testing.T) {
	f := newNegotiationFixture(t, 20)
	uc := newAppointmentUsecase(t, f, staticPresence{})
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")

	treatment := entity.Treatment{Name: "Cleaning", DurationMinutes: 30}
	if err := f.db.Create(&treatment).Error; err != nil {
		t.Fatalf("failed to seed treatment: %v", err)
	}
	attachTreatment(t, f, clinic, treatment)

	ctx := context.Background()
	appointment, err := uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{treatment.ID},
		DateTime:     f.now.Add(5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if appointment.Status != entity.AppointmentOpened {
		t.Fatalf("appointment status = %s, want opened", appointment.Status)
	}
	if appointment.BasketID == nil {
		t.Fatal("appointment should carry a basket")
	}

	var basket entity.Basket
	if err := f.db.Preload("Treatments").First(&basket, "id = ?", *appointment.BasketID).Error; err != nil {
		t.Fatalf("failed to load basket: %v", err)
	}
	if basket.Status != entity.BasketBooked || len(basket.Treatments) != 1 {
		t.Fatalf("basket should be booked with 1 treatment, got %s / %d", basket.Status, len(basket.Treatments))
	}

	if got := f.event(t, appointment.ID, clinic.ID); got.Status != entity.ClinicEventActive {
		t.Fatalf("event status = %s, want active", got.Status)
	}
	if tasks := f.tasks(t, appointment.ID, entity.TaskOpenTimeout); len(tasks) != 1 {
		t.Fatalf("expected 1 open timeout task, got %d", len(tasks))
	}

	// No clinic covers a second treatment: creation fails before any write.
	other := entity.Treatment{Name: "Surgery", DurationMinutes: 120}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed treatment: %v", err)
	}
	_, err = uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{treatment.ID, other.ID},
		DateTime:     f.now.Add(5 * 24 * time.Hour),
	})
	if !apperr.IsEmptyMatch(err) {
		t.Fatalf("uncovered treatment set should yield an empty match, got %v", err)
	}
}

func TestHandleOpenTimeoutExpires(t *testing.T) {
	f := newNegotiationFixture(t, 20)
	uc := newAppointmentUsecase(t, f, staticPresence{})
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")

	treatment := entity.Treatment{Name: "Cleaning", DurationMinutes: 30}
	if err := f.db.Create(&treatment).Error; err != nil {
		t.Fatalf("failed to seed treatment: %v", err)
	}
	attachTreatment(t, f, clinic, treatment)

	ctx := context.Background()
	appointment, err := uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{treatment.ID},
		DateTime:     f.now.Add(5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	task := entity.DelayedTask{Kind: entity.TaskOpenTimeout, AppointmentID: appointment.ID}
	if err := uc.HandleOpenTimeout(ctx, task); err != nil {
		t.Fatalf("HandleOpenTimeout failed: %v", err)
	}
	if got := f.appointmentStatus(t, appointment.ID); got != entity.AppointmentTimeOut {
		t.Fatalf("appointment status = %s, want timeout", got)
	}

	// Already expired: the callback is a silent no-op.
	if err := uc.HandleOpenTimeout(ctx, task); err != nil {
		t.Fatalf("repeated callback should be silent, got %v", err)
	}
}

func TestHandleReservedExpiryCancels(t *testing.T) {
	f := newNegotiationFixture(t, 20)
	uc := newAppointmentUsecase(t, f, staticPresence{})
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")
	doctor := seedDoctor(t, f.db, clinic.ID, "doc@example.com")
	appointment := f.seedAppointment(t, patient.ID, entity.AppointmentOpened, f.now.Add(24*time.Hour))

	ctx := context.Background()
	if err := f.uc.Open(ctx, appointment.ID, []entity.Clinic{clinic}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	event := f.event(t, appointment.ID, clinic.ID)
	if err := f.uc.Accept(ctx, event.ID, clinic.AdminID, doctor.UserID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	task := entity.DelayedTask{Kind: entity.TaskReservedExpiry, AppointmentID: appointment.ID}
	if err := uc.HandleReservedExpiry(ctx, task); err != nil {
		t.Fatalf("HandleReservedExpiry failed: %v", err)
	}
	if got := f.appointmentStatus(t, appointment.ID); got != entity.AppointmentCanceled {
		t.Fatalf("unconfirmed reservation should be canceled, got %s", got)
	}

	rows := f.notices(t, patient.ID, ActionAppointmentCanceled)
	if len(rows) != 1 {
		t.Fatalf("patient should be told about the expiry, got %+v", rows)
	}
}

func TestReopenExcludesRejectingClinics(t *testing.T) {
	f := newNegotiationFixture(t, 20)
	uc := newAppointmentUsecase(t, f, staticPresence{})
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	rejecting := seedClinic(t, f.db, "rejecting")
	willing := seedClinic(t, f.db, "willing")

	treatment := entity.Treatment{Name: "Cleaning", DurationMinutes: 30}
	if err := f.db.Create(&treatment).Error; err != nil {
		t.Fatalf("failed to seed treatment: %v", err)
	}
	attachTreatment(t, f, rejecting, treatment)
	attachTreatment(t, f, willing, treatment)

	ctx := context.Background()
	appointment, err := uc.Create(ctx, patient.ID, CreateAppointmentInput{
		TreatmentIDs: []uuid.UUID{treatment.ID},
		DateTime:     f.now.Add(5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rejectingEvent := f.event(t, appointment.ID, rejecting.ID)
	if err := f.uc.Reject(ctx, rejectingEvent.ID, rejecting.AdminID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if err := f.uc.Timeout(ctx, appointment.ID, nil); err != nil {
		t.Fatalf("Timeout failed: %v", err)
	}

	if err := uc.Reopen(ctx, appointment.ID, patient.ID); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}

	if got := f.appointmentStatus(t, appointment.ID); got != entity.AppointmentOpened {
		t.Fatalf("appointment status = %s, want opened", got)
	}
	if got := f.eventStatus(t, rejectingEvent.ID); got != entity.ClinicEventRejected {
		t.Fatalf("rejecting clinic must stay rejected, got %s", got)
	}
	willingEvent := f.event(t, appointment.ID, willing.ID)
	if willingEvent.Status != entity.ClinicEventActive {
		t.Fatalf("willing clinic should be active again, got %s", willingEvent.Status)
	}
}
