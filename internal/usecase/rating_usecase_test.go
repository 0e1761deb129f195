package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ratingFixture struct {
	db       *gorm.DB
	uc       RatingUsecase
	notifier *fakeNotifier
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	uc := NewRatingUsecase(
		db,
		testLogger(),
		repository.NewRatingRepository(),
		repository.NewAppointmentRepository(),
		repository.NewClinicRepository(),
		notifier,
	)
	return &ratingFixture{db: db, uc: uc, notifier: notifier}
}

func (f *ratingFixture) seedConfirmedAppointment(t *testing.T, patientID, clinicID uuid.UUID) entity.Appointment {
	t.Helper()
	appointment := entity.Appointment{
		PatientID: patientID,
		ClinicID:  &clinicID,
		DateTime:  time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
		Status:    entity.AppointmentConfirmed,
	}
	if err := f.db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return appointment
}

func (f *ratingFixture) clinicAggregate(t *testing.T, clinicID uuid.UUID) (sum, cnt int) {
	t.Helper()
	var clinic entity.Clinic
	if err := f.db.First(&clinic, "id = ?", clinicID).Error; err != nil {
		t.Fatalf("failed to reload clinic: %v", err)
	}
	return clinic.SumRating, clinic.CntRating
}

func TestRatingLifecycleKeepsAggregate(t *testing.T) {
	f := newRatingFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")
	appointment := f.seedConfirmedAppointment(t, patient.ID, clinic.ID)
	ctx := context.Background()

	rating, err := f.uc.Create(ctx, patient.ID, appointment.ID, 4, "good visit")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rating.Rate != 4 {
		t.Fatalf("rating rate = %d, want 4", rating.Rate)
	}
	if sum, cnt := f.clinicAggregate(t, clinic.ID); sum != 4 || cnt != 1 {
		t.Fatalf("aggregate after create = %d/%d, want 4/1", sum, cnt)
	}

	if _, err := f.uc.Create(ctx, patient.ID, appointment.ID, 5, "again"); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("second create should fail with ErrAlreadyRated, got %v", err)
	}

	// Update applies the delta only.
	if _, err := f.uc.Update(ctx, patient.ID, appointment.ID, 2, "changed my mind"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if sum, cnt := f.clinicAggregate(t, clinic.ID); sum != 2 || cnt != 1 {
		t.Fatalf("aggregate after update = %d/%d, want 2/1", sum, cnt)
	}

	if err := f.uc.Delete(ctx, patient.ID, appointment.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if sum, cnt := f.clinicAggregate(t, clinic.ID); sum != 0 || cnt != 0 {
		t.Fatalf("aggregate after delete = %d/%d, want 0/0", sum, cnt)
	}

	if err := f.uc.Delete(ctx, patient.ID, appointment.ID); !errors.Is(err, ErrAppointmentNotRated) {
		t.Fatalf("deleting a missing rating should fail, got %v", err)
	}
}

func TestRatingGuards(t *testing.T) {
	f := newRatingFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")
	appointment := f.seedConfirmedAppointment(t, patient.ID, clinic.ID)
	ctx := context.Background()

	for _, rate := range []int{0, 6} {
		if _, err := f.uc.Create(ctx, patient.ID, appointment.ID, rate, ""); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("rate %d should be invalid, got %v", rate, err)
		}
	}

	stranger := seedUser(t, f.db, entity.RoleIDPatient, "stranger@example.com")
	if _, err := f.uc.Create(ctx, stranger.ID, appointment.ID, 4, ""); !apperr.IsNotFound(err) {
		t.Fatalf("rating another patient's appointment should be not found, got %v", err)
	}

	reserved := entity.Appointment{
		PatientID: patient.ID,
		ClinicID:  &clinic.ID,
		DateTime:  time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC),
		Status:    entity.AppointmentReserved,
	}
	if err := f.db.Create(&reserved).Error; err != nil {
		t.Fatalf("failed to seed reserved appointment: %v", err)
	}
	if _, err := f.uc.Create(ctx, patient.ID, reserved.ID, 4, ""); !errors.Is(err, ErrNotRatable) {
		t.Fatalf("rating a reserved appointment should fail, got %v", err)
	}
}

func TestRatingFollowUpNudgesUnrated(t *testing.T) {
	f := newRatingFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")
	appointment := f.seedConfirmedAppointment(t, patient.ID, clinic.ID)
	ctx := context.Background()

	task := entity.DelayedTask{Kind: entity.TaskRatingFollowUp, AppointmentID: appointment.ID}
	if err := f.uc.HandleFollowUp(ctx, task); err != nil {
		t.Fatalf("HandleFollowUp failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 || f.notifier.pushes[0].userID != patient.ID {
		t.Fatalf("unrated visit should trigger one push, got %+v", f.notifier.pushes)
	}

	// Once rated, the follow-up stays quiet.
	if _, err := f.uc.Create(ctx, patient.ID, appointment.ID, 5, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.uc.HandleFollowUp(ctx, task); err != nil {
		t.Fatalf("HandleFollowUp failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 {
		t.Fatalf("rated visit should not push again, got %d pushes", len(f.notifier.pushes))
	}

	// A stale task for a canceled appointment is a no-op too.
	canceled := entity.Appointment{
		PatientID: patient.ID,
		ClinicID:  &clinic.ID,
		DateTime:  time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
		Status:    entity.AppointmentCanceled,
	}
	if err := f.db.Create(&canceled).Error; err != nil {
		t.Fatalf("failed to seed canceled appointment: %v", err)
	}
	task.AppointmentID = canceled.ID
	if err := f.uc.HandleFollowUp(ctx, task); err != nil {
		t.Fatalf("HandleFollowUp failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 {
		t.Fatalf("canceled visit should not push, got %d pushes", len(f.notifier.pushes))
	}
}

func TestRatingListForClinic(t *testing.T) {
	f := newRatingFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	clinic := seedClinic(t, f.db, "alpha")
	other := seedClinic(t, f.db, "beta")
	ctx := context.Background()

	first := f.seedConfirmedAppointment(t, patient.ID, clinic.ID)
	second := f.seedConfirmedAppointment(t, patient.ID, clinic.ID)
	elsewhere := f.seedConfirmedAppointment(t, patient.ID, other.ID)

	for _, a := range []entity.Appointment{first, second, elsewhere} {
		if _, err := f.uc.Create(ctx, patient.ID, a.ID, 5, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	ratings, err := f.uc.ListForClinic(ctx, clinic.ID)
	if err != nil {
		t.Fatalf("ListForClinic failed: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings for the clinic, got %d", len(ratings))
	}
}
