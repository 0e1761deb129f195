package service

import (
	"testing"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedDoctor(t *testing.T, db *gorm.DB, clinicID uuid.UUID, email string, shifts []entity.DoctorShift) entity.DoctorProfile {
	t.Helper()
	user := seedUser(t, db, entity.RoleIDDoctor, email)
	doctor := entity.DoctorProfile{
		UserID:         user.ID,
		ClinicID:       &clinicID,
		STRNumber:      "STR-" + user.ID.String()[:8],
		Specialization: "General",
	}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}
	for i := range shifts {
		shifts[i].DoctorID = user.ID
	}
	if len(shifts) > 0 {
		if err := db.Create(&shifts).Error; err != nil {
			t.Fatalf("failed to seed shifts: %v", err)
		}
	}
	return doctor
}

func newRecommender(now time.Time) *SlotRecommender {
	return NewSlotRecommender(
		testLogger(),
		repository.NewDoctorRepository(),
		repository.NewScheduleRepository(),
		clock.Fixed{T: now},
	)
}

func TestRecommendSkipsBusyAndUncoveredSlots(t *testing.T) {
	db := newTestDB(t)
	clinic := seedApprovedClinic(t, db, "slots", -6.2, 106.8, nil)

	// 2026-09-01 is a Tuesday; the only Tuesday inside the day scan.
	originalAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	seedDoctor(t, db, clinic.ID, "doc@example.com", []entity.DoctorShift{
		{Weekday: 2, WorkFrom: "09:00", WorkTo: "12:00"},
	})

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	slots, err := newRecommender(now).Recommend(db, originalAt, []uuid.UUID{clinic.ID})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	// Hour 10 holds the original request, so only 09:00 and 11:00 remain.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(slots), slots)
	}
	if slots[0].Date != "2026-09-01" || slots[0].Time != "09:00" {
		t.Fatalf("unexpected first slot: %+v", slots[0])
	}
	if slots[1].Date != "2026-09-01" || slots[1].Time != "11:00" {
		t.Fatalf("unexpected second slot: %+v", slots[1])
	}
	for _, s := range slots {
		if s.Ratio != 0 {
			t.Fatalf("single free doctor should score ratio 0, got %v", s.Ratio)
		}
	}
}

func TestRecommendRespectsCommittedBlocks(t *testing.T) {
	db := newTestDB(t)
	clinic := seedApprovedClinic(t, db, "blocked", -6.2, 106.8, nil)

	originalAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	doctor := seedDoctor(t, db, clinic.ID, "busy-doc@example.com", []entity.DoctorShift{
		{Weekday: 2, WorkFrom: "09:00", WorkTo: "12:00"},
	})

	patient := seedUser(t, db, entity.RoleIDPatient, "slot-patient@example.com")
	appointment := entity.Appointment{
		PatientID: patient.ID,
		DateTime:  time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
		Status:    entity.AppointmentReserved,
	}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	block := entity.AppointmentSchedule{
		AppointmentID: appointment.ID,
		DoctorID:      doctor.UserID,
		StartsAt:      time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&block).Error; err != nil {
		t.Fatalf("failed to seed schedule block: %v", err)
	}

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	slots, err := newRecommender(now).Recommend(db, originalAt, []uuid.UUID{clinic.ID})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %+v", len(slots), slots)
	}
	if slots[0].Date != "2026-09-01" || slots[0].Time != "09:00" {
		t.Fatalf("unexpected slot: %+v", slots[0])
	}
}

func TestRecommendEmptyInputs(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	originalAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	slots, err := newRecommender(now).Recommend(db, originalAt, nil)
	if err != nil || slots != nil {
		t.Fatalf("no clinics should yield nil, got %+v, %v", slots, err)
	}

	// A clinic with no doctors also yields nothing.
	clinic := seedApprovedClinic(t, db, "empty", -6.2, 106.8, nil)
	slots, err = newRecommender(now).Recommend(db, originalAt, []uuid.UUID{clinic.ID})
	if err != nil || slots != nil {
		t.Fatalf("no doctors should yield nil, got %+v, %v", slots, err)
	}
}

func TestRecommendOnlyFutureDays(t *testing.T) {
	db := newTestDB(t)
	clinic := seedApprovedClinic(t, db, "future", -6.2, 106.8, nil)

	// Shift only covers the original day itself, which is "today".
	originalAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	seedDoctor(t, db, clinic.ID, "today-doc@example.com", []entity.DoctorShift{
		{Weekday: 2, WorkFrom: "09:00", WorkTo: "12:00"},
	})

	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	slots, err := newRecommender(now).Recommend(db, originalAt, []uuid.UUID{clinic.ID})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("same-day slots must not be recommended, got %+v", slots)
	}
}
