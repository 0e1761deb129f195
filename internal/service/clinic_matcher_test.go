package service

import (
	"context"
	"errors"
	"testing"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newMatcher(db *gorm.DB, presence OnlinePresence, radiusKm float64) *ClinicMatcher {
	return NewClinicMatcher(
		testLogger(),
		repository.NewClinicRepository(),
		repository.NewClinicEventRepository(),
		presence,
		radiusKm,
	)
}

func clinicIDs(clinics []entity.Clinic) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(clinics))
	for _, c := range clinics {
		ids[c.ID] = struct{}{}
	}
	return ids
}

func TestMatchFiltersByTreatmentCoverage(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)
	filling := seedTreatment(t, db, "Filling", 45)

	full := seedApprovedClinic(t, db, "full", -6.2, 106.8, []entity.Treatment{cleaning, filling})
	partial := seedApprovedClinic(t, db, "partial", -6.2, 106.8, []entity.Treatment{cleaning})

	m := newMatcher(db, &fakePresence{online: map[uuid.UUID]struct{}{}}, 10)
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{cleaning.ID, filling.ID},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	ids := clinicIDs(clinics)
	if _, ok := ids[full.ID]; !ok {
		t.Fatal("clinic covering all treatments should match")
	}
	if _, ok := ids[partial.ID]; ok {
		t.Fatal("clinic missing a treatment should be filtered out")
	}
}

func TestMatchSkipsUnapprovedClinics(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)

	approved := seedApprovedClinic(t, db, "approved", -6.2, 106.8, []entity.Treatment{cleaning})
	pending := seedApprovedClinic(t, db, "pending", -6.2, 106.8, []entity.Treatment{cleaning})
	if err := db.Model(&entity.Clinic{}).Where("id = ?", pending.ID).
		Update("status", entity.ClinicPending).Error; err != nil {
		t.Fatalf("failed to downgrade clinic: %v", err)
	}

	m := newMatcher(db, &fakePresence{online: map[uuid.UUID]struct{}{}}, 10)
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{cleaning.ID},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	ids := clinicIDs(clinics)
	if _, ok := ids[approved.ID]; !ok {
		t.Fatal("approved clinic should match")
	}
	if _, ok := ids[pending.ID]; ok {
		t.Fatal("pending clinic should never match")
	}
}

func TestMatchRadiusFilter(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)

	// ~0km and ~111km away from the patient's point.
	near := seedApprovedClinic(t, db, "near", -6.2, 106.8, []entity.Treatment{cleaning})
	far := seedApprovedClinic(t, db, "far", -7.2, 106.8, []entity.Treatment{cleaning})

	lat, lon := -6.2, 106.8
	m := newMatcher(db, &fakePresence{online: map[uuid.UUID]struct{}{}}, 10)
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{cleaning.ID},
		Latitude:     &lat,
		Longitude:    &lon,
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	ids := clinicIDs(clinics)
	if _, ok := ids[near.ID]; !ok {
		t.Fatal("clinic inside the radius should match")
	}
	if _, ok := ids[far.ID]; ok {
		t.Fatal("clinic outside the radius should be filtered out")
	}
}

func TestMatchExcludesSettledHistory(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)

	rejected := seedApprovedClinic(t, db, "rejected", -6.2, 106.8, []entity.Treatment{cleaning})
	suggestRejected := seedApprovedClinic(t, db, "suggest-rejected", -6.2, 106.8, []entity.Treatment{cleaning})
	fresh := seedApprovedClinic(t, db, "fresh", -6.2, 106.8, []entity.Treatment{cleaning})

	patient := seedUser(t, db, entity.RoleIDPatient, "patient@example.com")
	appointment := entity.Appointment{PatientID: patient.ID, DateTime: db.NowFunc(), Status: entity.AppointmentTimeOut}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	events := []entity.ClinicEvent{
		{AppointmentID: appointment.ID, ClinicID: rejected.ID, Status: entity.ClinicEventRejected},
		{AppointmentID: appointment.ID, ClinicID: suggestRejected.ID, Status: entity.ClinicEventRejectedSuggestions},
	}
	if err := db.Create(&events).Error; err != nil {
		t.Fatalf("failed to seed events: %v", err)
	}

	m := newMatcher(db, &fakePresence{online: map[uuid.UUID]struct{}{}}, 10)
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs:  []uuid.UUID{cleaning.ID},
		AppointmentID: &appointment.ID,
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	ids := clinicIDs(clinics)
	if len(ids) != 1 {
		t.Fatalf("expected 1 clinic, got %d", len(ids))
	}
	if _, ok := ids[fresh.ID]; !ok {
		t.Fatal("only the clinic without settled history should match")
	}
}

func TestMatchOnlineOnly(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)

	online := seedApprovedClinic(t, db, "online", -6.2, 106.8, []entity.Treatment{cleaning})
	offline := seedApprovedClinic(t, db, "offline", -6.2, 106.8, []entity.Treatment{cleaning})

	presence := &fakePresence{online: map[uuid.UUID]struct{}{online.AdminID: {}}}
	m := newMatcher(db, presence, 10)
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{cleaning.ID},
		OnlineOnly:   true,
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	ids := clinicIDs(clinics)
	if _, ok := ids[online.ID]; !ok {
		t.Fatal("clinic with online admin should match")
	}
	if _, ok := ids[offline.ID]; ok {
		t.Fatal("clinic with offline admin should be filtered out")
	}
}

func TestMatchRaisesOnEmpty(t *testing.T) {
	db := newTestDB(t)
	cleaning := seedTreatment(t, db, "Cleaning", 30)
	surgery := seedTreatment(t, db, "Surgery", 120)
	seedApprovedClinic(t, db, "clinic", -6.2, 106.8, []entity.Treatment{cleaning})

	m := newMatcher(db, &fakePresence{online: map[uuid.UUID]struct{}{}}, 10)
	_, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{surgery.ID},
		RaiseOnEmpty: true,
	})
	if !apperr.IsEmptyMatch(err) {
		t.Fatalf("expected EmptyMatchError, got %v", err)
	}

	var em *apperr.EmptyMatchError
	if !errors.As(err, &em) || len(em.Fields) != 1 || em.Fields[0] != "treatments" {
		t.Fatalf("expected fields [treatments], got %+v", em)
	}

	// Without RaiseOnEmpty the same run returns an empty set.
	clinics, err := m.Match(context.Background(), db, MatchInput{
		TreatmentIDs: []uuid.UUID{surgery.ID},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(clinics) != 0 {
		t.Fatalf("expected no clinics, got %d", len(clinics))
	}
}
