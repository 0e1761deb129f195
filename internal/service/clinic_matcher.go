package service

import (
	"context"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/pkg/geo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MatchInput describes one matching run. AppointmentID carries the exclusion
// history for reopen/timeout runs; nil on a fresh request.
type MatchInput struct {
	TreatmentIDs  []uuid.UUID
	Latitude      *float64
	Longitude     *float64
	AppointmentID *uuid.UUID
	RaiseOnEmpty  bool
	OnlineOnly    bool
}

// ClinicMatcher narrows the approved clinic set through an ordered pipeline:
// treatment coverage, radius, reject history, suggest-reject history and an
// optional online-admins filter. Each stage operates on the previous stage's
// output; with RaiseOnEmpty a stage emptying the set fails with a field-scoped
// EmptyMatchError instead of returning nothing.
type ClinicMatcher struct {
	log        *logrus.Logger
	clinicRepo repository.ClinicRepository
	eventRepo  repository.ClinicEventRepository
	presence   OnlinePresence
	radiusKm   float64
}

func NewClinicMatcher(
	log *logrus.Logger,
	clinicRepo repository.ClinicRepository,
	eventRepo repository.ClinicEventRepository,
	presence OnlinePresence,
	radiusKm float64,
) *ClinicMatcher {
	return &ClinicMatcher{
		log:        log,
		clinicRepo: clinicRepo,
		eventRepo:  eventRepo,
		presence:   presence,
		radiusKm:   radiusKm,
	}
}

func (m *ClinicMatcher) Match(ctx context.Context, db *gorm.DB, in MatchInput) ([]entity.Clinic, error) {
	clinics, err := m.clinicRepo.FindApproved(db)
	if err != nil {
		m.log.Warnf("Failed to load approved clinics: %+v", err)
		return nil, err
	}

	// Stage 1: treatment coverage
	clinics = filterClinics(clinics, func(c *entity.Clinic) bool {
		return c.OffersAll(in.TreatmentIDs)
	})
	if err := m.checkEmpty(clinics, in.RaiseOnEmpty, "treatments"); err != nil {
		return nil, err
	}

	// Stage 2: radius, no-op without a point
	if in.Latitude != nil && in.Longitude != nil {
		clinics = filterClinics(clinics, func(c *entity.Clinic) bool {
			return geo.DistanceKm(*in.Latitude, *in.Longitude, c.Latitude, c.Longitude) <= m.radiusKm
		})
		if err := m.checkEmpty(clinics, in.RaiseOnEmpty, "location"); err != nil {
			return nil, err
		}
	}

	// Stages 3+4: exclude clinics that already settled against this request
	if in.AppointmentID != nil {
		rejected, suggestRejected, err := m.historyExclusions(db, *in.AppointmentID)
		if err != nil {
			return nil, err
		}

		clinics = filterClinics(clinics, func(c *entity.Clinic) bool {
			_, out := rejected[c.ID]
			return !out
		})
		if err := m.checkEmpty(clinics, in.RaiseOnEmpty, "location", "treatments"); err != nil {
			return nil, err
		}

		clinics = filterClinics(clinics, func(c *entity.Clinic) bool {
			_, out := suggestRejected[c.ID]
			return !out
		})
		if err := m.checkEmpty(clinics, in.RaiseOnEmpty, "location", "treatments"); err != nil {
			return nil, err
		}
	}

	// Stage 5: online admins only
	if in.OnlineOnly {
		online, err := m.presence.OnlineAdmins(ctx)
		if err != nil {
			return nil, err
		}
		clinics = filterClinics(clinics, func(c *entity.Clinic) bool {
			_, ok := online[c.AdminID]
			return ok
		})
		if err := m.checkEmpty(clinics, in.RaiseOnEmpty, "location", "treatments"); err != nil {
			return nil, err
		}
	}

	return clinics, nil
}

// historyExclusions splits the appointment's settled negotiation history into
// the clinic sets excluded by stages 3 and 4.
func (m *ClinicMatcher) historyExclusions(db *gorm.DB, appointmentID uuid.UUID) (map[uuid.UUID]struct{}, map[uuid.UUID]struct{}, error) {
	events, err := m.eventRepo.FindByAppointmentInStatus(db, appointmentID, []entity.ClinicEventStatus{
		entity.ClinicEventRejected,
		entity.ClinicEventRejectedSuggestions,
	})
	if err != nil {
		m.log.Warnf("Failed to load event history for appointment %s: %+v", appointmentID, err)
		return nil, nil, err
	}

	rejected := make(map[uuid.UUID]struct{})
	suggestRejected := make(map[uuid.UUID]struct{})
	for _, e := range events {
		switch e.Status {
		case entity.ClinicEventRejected:
			rejected[e.ClinicID] = struct{}{}
		case entity.ClinicEventRejectedSuggestions:
			suggestRejected[e.ClinicID] = struct{}{}
		}
	}
	return rejected, suggestRejected, nil
}

func (m *ClinicMatcher) checkEmpty(clinics []entity.Clinic, raise bool, fields ...string) error {
	if raise && len(clinics) == 0 {
		return &apperr.EmptyMatchError{Fields: fields}
	}
	return nil
}

func filterClinics(clinics []entity.Clinic, keep func(*entity.Clinic) bool) []entity.Clinic {
	out := clinics[:0]
	for i := range clinics {
		if keep(&clinics[i]) {
			out = append(out, clinics[i])
		}
	}
	return out
}
