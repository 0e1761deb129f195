package usecase

import (
	"context"
	"errors"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidRate         = errors.New("rate must be between 1 and 5")
	ErrAlreadyRated        = errors.New("appointment is already rated")
	ErrAppointmentNotRated = errors.New("appointment is not rated yet")
	ErrNotRatable          = errors.New("only confirmed appointments can be rated")
)

// RatingUsecase writes appointment ratings and keeps the clinic's sum/cnt
// aggregate in step. The aggregate delta is an ordinary step of the same
// transaction: +rate/+1 on create, the difference on update, -rate/-1 on
// delete. No observers, so ordering stays deterministic.
type RatingUsecase interface {
	Create(ctx context.Context, patientID, appointmentID uuid.UUID, rate int, comment string) (*entity.AppointmentRating, error)
	Update(ctx context.Context, patientID, appointmentID uuid.UUID, rate int, comment string) (*entity.AppointmentRating, error)
	Delete(ctx context.Context, patientID, appointmentID uuid.UUID) error
	ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]entity.AppointmentRating, error)
	// HandleFollowUp is the delayed-task callback scheduled on confirm: nudge
	// the patient to rate the visit if they have not yet.
	HandleFollowUp(ctx context.Context, task entity.DelayedTask) error
}

type ratingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	ratingRepo      repository.RatingRepository
	appointmentRepo repository.AppointmentRepository
	clinicRepo      repository.ClinicRepository
	notifier        service.Notifier
}

func NewRatingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	ratingRepo repository.RatingRepository,
	appointmentRepo repository.AppointmentRepository,
	clinicRepo repository.ClinicRepository,
	notifier service.Notifier,
) RatingUsecase {
	return &ratingUsecase{
		db:              db,
		log:             log,
		ratingRepo:      ratingRepo,
		appointmentRepo: appointmentRepo,
		clinicRepo:      clinicRepo,
		notifier:        notifier,
	}
}

func (u *ratingUsecase) Create(ctx context.Context, patientID, appointmentID uuid.UUID, rate int, comment string) (*entity.AppointmentRating, error) {
	if rate < 1 || rate > 5 {
		return nil, ErrInvalidRate
	}

	var rating *entity.AppointmentRating
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.ratableAppointment(tx, patientID, appointmentID)
		if err != nil {
			return err
		}

		existing, err := u.ratingRepo.FindByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyRated
		}

		rating = &entity.AppointmentRating{
			AppointmentID: appointmentID,
			Rate:          rate,
			Comment:       comment,
		}
		if err := u.ratingRepo.Create(tx, rating); err != nil {
			return err
		}

		return u.clinicRepo.ApplyRatingDelta(tx, *appointment.ClinicID, rate, 1)
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Rating created for appointment %s: %d", appointmentID, rate)
	return rating, nil
}

func (u *ratingUsecase) Update(ctx context.Context, patientID, appointmentID uuid.UUID, rate int, comment string) (*entity.AppointmentRating, error) {
	if rate < 1 || rate > 5 {
		return nil, ErrInvalidRate
	}

	var rating *entity.AppointmentRating
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.ratableAppointment(tx, patientID, appointmentID)
		if err != nil {
			return err
		}

		rating, err = u.ratingRepo.FindByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if rating == nil {
			return ErrAppointmentNotRated
		}

		delta := rate - rating.Rate
		rating.Rate = rate
		rating.Comment = comment
		if err := u.ratingRepo.Update(tx, rating); err != nil {
			return err
		}

		if delta == 0 {
			return nil
		}
		return u.clinicRepo.ApplyRatingDelta(tx, *appointment.ClinicID, delta, 0)
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Rating updated for appointment %s: %d", appointmentID, rate)
	return rating, nil
}

func (u *ratingUsecase) Delete(ctx context.Context, patientID, appointmentID uuid.UUID) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.ratableAppointment(tx, patientID, appointmentID)
		if err != nil {
			return err
		}

		rating, err := u.ratingRepo.FindByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if rating == nil {
			return ErrAppointmentNotRated
		}

		if err := u.ratingRepo.Delete(tx, rating.ID); err != nil {
			return err
		}

		return u.clinicRepo.ApplyRatingDelta(tx, *appointment.ClinicID, -rating.Rate, -1)
	})
	if err != nil {
		return err
	}

	u.log.Infof("Rating deleted for appointment %s", appointmentID)
	return nil
}

func (u *ratingUsecase) ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]entity.AppointmentRating, error) {
	return u.ratingRepo.FindByClinic(u.db.WithContext(ctx), clinicID)
}

func (u *ratingUsecase) HandleFollowUp(ctx context.Context, task entity.DelayedTask) error {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || appointment.Status != entity.AppointmentConfirmed {
		return nil
	}

	rating, err := u.ratingRepo.FindByAppointment(db, appointment.ID)
	if err != nil {
		return err
	}
	if rating != nil {
		return nil
	}

	message := "How was your appointment on " + appointment.DateTime.Format("2006-01-02 15:04") + "? Leave a rating"
	if err := u.notifier.Push(ctx, appointment.PatientID, message); err != nil {
		u.log.Warnf("Failed to push rating follow-up for appointment %s: %+v", appointment.ID, err)
	}
	return nil
}

// ratableAppointment loads the patient's appointment and checks it is a
// confirmed one bound to a clinic.
func (u *ratingUsecase) ratableAppointment(tx *gorm.DB, patientID, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil || appointment.PatientID != patientID {
		return nil, &apperr.NotFoundError{Resource: "appointment"}
	}
	if appointment.Status != entity.AppointmentConfirmed || appointment.ClinicID == nil {
		return nil, ErrNotRatable
	}
	return appointment, nil
}
