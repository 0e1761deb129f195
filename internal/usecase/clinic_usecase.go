package usecase

import (
	"context"
	"errors"

	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNoClinic          = errors.New("user has no clinic")
	ErrClinicNotApproved = errors.New("clinic is not approved")
	ErrInvalidShift      = errors.New("shift work_from must be before work_to")
)

// ClinicUsecase is the clinic admin's side of the system: the clinic record,
// its doctors and treatments, the negotiation inbox, and the online presence
// flag that feeds the matcher's online-only stage.
type ClinicUsecase interface {
	MyClinic(ctx context.Context, adminID uuid.UUID) (*entity.Clinic, error)
	// ListEvents returns the clinic's negotiation inbox filtered to the given
	// states; nil means every state.
	ListEvents(ctx context.Context, adminID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error)
	ListDoctors(ctx context.Context, adminID uuid.UUID) ([]entity.DoctorProfile, error)
	AddDoctor(ctx context.Context, adminID uuid.UUID, req *dto.AddDoctorRequest) (*entity.DoctorProfile, error)
	SetTreatments(ctx context.Context, adminID uuid.UUID, treatmentIDs []uuid.UUID) (*entity.Clinic, error)
	SetOnline(ctx context.Context, adminID uuid.UUID) error
	SetOffline(ctx context.Context, adminID uuid.UUID) error
	// Moderation, super admin only.
	Approve(ctx context.Context, clinicID uuid.UUID) error
	Block(ctx context.Context, clinicID uuid.UUID) error
}

type clinicUsecase struct {
	db            *gorm.DB
	log           *logrus.Logger
	clinicRepo    repository.ClinicRepository
	eventRepo     repository.ClinicEventRepository
	doctorRepo    repository.DoctorRepository
	treatmentRepo repository.TreatmentRepository
	userRepo      repository.UserRepository
	presence      service.OnlinePresence
}

func NewClinicUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	clinicRepo repository.ClinicRepository,
	eventRepo repository.ClinicEventRepository,
	doctorRepo repository.DoctorRepository,
	treatmentRepo repository.TreatmentRepository,
	userRepo repository.UserRepository,
	presence service.OnlinePresence,
) ClinicUsecase {
	return &clinicUsecase{
		db:            db,
		log:           log,
		clinicRepo:    clinicRepo,
		eventRepo:     eventRepo,
		doctorRepo:    doctorRepo,
		treatmentRepo: treatmentRepo,
		userRepo:      userRepo,
		presence:      presence,
	}
}

func (u *clinicUsecase) MyClinic(ctx context.Context, adminID uuid.UUID) (*entity.Clinic, error) {
	clinic, err := u.ownClinic(ctx, adminID)
	if err != nil {
		return nil, err
	}
	// Reload with treatments for the full picture.
	return u.clinicRepo.FindByID(u.db.WithContext(ctx), clinic.ID)
}

func (u *clinicUsecase) ListEvents(ctx context.Context, adminID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error) {
	clinic, err := u.ownClinic(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = []entity.ClinicEventStatus{
			entity.ClinicEventActive,
			entity.ClinicEventAccepted,
			entity.ClinicEventSuggested,
			entity.ClinicEventRejected,
			entity.ClinicEventInactive,
			entity.ClinicEventRejectedSuggestions,
		}
	}
	return u.eventRepo.FindByClinicInStatus(u.db.WithContext(ctx), clinic.ID, statuses)
}

func (u *clinicUsecase) ListDoctors(ctx context.Context, adminID uuid.UUID) ([]entity.DoctorProfile, error) {
	clinic, err := u.ownClinic(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return u.doctorRepo.FindByClinics(u.db.WithContext(ctx), []uuid.UUID{clinic.ID})
}

// AddDoctor creates the doctor's user account, profile and weekly shifts under
// the admin's clinic in one transaction.
func (u *clinicUsecase) AddDoctor(ctx context.Context, adminID uuid.UUID, req *dto.AddDoctorRequest) (*entity.DoctorProfile, error) {
	clinic, err := u.ownClinic(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if clinic.Status != entity.ClinicApproved {
		return nil, ErrClinicNotApproved
	}
	for _, s := range req.Shifts {
		if s.WorkFrom >= s.WorkTo {
			return nil, ErrInvalidShift
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Errorf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	var doctor *entity.DoctorProfile
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &entity.User{
			RoleID:   entity.RoleIDDoctor,
			Email:    req.Email,
			Password: string(hashedPassword),
			FullName: req.FullName,
			IsActive: &active,
		}
		if err := u.userRepo.Create(tx, user); err != nil {
			return err
		}

		shifts := make([]entity.DoctorShift, 0, len(req.Shifts))
		for _, s := range req.Shifts {
			shifts = append(shifts, entity.DoctorShift{
				Weekday:  s.Weekday,
				WorkFrom: s.WorkFrom,
				WorkTo:   s.WorkTo,
			})
		}

		doctor = &entity.DoctorProfile{
			UserID:         user.ID,
			ClinicID:       &clinic.ID,
			STRNumber:      req.STRNumber,
			Specialization: req.Specialization,
			Biography:      req.Biography,
			Shifts:         shifts,
		}
		if err := u.doctorRepo.Create(tx, doctor); err != nil {
			return err
		}
		doctor.User = *user
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Errorf("Failed to add doctor to clinic %s: %+v", clinic.ID, err)
		return nil, err
	}

	u.log.Infof("Doctor added to clinic %s: %s", clinic.ID, doctor.UserID)
	return doctor, nil
}

func (u *clinicUsecase) SetTreatments(ctx context.Context, adminID uuid.UUID, treatmentIDs []uuid.UUID) (*entity.Clinic, error) {
	clinic, err := u.ownClinic(ctx, adminID)
	if err != nil {
		return nil, err
	}

	treatments, err := u.treatmentRepo.FindByIDs(u.db.WithContext(ctx), treatmentIDs)
	if err != nil {
		return nil, err
	}
	if len(treatments) != len(treatmentIDs) {
		return nil, ErrUnknownTreatment
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return u.clinicRepo.ReplaceTreatments(tx, clinic, treatments)
	})
	if err != nil {
		u.log.Errorf("Failed to set treatments for clinic %s: %+v", clinic.ID, err)
		return nil, err
	}

	clinic.Treatments = treatments
	return clinic, nil
}

func (u *clinicUsecase) SetOnline(ctx context.Context, adminID uuid.UUID) error {
	if _, err := u.ownClinic(ctx, adminID); err != nil {
		return err
	}
	return u.presence.MarkOnline(ctx, adminID)
}

func (u *clinicUsecase) SetOffline(ctx context.Context, adminID uuid.UUID) error {
	if _, err := u.ownClinic(ctx, adminID); err != nil {
		return err
	}
	return u.presence.MarkOffline(ctx, adminID)
}

func (u *clinicUsecase) Approve(ctx context.Context, clinicID uuid.UUID) error {
	return u.moderate(ctx, clinicID, entity.ClinicApproved)
}

func (u *clinicUsecase) Block(ctx context.Context, clinicID uuid.UUID) error {
	return u.moderate(ctx, clinicID, entity.ClinicBlocked)
}

func (u *clinicUsecase) moderate(ctx context.Context, clinicID uuid.UUID, status entity.ClinicStatus) error {
	db := u.db.WithContext(ctx)
	clinic, err := u.clinicRepo.FindByID(db, clinicID)
	if err != nil {
		return err
	}
	if clinic == nil {
		return &apperr.NotFoundError{Resource: "clinic"}
	}
	if err := u.clinicRepo.UpdateStatus(db, clinicID, status); err != nil {
		u.log.Errorf("Failed to set clinic %s to %s: %+v", clinicID, status, err)
		return err
	}
	u.log.Infof("Clinic %s moderated to %s", clinicID, status)
	return nil
}

func (u *clinicUsecase) ownClinic(ctx context.Context, adminID uuid.UUID) (*entity.Clinic, error) {
	clinic, err := u.clinicRepo.FindByAdminID(u.db.WithContext(ctx), adminID)
	if err != nil {
		u.log.Warnf("Failed to find clinic for admin %s: %+v", adminID, err)
		return nil, err
	}
	if clinic == nil {
		return nil, ErrNoClinic
	}
	return clinic, nil
}
