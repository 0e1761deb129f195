package usecase

import (
	"context"

	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TreatmentUsecase manages the global treatment catalog. Creation is a super
// admin operation; the list feeds both the booking form and clinic setup.
type TreatmentUsecase interface {
	Create(ctx context.Context, req *dto.CreateTreatmentRequest) (*entity.Treatment, error)
	List(ctx context.Context) ([]entity.Treatment, error)
}

type treatmentUsecase struct {
	db            *gorm.DB
	log           *logrus.Logger
	treatmentRepo repository.TreatmentRepository
}

func NewTreatmentUsecase(db *gorm.DB, log *logrus.Logger, treatmentRepo repository.TreatmentRepository) TreatmentUsecase {
	return &treatmentUsecase{
		db:            db,
		log:           log,
		treatmentRepo: treatmentRepo,
	}
}

func (u *treatmentUsecase) Create(ctx context.Context, req *dto.CreateTreatmentRequest) (*entity.Treatment, error) {
	treatment := &entity.Treatment{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	}
	if err := u.treatmentRepo.Create(u.db.WithContext(ctx), treatment); err != nil {
		u.log.Errorf("Failed to create treatment: %+v", err)
		return nil, err
	}
	u.log.Infof("Treatment created: %s (%s)", treatment.Name, treatment.ID)
	return treatment, nil
}

func (u *treatmentUsecase) List(ctx context.Context) ([]entity.Treatment, error) {
	return u.treatmentRepo.FindAll(u.db.WithContext(ctx))
}
