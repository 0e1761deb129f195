package usecase

import (
	"context"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationUsecase exposes the user's pending notices. Delivery and
// cancellation are the orchestrator's business; this is just the read model.
type NotificationUsecase interface {
	ListPending(ctx context.Context, userID uuid.UUID) ([]entity.UserNotification, error)
}

type notificationUsecase struct {
	db               *gorm.DB
	notificationRepo repository.NotificationRepository
}

func NewNotificationUsecase(db *gorm.DB, notificationRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{
		db:               db,
		notificationRepo: notificationRepo,
	}
}

func (u *notificationUsecase) ListPending(ctx context.Context, userID uuid.UUID) ([]entity.UserNotification, error) {
	return u.notificationRepo.FindPendingByUser(u.db.WithContext(ctx), userID)
}
