package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	BulkCreate(db *gorm.DB, notifications []entity.UserNotification) error
	MarkSent(db *gorm.DB, ids []uuid.UUID) error
	// CancelPendingForSettledAdmins flips to canceled every pending notice about
	// the appointment addressed to an admin whose clinic's event is settled
	// (rejected / inactive / rejected-suggestions). The patient's notices are
	// never touched. When onlyUser is set, the sweep is narrowed to that admin.
	CancelPendingForSettledAdmins(db *gorm.DB, appointmentID, patientID uuid.UUID, onlyUser *uuid.UUID) (int64, error)
	FindPendingByUser(db *gorm.DB, userID uuid.UUID) ([]entity.UserNotification, error)
}
