package repository

import (
	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationRepository struct{}

func NewNotificationRepository() domainRepo.NotificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) BulkCreate(db *gorm.DB, notifications []entity.UserNotification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.Create(&notifications).Error
}

func (r *notificationRepository) MarkSent(db *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&entity.UserNotification{}).
		Where("id IN ? AND status = ?", ids, entity.NotificationPending).
		Update("status", entity.NotificationSent).Error
}

func (r *notificationRepository) CancelPendingForSettledAdmins(db *gorm.DB, appointmentID, patientID uuid.UUID, onlyUser *uuid.UUID) (int64, error) {
	settledAdmins := db.Model(&entity.ClinicEvent{}).
		Select("clinics.admin_id").
		Joins("JOIN clinics ON clinics.id = appointment_clinic_events.clinic_id").
		Where("appointment_clinic_events.appointment_id = ? AND appointment_clinic_events.status IN ?",
			appointmentID, entity.SettledStatuses())

	query := db.Model(&entity.UserNotification{}).
		Where("appointment_id = ? AND status = ?", appointmentID, entity.NotificationPending).
		Where("user_id IN (?)", settledAdmins).
		Where("user_id <> ?", patientID)
	if onlyUser != nil {
		query = query.Where("user_id = ?", *onlyUser)
	}

	result := query.Update("status", entity.NotificationCanceled)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) FindPendingByUser(db *gorm.DB, userID uuid.UUID) ([]entity.UserNotification, error) {
	var notifications []entity.UserNotification
	err := db.Where("user_id = ? AND status = ?", userID, entity.NotificationPending).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
