package repository

import (
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type delayedTaskRepository struct{}

func NewDelayedTaskRepository() domainRepo.DelayedTaskRepository {
	return &delayedTaskRepository{}
}

func (r *delayedTaskRepository) Create(db *gorm.DB, task *entity.DelayedTask) error {
	return db.Create(task).Error
}

func (r *delayedTaskRepository) Revoke(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.DelayedTask{}).
		Where("id = ? AND status = ?", id, entity.DelayedTaskPending).
		Update("status", entity.DelayedTaskRevoked)
	return result.RowsAffected, result.Error
}

func (r *delayedTaskRepository) FindDue(db *gorm.DB, now time.Time, limit int) ([]entity.DelayedTask, error) {
	var tasks []entity.DelayedTask
	err := db.Where("status = ? AND execute_at <= ?", entity.DelayedTaskPending, now).
		Order("execute_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *delayedTaskRepository) MarkStatusIf(db *gorm.DB, id uuid.UUID, to entity.DelayedTaskStatus) (int64, error) {
	result := db.Model(&entity.DelayedTask{}).
		Where("id = ? AND status = ?", id, entity.DelayedTaskPending).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *delayedTaskRepository) MarkFailed(db *gorm.DB, id uuid.UUID) error {
	return db.Model(&entity.DelayedTask{}).
		Where("id = ?", id).
		Update("status", entity.DelayedTaskFailed).Error
}
