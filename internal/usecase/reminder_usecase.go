package usecase

import (
	"context"
	"errors"
	"time"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotRemindable = errors.New("only reserved or confirmed appointments can have a reminder")
	ErrNoReminder    = errors.New("appointment has no reminder")
)

// Reminders further out than this are left to the hourly sweep instead of
// getting a task right away, so a date change only invalidates a near task.
const reminderScheduleHorizon = time.Hour

// ReminderUsecase keeps one pre-appointment reminder per appointment.
// Changing the lead time revokes the previously scheduled task before a new
// one is created; reminders far in the future are picked up by an hourly
// sweep so a suggestion-driven date change cannot leave a stale firing time.
type ReminderUsecase interface {
	Upsert(ctx context.Context, patientID, appointmentID uuid.UUID, beforeMinutes int) (*entity.AppointmentReminder, error)
	Delete(ctx context.Context, patientID, appointmentID uuid.UUID) error
	// ScheduleDueSoon is the sweep: every unsent reminder firing within the
	// next hour gets its task (re)scheduled against the current date-time.
	ScheduleDueSoon(ctx context.Context) error
	// HandleReminder is the delayed-task callback: push the patient, mark sent.
	HandleReminder(ctx context.Context, task entity.DelayedTask) error
}

type reminderUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	reminderRepo    repository.ReminderRepository
	appointmentRepo repository.AppointmentRepository
	scheduler       service.DelayedTaskScheduler
	notifier        service.Notifier
	clock           clock.Clock
}

func NewReminderUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	reminderRepo repository.ReminderRepository,
	appointmentRepo repository.AppointmentRepository,
	scheduler service.DelayedTaskScheduler,
	notifier service.Notifier,
	clk clock.Clock,
) ReminderUsecase {
	return &reminderUsecase{
		db:              db,
		log:             log,
		reminderRepo:    reminderRepo,
		appointmentRepo: appointmentRepo,
		scheduler:       scheduler,
		notifier:        notifier,
		clock:           clk,
	}
}

func (u *reminderUsecase) Upsert(ctx context.Context, patientID, appointmentID uuid.UUID, beforeMinutes int) (*entity.AppointmentReminder, error) {
	var reminder *entity.AppointmentReminder

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment, err := u.remindableAppointment(tx, patientID, appointmentID)
		if err != nil {
			return err
		}

		reminder, err = u.reminderRepo.FindByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if reminder == nil {
			reminder = &entity.AppointmentReminder{
				AppointmentID: appointmentID,
				BeforeMinutes: beforeMinutes,
			}
			if err := u.reminderRepo.Create(tx, reminder); err != nil {
				return err
			}
		} else {
			// Revoke before rescheduling so the old firing time cannot win.
			if reminder.TaskID != nil {
				if err := u.scheduler.Revoke(tx, *reminder.TaskID); err != nil {
					return err
				}
				reminder.TaskID = nil
			}
			reminder.BeforeMinutes = beforeMinutes
			reminder.AlreadySent = false
		}

		if err := u.scheduleIfNear(tx, reminder, appointment.DateTime); err != nil {
			return err
		}
		return u.reminderRepo.Update(tx, reminder)
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Reminder set for appointment %s: %d minutes before", appointmentID, beforeMinutes)
	return reminder, nil
}

func (u *reminderUsecase) Delete(ctx context.Context, patientID, appointmentID uuid.UUID) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := u.remindableAppointment(tx, patientID, appointmentID); err != nil {
			return err
		}

		reminder, err := u.reminderRepo.FindByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}
		if reminder == nil {
			return ErrNoReminder
		}

		if reminder.TaskID != nil {
			if err := u.scheduler.Revoke(tx, *reminder.TaskID); err != nil {
				return err
			}
		}

		_, err = u.reminderRepo.Delete(tx, reminder.ID)
		return err
	})
}

func (u *reminderUsecase) ScheduleDueSoon(ctx context.Context) error {
	db := u.db.WithContext(ctx)

	reminders, err := u.reminderRepo.FindUnsent(db)
	if err != nil {
		u.log.Errorf("Reminder sweep query failed: %+v", err)
		return err
	}

	for _, reminder := range reminders {
		reminder := reminder
		err := db.Transaction(func(tx *gorm.DB) error {
			if reminder.TaskID != nil {
				if err := u.scheduler.Revoke(tx, *reminder.TaskID); err != nil {
					return err
				}
				reminder.TaskID = nil
			}
			if err := u.scheduleIfNear(tx, &reminder, reminder.Appointment.DateTime); err != nil {
				return err
			}
			if reminder.TaskID == nil {
				return nil
			}
			return u.reminderRepo.Update(tx, &reminder)
		})
		if err != nil {
			u.log.Warnf("Failed to sweep reminder %s: %+v", reminder.ID, err)
		}
	}
	return nil
}

func (u *reminderUsecase) HandleReminder(ctx context.Context, task entity.DelayedTask) error {
	db := u.db.WithContext(ctx)

	reminder, err := u.reminderRepo.FindByAppointment(db, task.AppointmentID)
	if err != nil {
		return err
	}
	if reminder == nil || reminder.AlreadySent {
		return nil
	}
	appointment := reminder.Appointment
	if appointment.Status != entity.AppointmentReserved && appointment.Status != entity.AppointmentConfirmed {
		return nil
	}

	message := "Reminder: your appointment is at " + appointment.DateTime.Format("2006-01-02 15:04")
	if err := u.notifier.Push(ctx, appointment.PatientID, message); err != nil {
		u.log.Warnf("Failed to push reminder for appointment %s: %+v", appointment.ID, err)
	}

	reminder.AlreadySent = true
	return u.reminderRepo.Update(db, reminder)
}

// scheduleIfNear creates the delayed task when the firing time falls within
// the scheduling horizon. The task expires at the appointment itself; a
// reminder firing later than that is pointless.
func (u *reminderUsecase) scheduleIfNear(tx *gorm.DB, reminder *entity.AppointmentReminder, appointmentAt time.Time) error {
	executeAt := reminder.ExecuteAt(appointmentAt)
	now := u.clock.Now()
	if executeAt.Before(now) || executeAt.Sub(now) > reminderScheduleHorizon {
		return nil
	}

	taskID, err := u.scheduler.Schedule(tx, entity.TaskReminder, reminder.AppointmentID, executeAt, &appointmentAt)
	if err != nil {
		return err
	}
	reminder.TaskID = &taskID
	return nil
}

func (u *reminderUsecase) remindableAppointment(tx *gorm.DB, patientID, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil || appointment.PatientID != patientID {
		return nil, &apperr.NotFoundError{Resource: "appointment"}
	}
	if appointment.Status != entity.AppointmentReserved && appointment.Status != entity.AppointmentConfirmed {
		return nil, ErrNotRemindable
	}
	return appointment, nil
}
