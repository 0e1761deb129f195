package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reminderFixture struct {
	db       *gorm.DB
	uc       ReminderUsecase
	notifier *fakeNotifier
	now      time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	db := newTestDB(t)
	log := testLogger()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.Fixed{T: now}

	notifier := &fakeNotifier{}
	scheduler := service.NewTaskScheduler(db, log, repository.NewDelayedTaskRepository(), clk, time.Second)
	uc := NewReminderUsecase(
		db,
		log,
		repository.NewReminderRepository(),
		repository.NewAppointmentRepository(),
		scheduler,
		notifier,
		clk,
	)
	return &reminderFixture{db: db, uc: uc, notifier: notifier, now: now}
}

func (f *reminderFixture) seedReservedAppointment(t *testing.T, patientID uuid.UUID, at time.Time) entity.Appointment {
	t.Helper()
	appointment := entity.Appointment{
		PatientID: patientID,
		DateTime:  at,
		Status:    entity.AppointmentReserved,
	}
	if err := f.db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return appointment
}

func (f *reminderFixture) task(t *testing.T, id uuid.UUID) entity.DelayedTask {
	t.Helper()
	var task entity.DelayedTask
	if err := f.db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to load task %s: %v", id, err)
	}
	return task
}

func TestReminderUpsertSchedulesNearTask(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	// Appointment in 80 minutes; a 30-minute lead fires in 50, inside the horizon.
	appointment := f.seedReservedAppointment(t, patient.ID, f.now.Add(80*time.Minute))
	ctx := context.Background()

	reminder, err := f.uc.Upsert(ctx, patient.ID, appointment.ID, 30)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if reminder.TaskID == nil {
		t.Fatal("near reminder should get a task immediately")
	}
	task := f.task(t, *reminder.TaskID)
	if !task.ExecuteAt.Equal(appointment.DateTime.Add(-30 * time.Minute)) {
		t.Fatalf("task fires at %v, want 30 minutes before the appointment", task.ExecuteAt)
	}
	if task.ExpiresAt == nil || !task.ExpiresAt.Equal(appointment.DateTime) {
		t.Fatalf("task should expire at the appointment itself, got %+v", task.ExpiresAt)
	}

	// Changing the lead time revokes the old task and schedules a fresh one.
	oldTaskID := *reminder.TaskID
	reminder, err = f.uc.Upsert(ctx, patient.ID, appointment.ID, 60)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if reminder.TaskID == nil || *reminder.TaskID == oldTaskID {
		t.Fatal("reschedule should create a new task")
	}
	if got := f.task(t, oldTaskID).Status; got != entity.DelayedTaskRevoked {
		t.Fatalf("old task status = %s, want revoked", got)
	}
}

func TestReminderUpsertLeavesFarOnesToSweep(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	appointment := f.seedReservedAppointment(t, patient.ID, f.now.Add(48*time.Hour))

	reminder, err := f.uc.Upsert(context.Background(), patient.ID, appointment.ID, 30)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if reminder.TaskID != nil {
		t.Fatal("far reminder must not get a task until the sweep picks it up")
	}
}

func TestReminderSweepSchedulesDueSoon(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	near := f.seedReservedAppointment(t, patient.ID, f.now.Add(70*time.Minute))
	far := f.seedReservedAppointment(t, patient.ID, f.now.Add(48*time.Hour))
	ctx := context.Background()

	// Rows created earlier, before their firing time slid inside the horizon.
	rows := []entity.AppointmentReminder{
		{AppointmentID: near.ID, BeforeMinutes: 30},
		{AppointmentID: far.ID, BeforeMinutes: 30},
	}
	if err := f.db.Create(&rows).Error; err != nil {
		t.Fatalf("failed to seed reminders: %v", err)
	}

	if err := f.uc.ScheduleDueSoon(ctx); err != nil {
		t.Fatalf("ScheduleDueSoon failed: %v", err)
	}

	var nearReminder, farReminder entity.AppointmentReminder
	if err := f.db.First(&nearReminder, "appointment_id = ?", near.ID).Error; err != nil {
		t.Fatalf("failed to reload reminder: %v", err)
	}
	if err := f.db.First(&farReminder, "appointment_id = ?", far.ID).Error; err != nil {
		t.Fatalf("failed to reload reminder: %v", err)
	}
	if nearReminder.TaskID == nil {
		t.Fatal("sweep should schedule the reminder firing within the hour")
	}
	if farReminder.TaskID != nil {
		t.Fatal("sweep must leave far reminders alone")
	}
}

func TestReminderHandleFiresOnceAndGuardsState(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	appointment := f.seedReservedAppointment(t, patient.ID, f.now.Add(80*time.Minute))
	ctx := context.Background()

	if _, err := f.uc.Upsert(ctx, patient.ID, appointment.ID, 30); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	task := entity.DelayedTask{Kind: entity.TaskReminder, AppointmentID: appointment.ID}
	if err := f.uc.HandleReminder(ctx, task); err != nil {
		t.Fatalf("HandleReminder failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 || f.notifier.pushes[0].userID != patient.ID {
		t.Fatalf("patient should get one reminder push, got %+v", f.notifier.pushes)
	}

	// Already sent: firing again is silent.
	if err := f.uc.HandleReminder(ctx, task); err != nil {
		t.Fatalf("HandleReminder failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 {
		t.Fatalf("reminder must fire once, got %d pushes", len(f.notifier.pushes))
	}

	// A reminder on a since-canceled appointment stays quiet too.
	canceled := entity.Appointment{
		PatientID: patient.ID,
		DateTime:  f.now.Add(80 * time.Minute),
		Status:    entity.AppointmentCanceled,
	}
	if err := f.db.Create(&canceled).Error; err != nil {
		t.Fatalf("failed to seed canceled appointment: %v", err)
	}
	row := entity.AppointmentReminder{AppointmentID: canceled.ID, BeforeMinutes: 30}
	if err := f.db.Create(&row).Error; err != nil {
		t.Fatalf("failed to seed reminder: %v", err)
	}
	if err := f.uc.HandleReminder(ctx, entity.DelayedTask{Kind: entity.TaskReminder, AppointmentID: canceled.ID}); err != nil {
		t.Fatalf("HandleReminder failed: %v", err)
	}
	if len(f.notifier.pushes) != 1 {
		t.Fatalf("canceled appointment must not be reminded, got %d pushes", len(f.notifier.pushes))
	}
}

func TestReminderDeleteRevokesTask(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	appointment := f.seedReservedAppointment(t, patient.ID, f.now.Add(80*time.Minute))
	ctx := context.Background()

	if err := f.uc.Delete(ctx, patient.ID, appointment.ID); !errors.Is(err, ErrNoReminder) {
		t.Fatalf("deleting a missing reminder should fail, got %v", err)
	}

	reminder, err := f.uc.Upsert(ctx, patient.ID, appointment.ID, 30)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	taskID := *reminder.TaskID

	if err := f.uc.Delete(ctx, patient.ID, appointment.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := f.task(t, taskID).Status; got != entity.DelayedTaskRevoked {
		t.Fatalf("task status = %s, want revoked", got)
	}

	var count int64
	if err := f.db.Model(&entity.AppointmentReminder{}).Where("appointment_id = ?", appointment.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count reminders: %v", err)
	}
	if count != 0 {
		t.Fatalf("reminder row should be gone, %d remain", count)
	}
}

func TestReminderGuardsAppointmentState(t *testing.T) {
	f := newReminderFixture(t)
	patient := seedUser(t, f.db, entity.RoleIDPatient, "patient@example.com")
	opened := entity.Appointment{
		PatientID: patient.ID,
		DateTime:  f.now.Add(80 * time.Minute),
		Status:    entity.AppointmentOpened,
	}
	if err := f.db.Create(&opened).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}

	if _, err := f.uc.Upsert(context.Background(), patient.ID, opened.ID, 30); !errors.Is(err, ErrNotRemindable) {
		t.Fatalf("reminder on an opened appointment should fail, got %v", err)
	}
}
