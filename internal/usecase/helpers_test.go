package usecase

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"go-clinic-negotiation/config"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/pkg/clock"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.PatientProfile{},
		&entity.Clinic{},
		&entity.Treatment{},
		&entity.DoctorProfile{},
		&entity.DoctorShift{},
		&entity.Basket{},
		&entity.Appointment{},
		&entity.ClinicEvent{},
		&entity.Suggestion{},
		&entity.AppointmentSchedule{},
		&entity.UserNotification{},
		&entity.DelayedTask{},
		&entity.AppointmentReminder{},
		&entity.AppointmentRating{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	roles := []entity.Role{
		{ID: entity.RoleIDSuperAdmin, RoleName: entity.RoleSuperAdmin},
		{ID: entity.RoleIDClinicAdmin, RoleName: entity.RoleClinicAdmin},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient},
		{ID: entity.RoleIDSupportAdmin, RoleName: entity.RoleSupportAdmin},
	}
	if err := db.Create(&roles).Error; err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedUser(t *testing.T, db *gorm.DB, roleID int, email string) entity.User {
	t.Helper()
	active := true
	user := entity.User{
		RoleID:   roleID,
		Email:    email,
		Password: "secret",
		FullName: email,
		IsActive: &active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func seedClinic(t *testing.T, db *gorm.DB, name string) entity.Clinic {
	t.Helper()
	admin := seedUser(t, db, entity.RoleIDClinicAdmin, name+"-admin@example.com")
	clinic := entity.Clinic{
		AdminID:   admin.ID,
		Name:      name,
		Status:    entity.ClinicApproved,
		Latitude:  -6.2,
		Longitude: 106.8,
	}
	if err := db.Create(&clinic).Error; err != nil {
		t.Fatalf("failed to seed clinic %s: %v", name, err)
	}
	return clinic
}

func seedDoctor(t *testing.T, db *gorm.DB, clinicID uuid.UUID, email string) entity.DoctorProfile {
	t.Helper()
	user := seedUser(t, db, entity.RoleIDDoctor, email)
	doctor := entity.DoctorProfile{
		UserID:         user.ID,
		ClinicID:       &clinicID,
		STRNumber:      "STR-" + user.ID.String()[:8],
		Specialization: "General",
	}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}
	return doctor
}

// sentNotice records one Send call on the fake notifier.
type sentNotice struct {
	userID uuid.UUID
	action string
}

type pushNotice struct {
	userID  uuid.UUID
	message string
}

type fakeNotifier struct {
	sends  []sentNotice
	groups [][]uuid.UUID
	pushes []pushNotice
}

func (n *fakeNotifier) Send(ctx context.Context, userID uuid.UUID, action string, payload any) error {
	n.sends = append(n.sends, sentNotice{userID: userID, action: action})
	return nil
}

func (n *fakeNotifier) SendGroup(ctx context.Context, userIDs []uuid.UUID, action string, payload any) error {
	n.groups = append(n.groups, userIDs)
	return nil
}

func (n *fakeNotifier) Push(ctx context.Context, userID uuid.UUID, message string) error {
	n.pushes = append(n.pushes, pushNotice{userID: userID, message: message})
	return nil
}

func (n *fakeNotifier) sentActions(userID uuid.UUID) []string {
	var actions []string
	for _, s := range n.sends {
		if s.userID == userID {
			actions = append(actions, s.action)
		}
	}
	return actions
}

// negotiationFixture wires the orchestrator against a throwaway database with
// a pinned clock. The default clock sits outside the support window, so admin
// notices go to the clinic admins themselves.
type negotiationFixture struct {
	db       *gorm.DB
	uc       NegotiationUsecase
	notifier *fakeNotifier
	now      time.Time
	cfg      config.NegotiationConfig
}

func newNegotiationFixture(t *testing.T, hour int) *negotiationFixture {
	t.Helper()

	db := newTestDB(t)
	log := testLogger()
	now := time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	clk := clock.Fixed{T: now}

	cfg := config.NegotiationConfig{
		SearchRadiusKm:     10,
		OpenTimeout:        2 * time.Hour,
		OpenTimeoutSupport: 30 * time.Minute,
		SuggestExpiry:      24 * time.Hour,
		ReservedExpiry:     24 * time.Hour,
		SupportWindowFrom:  9,
		SupportWindowTo:    18,
		TaskPollInterval:   time.Second,
	}

	notifier := &fakeNotifier{}
	scheduler := service.NewTaskScheduler(db, log, repository.NewDelayedTaskRepository(), clk, cfg.TaskPollInterval)
	payment := service.NewPaymentService(log, repository.NewBasketRepository(), clk, "")
	window := service.NewSupportWindow(cfg, clk)

	uc := NewNegotiationUsecase(
		db,
		log,
		repository.NewAppointmentRepository(),
		repository.NewClinicEventRepository(),
		repository.NewSuggestionRepository(),
		repository.NewScheduleRepository(),
		repository.NewNotificationRepository(),
		repository.NewUserRepository(),
		window,
		notifier,
		payment,
		scheduler,
		clk,
		cfg,
	)

	return &negotiationFixture{db: db, uc: uc, notifier: notifier, now: now, cfg: cfg}
}

func (f *negotiationFixture) seedAppointment(t *testing.T, patientID uuid.UUID, status entity.AppointmentStatus, at time.Time) entity.Appointment {
	t.Helper()
	appointment := entity.Appointment{
		PatientID: patientID,
		DateTime:  at,
		Status:    status,
	}
	if err := f.db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return appointment
}

func (f *negotiationFixture) event(t *testing.T, appointmentID, clinicID uuid.UUID) entity.ClinicEvent {
	t.Helper()
	var event entity.ClinicEvent
	err := f.db.Where("appointment_id = ? AND clinic_id = ?", appointmentID, clinicID).First(&event).Error
	if err != nil {
		t.Fatalf("failed to load event for clinic %s: %v", clinicID, err)
	}
	return event
}

func (f *negotiationFixture) appointmentStatus(t *testing.T, id uuid.UUID) entity.AppointmentStatus {
	t.Helper()
	var appointment entity.Appointment
	if err := f.db.First(&appointment, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload appointment: %v", err)
	}
	return appointment.Status
}

func (f *negotiationFixture) eventStatus(t *testing.T, id uuid.UUID) entity.ClinicEventStatus {
	t.Helper()
	var event entity.ClinicEvent
	if err := f.db.First(&event, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	return event.Status
}

func (f *negotiationFixture) tasks(t *testing.T, appointmentID uuid.UUID, kind entity.DelayedTaskKind) []entity.DelayedTask {
	t.Helper()
	var tasks []entity.DelayedTask
	err := f.db.Where("appointment_id = ? AND kind = ?", appointmentID, kind).Find(&tasks).Error
	if err != nil {
		t.Fatalf("failed to load tasks: %v", err)
	}
	return tasks
}

func (f *negotiationFixture) notices(t *testing.T, userID uuid.UUID, action string) []entity.UserNotification {
	t.Helper()
	var rows []entity.UserNotification
	err := f.db.Where("user_id = ? AND action = ?", userID, action).Find(&rows).Error
	if err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return rows
}
