package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"go-clinic-negotiation/internal/domain/entity"

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

func seedApprovedClinic(t *testing.T, db *gorm.DB, name string, lat, lon float64, treatments []entity.Treatment) entity.Clinic {
	t.Helper()
	admin := seedUser(t, db, entity.RoleIDClinicAdmin, name+"-admin@example.com")
	clinic := entity.Clinic{
		AdminID:    admin.ID,
		Name:       name,
		Status:     entity.ClinicApproved,
		Latitude:   lat,
		Longitude:  lon,
		Treatments: treatments,
	}
	if err := db.Create(&clinic).Error; err != nil {
		t.Fatalf("failed to seed clinic %s: %v", name, err)
	}
	return clinic
}

func seedTreatment(t *testing.T, db *gorm.DB, name string, minutes int) entity.Treatment {
	t.Helper()
	treatment := entity.Treatment{Name: name, DurationMinutes: minutes}
	if err := db.Create(&treatment).Error; err != nil {
		t.Fatalf("failed to seed treatment %s: %v", name, err)
	}
	return treatment
}

// fakePresence is a static online-admin set.
type fakePresence struct {
	online map[uuid.UUID]struct{}
}

func (p *fakePresence) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	p.online[userID] = struct{}{}
	return nil
}

func (p *fakePresence) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	delete(p.online, userID)
	return nil
}

func (p *fakePresence) OnlineAdmins(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	return p.online, nil
}
