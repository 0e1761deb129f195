package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestAppointmentReserveFromOpened(t *testing.T) {
	clinicID := uuid.New()
	a := &Appointment{Status: AppointmentOpened}

	if err := a.SetReserved(clinicID); err != nil {
		t.Fatalf("SetReserved from opened failed: %v", err)
	}
	if a.Status != AppointmentReserved {
		t.Fatalf("expected status %s, got %s", AppointmentReserved, a.Status)
	}
	if a.ClinicID == nil || *a.ClinicID != clinicID {
		t.Fatalf("expected clinic %s bound, got %v", clinicID, a.ClinicID)
	}
}

func TestAppointmentReserveFromWaiting(t *testing.T) {
	a := &Appointment{Status: AppointmentWaitingForUserDecide}
	if err := a.SetReserved(uuid.New()); err != nil {
		t.Fatalf("SetReserved from waiting_for_user_decide failed: %v", err)
	}
}

func TestAppointmentReserveRejectedStates(t *testing.T) {
	for _, status := range []AppointmentStatus{
		AppointmentReserved,
		AppointmentConfirmed,
		AppointmentCanceled,
		AppointmentTimeOut,
		AppointmentUserRejectSuggestions,
	} {
		a := &Appointment{Status: status}
		if err := a.SetReserved(uuid.New()); err == nil {
			t.Fatalf("SetReserved from %s should fail", status)
		}
	}
}

func TestAppointmentConfirmOnlyFromReserved(t *testing.T) {
	a := &Appointment{Status: AppointmentReserved}
	if err := a.SetConfirmed(); err != nil {
		t.Fatalf("SetConfirmed from reserved failed: %v", err)
	}

	b := &Appointment{Status: AppointmentOpened}
	if err := b.SetConfirmed(); err == nil {
		t.Fatal("SetConfirmed from opened should fail")
	}
}

func TestAppointmentReopenPaths(t *testing.T) {
	for _, status := range []AppointmentStatus{AppointmentTimeOut, AppointmentUserRejectSuggestions} {
		a := &Appointment{Status: status}
		if err := a.SetOpened(); err != nil {
			t.Fatalf("SetOpened from %s failed: %v", status, err)
		}
		if a.Status != AppointmentOpened {
			t.Fatalf("expected opened, got %s", a.Status)
		}
	}

	a := &Appointment{Status: AppointmentReserved}
	if err := a.SetOpened(); err == nil {
		t.Fatal("SetOpened from reserved should fail")
	}
}

func TestAppointmentCancelGuard(t *testing.T) {
	for _, status := range []AppointmentStatus{
		AppointmentOpened,
		AppointmentWaitingForUserDecide,
		AppointmentUserRejectSuggestions,
		AppointmentReserved,
		AppointmentTimeOut,
		AppointmentConfirmed,
	} {
		a := &Appointment{Status: status}
		if err := a.SetCanceled(); err != nil {
			t.Fatalf("SetCanceled from %s failed: %v", status, err)
		}
	}

	a := &Appointment{Status: AppointmentCanceled}
	if err := a.SetCanceled(); err == nil {
		t.Fatal("second SetCanceled should fail")
	}
}

func TestAppointmentTimeoutOnlyFromOpened(t *testing.T) {
	a := &Appointment{Status: AppointmentOpened}
	if err := a.SetTimeOut(); err != nil {
		t.Fatalf("SetTimeOut from opened failed: %v", err)
	}

	b := &Appointment{Status: AppointmentWaitingForUserDecide}
	if err := b.SetTimeOut(); err == nil {
		t.Fatal("SetTimeOut from waiting_for_user_decide should fail")
	}
}

func TestAppointmentIsTerminal(t *testing.T) {
	if !(&Appointment{Status: AppointmentConfirmed}).IsTerminal() {
		t.Fatal("confirmed should be terminal")
	}
	if !(&Appointment{Status: AppointmentCanceled}).IsTerminal() {
		t.Fatal("canceled should be terminal")
	}
	if (&Appointment{Status: AppointmentTimeOut}).IsTerminal() {
		t.Fatal("timeout is not terminal, reopen is allowed")
	}
}

func TestAppointmentHasLocation(t *testing.T) {
	lat, lon := -6.2, 106.8
	if (&Appointment{Latitude: &lat}).HasLocation() {
		t.Fatal("latitude alone is not a location")
	}
	if !(&Appointment{Latitude: &lat, Longitude: &lon}).HasLocation() {
		t.Fatal("expected location present")
	}
}
