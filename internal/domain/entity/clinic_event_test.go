package entity

import "testing"

func TestClinicEventAcceptOnlyFromActive(t *testing.T) {
	e := &ClinicEvent{Status: ClinicEventActive}
	if err := e.SetAccepted(); err != nil {
		t.Fatalf("SetAccepted from active failed: %v", err)
	}
	if e.Status != ClinicEventAccepted {
		t.Fatalf("expected accepted, got %s", e.Status)
	}

	for _, status := range []ClinicEventStatus{
		ClinicEventAccepted,
		ClinicEventSuggested,
		ClinicEventRejected,
		ClinicEventInactive,
		ClinicEventRejectedSuggestions,
	} {
		e := &ClinicEvent{Status: status}
		if err := e.SetAccepted(); err == nil {
			t.Fatalf("SetAccepted from %s should fail", status)
		}
	}
}

func TestClinicEventSuggestAndRejectSuggestions(t *testing.T) {
	e := &ClinicEvent{Status: ClinicEventActive}
	if err := e.SetSuggested(); err != nil {
		t.Fatalf("SetSuggested failed: %v", err)
	}
	if err := e.SetRejectedSuggestions(); err != nil {
		t.Fatalf("SetRejectedSuggestions from suggested failed: %v", err)
	}
	if e.Status != ClinicEventRejectedSuggestions {
		t.Fatalf("expected rejected_suggestions, got %s", e.Status)
	}

	e2 := &ClinicEvent{Status: ClinicEventActive}
	if err := e2.SetRejectedSuggestions(); err == nil {
		t.Fatal("SetRejectedSuggestions from active should fail")
	}
}

func TestClinicEventForcedTransitions(t *testing.T) {
	e := &ClinicEvent{Status: ClinicEventAccepted}
	e.SetInactive()
	if e.Status != ClinicEventInactive {
		t.Fatalf("expected inactive, got %s", e.Status)
	}
	// idempotent
	e.SetInactive()
	if e.Status != ClinicEventInactive {
		t.Fatalf("expected inactive, got %s", e.Status)
	}

	e.SetActive()
	if e.Status != ClinicEventActive {
		t.Fatalf("expected active after reactivation, got %s", e.Status)
	}
}

func TestClinicEventIsSettled(t *testing.T) {
	settled := map[ClinicEventStatus]bool{
		ClinicEventActive:              false,
		ClinicEventAccepted:            false,
		ClinicEventSuggested:           false,
		ClinicEventRejected:            true,
		ClinicEventInactive:            true,
		ClinicEventRejectedSuggestions: true,
	}
	for status, want := range settled {
		e := &ClinicEvent{Status: status}
		if got := e.IsSettled(); got != want {
			t.Fatalf("IsSettled(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestStatusSetsArePartition(t *testing.T) {
	all := map[ClinicEventStatus]struct{}{}
	for _, s := range PreWinStatuses() {
		all[s] = struct{}{}
	}
	for _, s := range SettledStatuses() {
		if _, dup := all[s]; dup {
			t.Fatalf("status %s in both pre-win and settled sets", s)
		}
		all[s] = struct{}{}
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 statuses covered, got %d", len(all))
	}
}
