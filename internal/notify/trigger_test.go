package notify

import (
	"testing"
	"time"
)

func TestRegistryFiresInInstantOrder(t *testing.T) {
	registry := NewTimerRegistry(8)
	registry.Start()
	defer registry.Stop()

	now := time.Now()
	if err := registry.Register(1, now.Add(80*time.Millisecond), Payload{TaskID: 1}); err != nil {
		t.Fatalf("register later: %v", err)
	}
	if err := registry.Register(2, now.Add(20*time.Millisecond), Payload{TaskID: 2}); err != nil {
		t.Fatalf("register sooner: %v", err)
	}

	first := waitTrigger(t, registry.C(), time.Second)
	second := waitTrigger(t, registry.C(), time.Second)
	if first.ID != 2 || second.ID != 1 {
		t.Fatalf("unexpected order: first=%d second=%d", first.ID, second.ID)
	}
}

func TestRegisterReplacesExistingTrigger(t *testing.T) {
	registry := NewTimerRegistry(8)
	registry.Start()
	defer registry.Stop()

	now := time.Now()
	if err := registry.Register(7, now.Add(time.Hour), Payload{TaskID: 7}); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := registry.Register(7, now.Add(30*time.Millisecond), Payload{TaskID: 7}); err != nil {
		t.Fatalf("register replacement: %v", err)
	}

	fired := waitTrigger(t, registry.C(), time.Second)
	if fired.ID != 7 {
		t.Fatalf("unexpected trigger id %d", fired.ID)
	}
	if registry.Exists(7) {
		t.Fatalf("trigger still armed after firing")
	}

	// The superseded hour-away entry must not produce a second event.
	select {
	case extra := <-registry.C():
		t.Fatalf("superseded trigger fired: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelUnarmsTrigger(t *testing.T) {
	registry := NewTimerRegistry(4)
	registry.Start()
	defer registry.Stop()

	if err := registry.Register(3, time.Now().Add(30*time.Millisecond), Payload{TaskID: 3}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !registry.Exists(3) {
		t.Fatalf("expected trigger to be armed")
	}

	registry.Cancel(3)
	if registry.Exists(3) {
		t.Fatalf("trigger still armed after cancel")
	}

	select {
	case trigger := <-registry.C():
		t.Fatalf("cancelled trigger fired: %+v", trigger)
	case <-time.After(100 * time.Millisecond):
	}

	// Cancelling an unknown id is a no-op.
	registry.Cancel(99)
}

func TestRegisterValidatesTriggerTime(t *testing.T) {
	registry := NewTimerRegistry(1)
	if err := registry.Register(1, time.Time{}, Payload{}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestRegisterAfterStop(t *testing.T) {
	registry := NewTimerRegistry(1)
	registry.Start()
	registry.Stop()
	if err := registry.Register(1, time.Now().Add(time.Second), Payload{}); err != ErrRegistryStopped {
		t.Fatalf("expected ErrRegistryStopped, got %v", err)
	}
}

func waitTrigger(t *testing.T, ch <-chan Trigger, timeout time.Duration) Trigger {
	t.Helper()
	select {
	case trigger := <-ch:
		return trigger
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for trigger")
		return Trigger{}
	}
}
