package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"CAMERA_CAPTURE/go-backend/internal/models"
)

func registryMachine(sessionID string) *SessionMachine {
	session := &models.CameraSession{
		SessionID: sessionID,
		Status:    models.SessionStatusActive,
		Config:    models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3},
	}
	return NewSessionMachine(session, &StubDetector{}, nil, nil)
}

func TestRegistryRejectsDuplicateSession(t *testing.T) {
	r := NewRegistry()

	first := registryMachine("sess-1")
	if err := r.Register(first); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	second := registryMachine("sess-1")
	if err := r.Register(second); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("duplicate Register = %v, want ErrSessionActive", err)
	}

	// Первая машина всё ещё числится в реестре
	got, ok := r.Get("sess-1")
	if !ok || got != first {
		t.Fatal("duplicate Register displaced the first machine")
	}
}

// Remove снимает запись только если она всё ещё указывает на ту же машину:
// запоздавший teardown не должен выбить преемника
func TestRegistryRemoveIgnoresStaleMachine(t *testing.T) {
	r := NewRegistry()

	old := registryMachine("sess-1")
	if err := r.Register(old); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.Remove(old)

	successor := registryMachine("sess-1")
	if err := r.Register(successor); err != nil {
		t.Fatalf("Register successor: %v", err)
	}

	// teardown старой машины приходит с опозданием
	r.Remove(old)

	got, ok := r.Get("sess-1")
	if !ok || got != successor {
		t.Fatal("stale Remove evicted the successor machine")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestRegistryConcurrentDistinctSessions(t *testing.T) {
	r := NewRegistry()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- r.Register(registryMachine(fmt.Sprintf("sess-%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Register: %v", err)
		}
	}
	if r.Count() != n {
		t.Errorf("Count = %d, want %d", r.Count(), n)
	}
}

func TestRegistryRemoveFreesSessionID(t *testing.T) {
	r := NewRegistry()

	first := registryMachine("sess-1")
	if err := r.Register(first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.Remove(first)

	if _, ok := r.Get("sess-1"); ok {
		t.Fatal("Get found machine after Remove")
	}
	if err := r.Register(registryMachine("sess-1")); err != nil {
		t.Fatalf("re-Register after Remove: %v", err)
	}
}
