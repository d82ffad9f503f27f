package services

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"CAMERA_CAPTURE/go-backend/internal/models"
)

type detectorFunc func(ctx context.Context, image []byte) (*models.DetectionResult, error)

func (f detectorFunc) Detect(ctx context.Context, image []byte) (*models.DetectionResult, error) {
	return f(ctx, image)
}

// scriptedDetector отдаёт заранее подготовленные результаты по одному на кадр
func scriptedDetector(results ...*models.DetectionResult) detectorFunc {
	i := 0
	return func(ctx context.Context, image []byte) (*models.DetectionResult, error) {
		if i >= len(results) {
			return &models.DetectionResult{Detected: true, FaceCount: 1, Confidence: 0.9}, nil
		}
		r := results[i]
		i++
		return r, nil
	}
}

type fakeStore struct {
	mu       sync.Mutex
	statuses map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: make(map[string]string)}
}

func (s *fakeStore) GetBySessionID(ctx context.Context, sessionID string) (*models.CameraSession, error) {
	return nil, ErrSessionNotFound
}

func (s *fakeStore) UpdateStatus(ctx context.Context, sessionID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[sessionID] = status
	return nil
}

func (s *fakeStore) status(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[sessionID]
}

func newTestMachine(t *testing.T, cfg models.SessionConfig, detector FaceDetector, store SessionStore) (*SessionMachine, chan interface{}) {
	t.Helper()
	events := make(chan interface{}, 128)
	session := &models.CameraSession{
		SessionID: "test-session",
		UserID:    1,
		Status:    models.SessionStatusActive,
		Config:    cfg,
	}
	m := NewSessionMachine(session, detector, store, func(ev interface{}) { events <- ev },
		WithTickInterval(40*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-m.Done()
	})
	go m.Run(ctx)
	return m, events
}

func testFrame() models.ClientMessage {
	return models.ClientMessage{
		Type:  models.MsgFaceDetection,
		Image: base64.StdEncoding.EncodeToString([]byte("fake frame")),
	}
}

// nextEvent требует, чтобы СЛЕДУЮЩЕЕ событие имело нужный тип
func nextEvent[T any](t *testing.T, events <-chan interface{}) T {
	t.Helper()
	select {
	case ev := <-events:
		typed, ok := ev.(T)
		if !ok {
			t.Fatalf("unexpected event %T: %+v", ev, ev)
		}
		return typed
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

// awaitEvent пропускает промежуточные события (например тики отсчёта)
func awaitEvent[T any](t *testing.T, events <-chan interface{}) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
		}
	}
}

func assertSilence(t *testing.T, events <-chan interface{}, d time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		if _, ok := ev.(models.CountdownTickEvent); ok {
			return // тики допустимы
		}
		t.Fatalf("unexpected event %T: %+v", ev, ev)
	case <-time.After(d):
	}
}

func countCaptures(t *testing.T, events <-chan interface{}, window time.Duration) int {
	t.Helper()
	captures := 0
	deadline := time.After(window)
	for {
		select {
		case ev := <-events:
			if _, ok := ev.(models.CaptureCommandEvent); ok {
				captures++
			}
		case <-deadline:
			return captures
		}
	}
}

func TestPingPongNoTransition(t *testing.T) {
	m, events := newTestMachine(t, models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgPing})
	nextEvent[models.PongEvent](t, events)

	if got := m.State(); got != models.StateIdle {
		t.Errorf("ping changed state to %s", got)
	}
}

// Сценарий из общего прогона: готов -> отсчёт -> лицо потеряли -> отмена ->
// снова готов -> отсчёт дорабатывает -> ровно одна команда съёмки
func TestAutoCaptureScenario(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3, AutoCapture: true}
	detector := scriptedDetector(
		&models.DetectionResult{Detected: true, FaceCount: 1, Confidence: 0.9},
		&models.DetectionResult{Detected: false, FaceCount: 0, Confidence: 0},
		&models.DetectionResult{Detected: true, FaceCount: 1, Confidence: 0.95},
	)
	m, events := newTestMachine(t, cfg, detector, nil)

	// Кадр 1: готовность -> авто-отсчёт
	m.Enqueue(testFrame())
	result := nextEvent[models.FaceDetectionResultEvent](t, events)
	if !result.ReadyForCapture {
		t.Fatalf("frame 1 not ready: %+v", result)
	}
	started := nextEvent[models.CountdownStartedEvent](t, events)
	if started.Duration != 3 || !started.Auto {
		t.Errorf("countdown_started = %+v, want duration 3 auto true", started)
	}
	if got := m.State(); got != models.StateCountingDown {
		t.Fatalf("state = %s, want counting_down", got)
	}

	// Кадр 2: лицо пропало во время отсчёта
	m.Enqueue(testFrame())
	lost := awaitEvent[models.FaceDetectionResultEvent](t, events)
	if lost.ReadyForCapture {
		t.Fatal("frame 2 must not be ready")
	}
	cancelled := awaitEvent[models.CountdownCancelledEvent](t, events)
	if cancelled.Reason != "lost face" {
		t.Errorf("cancel reason = %q, want \"lost face\"", cancelled.Reason)
	}
	if got := m.State(); got != models.StateDetecting {
		t.Fatalf("state = %s, want detecting", got)
	}

	// Кадр 3: снова готовы, отсчёт дорабатывает до конца
	m.Enqueue(testFrame())
	awaitEvent[models.CountdownStartedEvent](t, events)
	capture := awaitEvent[models.CaptureCommandEvent](t, events)
	if !capture.Auto {
		t.Error("capture_command auto = false, want true")
	}
	if got := m.State(); got != models.StateCaptured {
		t.Fatalf("state = %s, want captured", got)
	}

	// Больше команд съёмки быть не должно
	if extra := countCaptures(t, events, 200*time.Millisecond); extra != 0 {
		t.Fatalf("got %d extra capture commands", extra)
	}
}

func TestStartCountdownRestartsActiveOne(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 2, AutoCapture: false}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgStartCountdown, Duration: 2})
	nextEvent[models.CountdownStartedEvent](t, events)

	m.Enqueue(models.ClientMessage{Type: models.MsgStartCountdown, Duration: 2})
	cancelled := awaitEvent[models.CountdownCancelledEvent](t, events)
	if cancelled.Reason != "restarted" {
		t.Errorf("cancel reason = %q, want \"restarted\"", cancelled.Reason)
	}
	awaitEvent[models.CountdownStartedEvent](t, events)

	// Два запуска, но первый отменён - значит ровно одна съёмка
	if captures := countCaptures(t, events, 500*time.Millisecond); captures != 1 {
		t.Fatalf("got %d capture commands, want exactly 1", captures)
	}
}

func TestStartCountdownBadDurationUsesDefault(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 4, AutoCapture: false}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgStartCountdown, Duration: -5})
	started := nextEvent[models.CountdownStartedEvent](t, events)
	if started.Duration != 4 {
		t.Errorf("duration = %d, want session default 4", started.Duration)
	}
	if started.Auto {
		t.Error("manual countdown flagged as auto")
	}
}

func TestStopCountdown(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 5, AutoCapture: false}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgStartCountdown})
	nextEvent[models.CountdownStartedEvent](t, events)

	m.Enqueue(models.ClientMessage{Type: models.MsgStopCountdown})
	cancelled := awaitEvent[models.CountdownCancelledEvent](t, events)
	if cancelled.Reason != "client request" {
		t.Errorf("cancel reason = %q, want \"client request\"", cancelled.Reason)
	}
	if got := m.State(); got != models.StateDetecting {
		t.Fatalf("state = %s, want detecting", got)
	}
	if captures := countCaptures(t, events, 300*time.Millisecond); captures != 0 {
		t.Fatal("cancelled countdown still fired")
	}
}

func TestDecodeErrorStaysInDetecting(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgFaceDetection, Image: "!!!not-base64!!!"})
	result := nextEvent[models.FaceDetectionResultEvent](t, events)
	if result.Detected {
		t.Error("decode failure reported as detected")
	}
	if result.Feedback == "" {
		t.Error("decode failure must carry diagnostic feedback")
	}
	if got := m.State(); got != models.StateDetecting {
		t.Fatalf("state = %s, want detecting", got)
	}

	// Следующий нормальный кадр обрабатывается как обычно
	m.Enqueue(testFrame())
	nextEvent[models.FaceDetectionResultEvent](t, events)
}

func TestDetectorFailureBudgetClosesSession(t *testing.T) {
	failing := detectorFunc(func(ctx context.Context, image []byte) (*models.DetectionResult, error) {
		return nil, ErrDetection
	})
	store := newFakeStore()
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}
	m, events := newTestMachine(t, cfg, failing, store)

	for i := 0; i < 3; i++ {
		m.Enqueue(testFrame())
	}

	// Первые две ошибки не фатальны
	nextEvent[models.ErrorEvent](t, events)
	nextEvent[models.ErrorEvent](t, events)

	closed := awaitEvent[models.SessionClosedEvent](t, events)
	if closed.Reason != "face detector unavailable" {
		t.Errorf("close reason = %q", closed.Reason)
	}

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("machine did not stop after exhausting retry budget")
	}
	if m.CloseCode() != CloseInternalError {
		t.Errorf("close code = %d, want %d", m.CloseCode(), CloseInternalError)
	}
	if got := store.status("test-session"); got != models.SessionStatusFailed {
		t.Errorf("persisted status = %q, want failed", got)
	}
}

func TestManualCaptureAndRetake(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: models.MsgCaptureReady})
	capture := nextEvent[models.CaptureCommandEvent](t, events)
	if capture.Auto {
		t.Error("manual capture flagged as auto")
	}
	if got := m.State(); got != models.StateCaptured {
		t.Fatalf("state = %s, want captured", got)
	}

	// Кадры в Captured игнорируются до retake
	m.Enqueue(testFrame())
	assertSilence(t, events, 150*time.Millisecond)

	m.Enqueue(models.ClientMessage{Type: models.MsgRetake})
	m.Enqueue(testFrame())
	nextEvent[models.FaceDetectionResultEvent](t, events)
	if got := m.State(); got == models.StateCaptured {
		t.Fatal("retake did not leave captured state")
	}
}

func TestEndSessionClosesAndPersists(t *testing.T) {
	store := newFakeStore()
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}
	m, events := newTestMachine(t, cfg, scriptedDetector(), store)

	m.Enqueue(models.ClientMessage{Type: models.MsgEndSession})

	closed := awaitEvent[models.SessionClosedEvent](t, events)
	if closed.Reason != "client ended session" {
		t.Errorf("close reason = %q", closed.Reason)
	}

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("machine did not stop after end_session")
	}
	if m.CloseCode() != CloseNormal {
		t.Errorf("close code = %d, want %d", m.CloseCode(), CloseNormal)
	}
	if got := store.status("test-session"); got != models.SessionStatusCompleted {
		t.Errorf("persisted status = %q, want completed", got)
	}
}

func TestUnknownMessageIgnored(t *testing.T) {
	cfg := models.SessionConfig{FaceDetectionConfidence: 0.5, CountdownSeconds: 3}
	m, events := newTestMachine(t, cfg, scriptedDetector(), nil)

	m.Enqueue(models.ClientMessage{Type: "bogus"})
	assertSilence(t, events, 150*time.Millisecond)

	if got := m.State(); got != models.StateIdle {
		t.Errorf("unknown message changed state to %s", got)
	}
}
