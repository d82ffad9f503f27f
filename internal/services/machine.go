package services

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"CAMERA_CAPTURE/go-backend/internal/models"
)

const (
	inboxSize = 64
	tickQueue = 4
)

// SessionMachine владеет жизненным циклом одного сеанса съёмки.
// Все переходы выполняются строго последовательно в горутине Run;
// снаружи в машину можно только класть сообщения через Enqueue.
type SessionMachine struct {
	session  *models.CameraSession
	detector FaceDetector
	store    SessionStore
	metrics  *Metrics
	sink     func(event interface{})

	inbox  chan models.ClientMessage
	tickCh chan timerEvent
	fireCh chan timerEvent
	done   chan struct{}

	tickInterval time.Duration

	// Поля ниже трогает только горутина Run
	state          models.SessionState
	lastDetection  *models.DetectionResult
	countdown      *Countdown
	countdownGen   uint64
	countdownAuto  bool
	detectFailures int
	retryBudget    int

	mu          sync.Mutex
	closeCode   int
	closeReason string
}

type MachineOption func(*SessionMachine)

// WithTickInterval shrinks the countdown second for tests.
func WithTickInterval(d time.Duration) MachineOption {
	return func(m *SessionMachine) { m.tickInterval = d }
}

func WithRetryBudget(n int) MachineOption {
	return func(m *SessionMachine) {
		if n > 0 {
			m.retryBudget = n
		}
	}
}

func NewSessionMachine(session *models.CameraSession, detector FaceDetector, store SessionStore, sink func(event interface{}), opts ...MachineOption) *SessionMachine {
	m := &SessionMachine{
		session:      session,
		detector:     detector,
		store:        store,
		metrics:      GetMetrics(),
		sink:         sink,
		inbox:        make(chan models.ClientMessage, inboxSize),
		tickCh:       make(chan timerEvent, tickQueue),
		fireCh:       make(chan timerEvent, 1),
		done:         make(chan struct{}),
		tickInterval: time.Second,
		state:        models.StateIdle,
		retryBudget:  3,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionMachine) SessionID() string {
	return m.session.SessionID
}

func (m *SessionMachine) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done closes when Run has finished and the close code/reason are final.
func (m *SessionMachine) Done() <-chan struct{} {
	return m.done
}

func (m *SessionMachine) CloseCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCode
}

func (m *SessionMachine) CloseReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeReason
}

// Enqueue routes an inbound client message into the machine. Non-blocking:
// a client flooding frames faster than detection runs loses the excess.
func (m *SessionMachine) Enqueue(msg models.ClientMessage) {
	select {
	case m.inbox <- msg:
	default:
		log.Printf("session %s: inbox full, dropping %q", m.session.SessionID, msg.Type)
		m.metrics.IncrementWebSocketErrors()
	}
}

// Run drives the session until it closes. Exactly one Run per session id
// exists at any time (enforced by the Registry).
func (m *SessionMachine) Run(ctx context.Context) {
	defer m.finish()

	for {
		if m.State() == models.StateClosed {
			return
		}
		select {
		case <-ctx.Done():
			m.close(CloseNormal, "connection closed")
		case msg := <-m.inbox:
			m.handleMessage(ctx, msg)
		case ev := <-m.fireCh:
			m.handleTimer(ev)
		case ev := <-m.tickCh:
			m.handleTimer(ev)
		}
	}
}

func (m *SessionMachine) handleMessage(ctx context.Context, msg models.ClientMessage) {
	m.metrics.IncrementWebSocketMessages()

	// Пинг отвечаем из любого незакрытого состояния, без переходов
	if msg.Type == models.MsgPing {
		m.emit(models.PongEvent{Type: models.EvtPong, Timestamp: models.EventTimestamp()})
		return
	}

	switch msg.Type {
	case models.MsgFaceDetection:
		m.handleFaceDetection(ctx, msg)
	case models.MsgStartCountdown:
		m.handleStartCountdown(msg)
	case models.MsgStopCountdown:
		m.handleStopCountdown()
	case models.MsgCaptureReady:
		m.handleCaptureReady()
	case models.MsgRetake:
		m.handleRetake()
	case models.MsgEndSession:
		m.close(CloseNormal, "client ended session")
	default:
		// ProtocolError: логируем и игнорируем, сеанс не трогаем
		log.Printf("session %s: unknown message type %q ignored", m.session.SessionID, msg.Type)
	}
}

func (m *SessionMachine) handleFaceDetection(ctx context.Context, msg models.ClientMessage) {
	switch m.state {
	case models.StateIdle:
		m.setState(models.StateDetecting)
	case models.StateDetecting, models.StateCountingDown:
	default:
		log.Printf("session %s: face_detection in state %s ignored", m.session.SessionID, m.state)
		return
	}

	image, err := decodeImagePayload(msg.Image)
	if err != nil {
		m.reportDecodeFailure("invalid image data: not valid base64")
		return
	}

	// Детекция выполняется прямо в цикле машины: пока она идёт, новые
	// сообщения копятся в inbox и никогда не перемешиваются с переходом
	start := time.Now()
	result, err := m.detector.Detect(ctx, image)
	if err != nil {
		m.handleDetectError(err)
		return
	}
	m.metrics.IncrementFrames()
	m.metrics.RecordLatency(time.Since(start))
	m.detectFailures = 0
	m.lastDetection = result

	verdict := EvaluateCapture(result, m.session.Config)
	m.emit(models.FaceDetectionResultEvent{
		Type:            models.EvtFaceDetectionResult,
		SessionID:       m.session.SessionID,
		Detected:        result.Detected,
		Confidence:      result.Confidence,
		FaceCount:       result.FaceCount,
		ReadyForCapture: verdict.ReadyForCapture,
		Feedback:        verdict.Feedback,
		Timestamp:       models.EventTimestamp(),
	})

	switch {
	case m.state == models.StateCountingDown && !verdict.ReadyForCapture:
		// Лицо потеряли во время отсчёта - отменяем до того, как таймер
		// успеет выстрелить по устаревшей готовности
		m.cancelCountdown("lost face", true)
		m.setState(models.StateDetecting)
	case m.state == models.StateDetecting && verdict.ReadyForCapture && m.session.Config.AutoCapture:
		m.armCountdown(m.session.Config.CountdownSeconds, true)
	}
}

func (m *SessionMachine) handleDetectError(err error) {
	if errors.Is(err, ErrDecode) {
		m.reportDecodeFailure("invalid image data: could not decode frame")
		return
	}

	m.metrics.IncrementDetectErrors()
	m.detectFailures++
	log.Printf("session %s: detector failure %d/%d: %v",
		m.session.SessionID, m.detectFailures, m.retryBudget, err)

	if m.detectFailures >= m.retryBudget {
		m.close(CloseInternalError, "face detector unavailable")
		return
	}
	m.emit(models.ErrorEvent{
		Type:      models.EvtError,
		Message:   "face detection failed, retrying on next frame",
		Timestamp: models.EventTimestamp(),
	})
}

// Декод-ошибка не фатальна: сообщаем как результат без лица и остаёмся
// в Detecting. Бюджет повторов она не расходует.
func (m *SessionMachine) reportDecodeFailure(feedback string) {
	m.metrics.IncrementDecodeErrors()
	m.emit(models.FaceDetectionResultEvent{
		Type:      models.EvtFaceDetectionResult,
		SessionID: m.session.SessionID,
		Detected:  false,
		Feedback:  feedback,
		Timestamp: models.EventTimestamp(),
	})
	if m.state == models.StateCountingDown {
		m.cancelCountdown("lost face", true)
		m.setState(models.StateDetecting)
	}
}

func (m *SessionMachine) handleStartCountdown(msg models.ClientMessage) {
	switch m.state {
	case models.StateIdle, models.StateDetecting, models.StateCountingDown:
	default:
		log.Printf("session %s: start_countdown in state %s ignored", m.session.SessionID, m.state)
		return
	}

	duration := msg.Duration
	if duration <= 0 {
		if msg.Duration < 0 {
			log.Printf("session %s: non-positive countdown duration %d, using default %d",
				m.session.SessionID, msg.Duration, m.session.Config.CountdownSeconds)
		}
		duration = m.session.Config.CountdownSeconds
	}

	if m.state == models.StateCountingDown {
		m.cancelCountdown("restarted", true)
	}
	m.armCountdown(duration, false)
}

func (m *SessionMachine) handleStopCountdown() {
	if m.state != models.StateCountingDown {
		log.Printf("session %s: stop_countdown in state %s ignored", m.session.SessionID, m.state)
		return
	}
	m.cancelCountdown("client request", true)
	m.setState(models.StateDetecting)
}

// capture_ready - ручной спуск затвора без отсчёта
func (m *SessionMachine) handleCaptureReady() {
	switch m.state {
	case models.StateIdle, models.StateDetecting, models.StateCountingDown:
	default:
		log.Printf("session %s: capture_ready in state %s ignored", m.session.SessionID, m.state)
		return
	}
	if m.state == models.StateCountingDown {
		m.cancelCountdown("superseded by manual capture", false)
	}
	m.emitCapture(false)
}

func (m *SessionMachine) handleRetake() {
	if m.state != models.StateCaptured {
		log.Printf("session %s: retake in state %s ignored", m.session.SessionID, m.state)
		return
	}
	m.lastDetection = nil
	m.setState(models.StateDetecting)
}

func (m *SessionMachine) handleTimer(ev timerEvent) {
	// Устаревшее поколение - отсчёт уже отменён или заменён
	if ev.Gen != m.countdownGen || m.state != models.StateCountingDown {
		return
	}

	switch ev.Kind {
	case timerTick:
		m.emit(models.CountdownTickEvent{
			Type:      models.EvtCountdownTick,
			SessionID: m.session.SessionID,
			Remaining: ev.Remaining,
			Timestamp: models.EventTimestamp(),
		})
	case timerFired:
		m.countdown = nil
		m.emitCapture(m.countdownAuto)
	}
}

// armCountdown cancels any predecessor first; no two timers ever race to
// fire for the same session.
func (m *SessionMachine) armCountdown(seconds int, auto bool) {
	if m.countdown != nil {
		m.countdown.Cancel()
	}
	m.drainTimers()

	m.countdownGen++
	m.countdownAuto = auto
	m.countdown = startCountdown(m.countdownGen, seconds, m.tickInterval, m.tickCh, m.fireCh)
	m.setState(models.StateCountingDown)
	m.metrics.IncrementCountdownsStarted()

	m.emit(models.CountdownStartedEvent{
		Type:      models.EvtCountdownStarted,
		SessionID: m.session.SessionID,
		Duration:  seconds,
		Auto:      auto,
		Timestamp: models.EventTimestamp(),
	})
}

func (m *SessionMachine) cancelCountdown(reason string, announce bool) {
	if m.countdown == nil {
		return
	}
	m.countdown.Cancel()
	m.countdown = nil
	m.drainTimers()
	m.metrics.IncrementCountdownsCancelled()

	if announce {
		m.emit(models.CountdownCancelledEvent{
			Type:      models.EvtCountdownCancelled,
			SessionID: m.session.SessionID,
			Reason:    reason,
			Timestamp: models.EventTimestamp(),
		})
	}
}

func (m *SessionMachine) drainTimers() {
	for {
		select {
		case <-m.tickCh:
		case <-m.fireCh:
		default:
			return
		}
	}
}

func (m *SessionMachine) emitCapture(auto bool) {
	m.setState(models.StateCaptured)
	m.metrics.IncrementCaptures(auto)
	m.emit(models.CaptureCommandEvent{
		Type:      models.EvtCaptureCommand,
		SessionID: m.session.SessionID,
		Auto:      auto,
		Timestamp: models.EventTimestamp(),
	})
}

func (m *SessionMachine) close(code int, reason string) {
	m.mu.Lock()
	if m.state == models.StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = models.StateClosed
	m.closeCode = code
	m.closeReason = reason
	m.mu.Unlock()
	m.session.UpdatedAt = time.Now()
}

func (m *SessionMachine) setState(s models.SessionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.session.UpdatedAt = time.Now()
}

// finish runs once Run unwinds: kill the countdown, announce the close,
// persist the final status off the hot path.
func (m *SessionMachine) finish() {
	if m.countdown != nil {
		m.countdown.Cancel()
		m.countdown = nil
	}

	code, reason := m.CloseCode(), m.CloseReason()
	m.emit(models.SessionClosedEvent{
		Type:      models.EvtSessionClosed,
		SessionID: m.session.SessionID,
		Reason:    reason,
		Timestamp: models.EventTimestamp(),
	})

	if m.store != nil {
		status := models.SessionStatusCompleted
		if code == CloseInternalError {
			status = models.SessionStatusFailed
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.UpdateStatus(ctx, m.session.SessionID, status); err != nil {
			log.Printf("session %s: failed to persist final status: %v", m.session.SessionID, err)
		}
	}

	log.Printf("session %s closed: code=%d reason=%q", m.session.SessionID, code, reason)
	close(m.done)
}

func (m *SessionMachine) emit(event interface{}) {
	if m.sink != nil {
		m.sink(event)
	}
}

// decodeImagePayload понимает и голый base64, и data-URL с префиксом
func decodeImagePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrDecode
	}
	if idx := strings.IndexByte(payload, ','); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrDecode
	}
	return data, nil
}
