package models

import "time"

type BoundingBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence"`
}

// DetectionResult создаётся заново на каждый кадр и не мутируется
type DetectionResult struct {
	Detected        bool          `json:"detected"`
	FaceCount       int           `json:"face_count"`
	Confidence      float64       `json:"confidence"`
	Faces           []BoundingBox `json:"faces,omitempty"`
	InferenceTimeMs float32       `json:"inference_time_ms,omitempty"`
	Timestamp       int64         `json:"timestamp"`
}

// Runtime state of a session machine. Closed is terminal.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateDetecting    SessionState = "detecting"
	StateCountingDown SessionState = "counting_down"
	StateCaptured     SessionState = "captured"
	StateClosed       SessionState = "closed"
)

// Типы входящих сообщений
const (
	MsgFaceDetection  = "face_detection"
	MsgStartCountdown = "start_countdown"
	MsgStopCountdown  = "stop_countdown"
	MsgCaptureReady   = "capture_ready"
	MsgRetake         = "retake"
	MsgPing           = "ping"
	MsgEndSession     = "end_session"
)

// Типы исходящих событий
const (
	EvtConnected           = "connected"
	EvtFaceDetectionResult = "face_detection_result"
	EvtCountdownStarted    = "countdown_started"
	EvtCountdownTick       = "countdown_tick"
	EvtCountdownCancelled  = "countdown_cancelled"
	EvtCaptureCommand      = "capture_command"
	EvtPong                = "pong"
	EvtError               = "error"
	EvtSessionClosed       = "session_closed"
)

// ClientMessage покрывает все входящие типы; лишние поля игнорируются
type ClientMessage struct {
	Type      string `json:"type"`
	Image     string `json:"image,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type ConnectedEvent struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
	SessionID    string `json:"session_id"`
	Timestamp    string `json:"timestamp"`
}

type FaceDetectionResultEvent struct {
	Type            string  `json:"type"`
	SessionID       string  `json:"session_id"`
	Detected        bool    `json:"detected"`
	Confidence      float64 `json:"confidence"`
	FaceCount       int     `json:"face_count"`
	ReadyForCapture bool    `json:"ready_for_capture"`
	Feedback        string  `json:"feedback"`
	Timestamp       string  `json:"timestamp"`
}

type CountdownStartedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Duration  int    `json:"duration"`
	Auto      bool   `json:"auto"`
	Timestamp string `json:"timestamp"`
}

type CountdownTickEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Remaining int    `json:"remaining"`
	Timestamp string `json:"timestamp"`
}

type CountdownCancelledEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type CaptureCommandEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Auto      bool   `json:"auto"`
	Timestamp string `json:"timestamp"`
}

type PongEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type ErrorEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type SessionClosedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// EventTimestamp единый формат времени для исходящих событий
func EventTimestamp() string {
	return time.Now().Format(time.RFC3339)
}

type HealthStatus struct {
	Status          string `json:"status"`
	DetectorService bool   `json:"detector_service"`
	ActiveSessions  int    `json:"active_sessions"`
	Timestamp       string `json:"timestamp"`
}
