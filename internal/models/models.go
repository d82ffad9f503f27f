package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionConfig фиксируется при создании сеанса и больше не меняется
type SessionConfig struct {
	FaceDetectionConfidence float64 `json:"face_detection_confidence"`
	CountdownSeconds        int     `json:"countdown_seconds"`
	AutoCapture             bool    `json:"auto_capture"`
}

type CameraSession struct {
	ID         int           `json:"id"`
	SessionID  string        `json:"session_id"`
	UserID     int           `json:"user_id"`
	DeviceType string        `json:"device_type"`
	Status     string        `json:"status"`
	Config     SessionConfig `json:"config"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Статусы сеанса в БД
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateSessionRequest struct {
	DeviceType string `json:"device_type"`

	// Необязательные переопределения серверных значений
	FaceDetectionConfidence *float64 `json:"face_detection_confidence,omitempty"`
	CountdownSeconds        *int     `json:"countdown_seconds,omitempty"`
	AutoCapture             *bool    `json:"auto_capture,omitempty"`
}
