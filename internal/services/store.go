package services

import (
	"context"

	"CAMERA_CAPTURE/go-backend/internal/models"
)

// SessionStore is the persistence collaborator the real-time path needs.
// It is deliberately narrow: the machine only reads a session at bind time
// and writes its final status at teardown.
type SessionStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.CameraSession, error)
	UpdateStatus(ctx context.Context, sessionID, status string) error
}
