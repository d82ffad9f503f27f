package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CAMERA_CAPTURE/go-backend/internal/models"
	"CAMERA_CAPTURE/go-backend/internal/services"
)

// Store wraps the camera-session and user tables. Satisfies
// services.SessionStore for the real-time path.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	user := &models.User{Email: email, Username: username}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		email, username, passwordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Username, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.CameraSession) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO camera_sessions
		 (session_id, user_id, device_type, status, face_detection_confidence, countdown_seconds, auto_capture)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		session.SessionID, session.UserID, session.DeviceType, session.Status,
		session.Config.FaceDetectionConfidence, session.Config.CountdownSeconds, session.Config.AutoCapture,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*models.CameraSession, error) {
	var session models.CameraSession
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, device_type, status,
		        face_detection_confidence, countdown_seconds, auto_capture,
		        created_at, updated_at
		 FROM camera_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&session.ID, &session.SessionID, &session.UserID, &session.DeviceType, &session.Status,
		&session.Config.FaceDetectionConfidence, &session.Config.CountdownSeconds, &session.Config.AutoCapture,
		&session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, services.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &session, nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID int) ([]models.CameraSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, device_type, status,
		        face_detection_confidence, countdown_seconds, auto_capture,
		        created_at, updated_at
		 FROM camera_sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.CameraSession
	for rows.Next() {
		var session models.CameraSession
		if err := rows.Scan(&session.ID, &session.SessionID, &session.UserID, &session.DeviceType, &session.Status,
			&session.Config.FaceDetectionConfidence, &session.Config.CountdownSeconds, &session.Config.AutoCapture,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, sessionID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE camera_sessions SET status = $1, updated_at = $2 WHERE session_id = $3`,
		status, time.Now(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return services.ErrSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string, userID int) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM camera_sessions WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return services.ErrSessionNotFound
	}
	return nil
}
