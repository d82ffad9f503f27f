package services

import "errors"

var (
	// ErrDecode означает, что кадр не удалось декодировать (ошибка клиента)
	ErrDecode = errors.New("image could not be decoded")

	// ErrDetection означает сбой сервиса детекции (повторяем до бюджета)
	ErrDetection = errors.New("face detection failed")

	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionActive - на сеанс уже навешано живое соединение
	ErrSessionActive = errors.New("session already has a live connection")
)

// WebSocket close codes used by the capture workflow.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
	CloseWrongOwner      = 4003
	CloseSessionNotFound = 4004
	CloseSessionConflict = 4009
)
