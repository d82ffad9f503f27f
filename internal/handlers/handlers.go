package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"CAMERA_CAPTURE/go-backend/internal/config"
	"CAMERA_CAPTURE/go-backend/internal/database"
	"CAMERA_CAPTURE/go-backend/internal/models"
	"CAMERA_CAPTURE/go-backend/internal/services"
)

type Handlers struct {
	cfg       *config.Config
	store     *database.Store
	tokens    *services.TokenService
	registry  *services.Registry
	detector  services.FaceDetector
	startTime time.Time
}

func NewHandlers(cfg *config.Config, store *database.Store, tokens *services.TokenService, registry *services.Registry, detector services.FaceDetector) *Handlers {
	return &Handlers{
		cfg:       cfg,
		store:     store,
		tokens:    tokens,
		registry:  registry,
		detector:  detector,
		startTime: time.Now(),
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) bool {
	return emailRegex.MatchString(email) && len(email) <= 255
}

func validatePassword(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}
	hasLetter := false
	hasNumber := false
	for _, char := range password {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') {
			hasLetter = true
		}
		if char >= '0' && char <= '9' {
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateUsername(username string) bool {
	if len(username) < 3 || len(username) > 30 {
		return false
	}
	return usernameRegex.MatchString(username)
}

var validDeviceTypes = map[string]bool{"web": true, "mobile": true, "tablet": true}

// getUserID достаёт id пользователя из заголовка Authorization
func (h *Handlers) getUserID(r *http.Request) (int, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	userID, err := h.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (h *Handlers) enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.cfg.CORSOrigins)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		http.Error(w, "All fields are required", http.StatusBadRequest)
		return
	}
	if !validateEmail(req.Email) {
		http.Error(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if !validatePassword(req.Password) {
		http.Error(w, "Password must be 8-72 characters with at least one letter and one number", http.StatusBadRequest)
		return
	}
	if !validateUsername(req.Username) {
		http.Error(w, "Username must be 3-30 characters, alphanumeric and underscore only", http.StatusBadRequest)
		return
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("Password hashing error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := h.store.CreateUser(ctx, req.Email, req.Username, passwordHash)
	if err != nil {
		log.Printf("Registration failed: %v", err)
		errMsg := err.Error()
		if strings.Contains(errMsg, "users_username_key") {
			http.Error(w, "Username already taken", http.StatusConflict)
		} else if strings.Contains(errMsg, "users_email_key") {
			http.Error(w, "Email already registered", http.StatusConflict)
		} else {
			http.Error(w, "User already exists", http.StatusConflict)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
	log.Printf("User registered: %s", req.Email)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err == sql.ErrNoRows {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	} else if err != nil {
		log.Printf("Login error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		log.Printf("Token generation error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(models.LoginResponse{Token: token, User: *user})
	log.Printf("User logged in: %s", req.Email)
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := h.store.GetUserByID(ctx, userID)
	if err == sql.ErrNoRows {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("GetCurrentUser error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(user)
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !validDeviceTypes[req.DeviceType] {
		http.Error(w, "device_type must be web, mobile or tablet", http.StatusBadRequest)
		return
	}

	// Конфигурация фиксируется при создании; переопределения опциональны
	sessionCfg := models.SessionConfig{
		FaceDetectionConfidence: h.cfg.FaceDetectionConfidence,
		CountdownSeconds:        h.cfg.CountdownSeconds,
		AutoCapture:             h.cfg.AutoCapture,
	}
	if req.FaceDetectionConfidence != nil {
		if *req.FaceDetectionConfidence <= 0 || *req.FaceDetectionConfidence > 1 {
			http.Error(w, "face_detection_confidence must be in (0,1]", http.StatusBadRequest)
			return
		}
		sessionCfg.FaceDetectionConfidence = *req.FaceDetectionConfidence
	}
	if req.CountdownSeconds != nil {
		if *req.CountdownSeconds <= 0 {
			http.Error(w, "countdown_seconds must be positive", http.StatusBadRequest)
			return
		}
		sessionCfg.CountdownSeconds = *req.CountdownSeconds
	}
	if req.AutoCapture != nil {
		sessionCfg.AutoCapture = *req.AutoCapture
	}

	session := &models.CameraSession{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		DeviceType: req.DeviceType,
		Status:     models.SessionStatusActive,
		Config:     sessionCfg,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.store.CreateSession(ctx, session); err != nil {
		log.Printf("CreateSession error: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
	log.Printf("Session created: %s for user %d", session.SessionID, userID)
}

func (h *Handlers) GetSessions(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	sessions, err := h.store.ListSessionsByUser(ctx, userID)
	if err != nil {
		http.Error(w, "Failed to fetch sessions", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(sessions)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, status := h.lookupOwnedSession(r, userID)
	if session == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	json.NewEncoder(w).Encode(session)
}

func (h *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, status := h.lookupOwnedSession(r, userID)
	if session == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	// Живую машину просим закрыться самостоятельно; статус она
	// зафиксирует при завершении
	if machine, ok := h.registry.Get(session.SessionID); ok {
		machine.Enqueue(models.ClientMessage{Type: models.MsgEndSession})
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.store.UpdateStatus(ctx, session.SessionID, models.SessionStatusCompleted); err != nil {
			log.Printf("Failed to end session: %v", err)
			http.Error(w, "Failed to end session", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ended"}`))
	log.Printf("Session ended: %s", session.SessionID)
}

func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.getUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, status := h.lookupOwnedSession(r, userID)
	if session == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if _, live := h.registry.Get(session.SessionID); live {
		http.Error(w, "Session has a live connection", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.store.DeleteSession(ctx, session.SessionID, userID); err != nil {
		log.Printf("Failed to delete session: %v", err)
		http.Error(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"deleted"}`))
	log.Printf("Session deleted: %s", session.SessionID)
}

// lookupOwnedSession находит сеанс из ?id= и проверяет владельца
func (h *Handlers) lookupOwnedSession(r *http.Request, userID int) (*models.CameraSession, int) {
	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		return nil, http.StatusBadRequest
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	session, err := h.store.GetBySessionID(ctx, sessionID)
	if errors.Is(err, services.ErrSessionNotFound) {
		return nil, http.StatusNotFound
	}
	if err != nil {
		log.Printf("Failed to fetch session %s: %v", sessionID, err)
		return nil, http.StatusInternalServerError
	}
	if session.UserID != userID {
		return nil, http.StatusForbidden
	}
	return session, http.StatusOK
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	detectorUp := false
	if d, ok := h.detector.(*services.GRPCDetector); ok {
		detectorUp = d.HealthCheck()
	} else if h.detector != nil {
		detectorUp = true
	}

	json.NewEncoder(w).Encode(models.HealthStatus{
		Status:          "healthy",
		DetectorService: detectorUp,
		ActiveSessions:  h.registry.Count(),
		Timestamp:       time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := services.GetMetrics().Snapshot()
	snapshot["active_sessions"] = h.registry.Count()
	snapshot["system_uptime_sec"] = int(time.Since(h.startTime).Seconds())
	snapshot["timestamp"] = time.Now().Format(time.RFC3339)

	json.NewEncoder(w).Encode(snapshot)
}
