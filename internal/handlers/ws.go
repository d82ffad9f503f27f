package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"CAMERA_CAPTURE/go-backend/internal/config"
	"CAMERA_CAPTURE/go-backend/internal/models"
	"CAMERA_CAPTURE/go-backend/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type wsClient struct {
	conn         *websocket.Conn
	connectionID string
	send         chan interface{}
}

// closeFrame проходит через очередь отправки, чтобы закрытие ушло после
// всех уже поставленных событий
type closeFrame struct {
	code   int
	reason string
}

// WSHandler is the connection multiplexer: it admits WebSocket connections,
// binds each to the one live machine for its session id and pumps messages
// both ways in order.
type WSHandler struct {
	upgrader websocket.Upgrader
	cfg      *config.Config
	tokens   *services.TokenService
	store    services.SessionStore
	detector services.FaceDetector
	registry *services.Registry
	metrics  *services.Metrics

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewWSHandler(cfg *config.Config, tokens *services.TokenService, store services.SessionStore, detector services.FaceDetector, registry *services.Registry) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		cfg:      cfg,
		tokens:   tokens,
		store:    store,
		detector: detector,
		registry: registry,
		metrics:  services.GetMetrics(),
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// HandleCamera serves GET /ws/camera/{session_id}?token=...
func (h *WSHandler) HandleCamera(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	token := r.URL.Query().Get("token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.track(conn)
	defer h.untrack(conn)

	// Сначала проверяем токен, до любой привязки к сеансу
	userID, err := h.tokens.Validate(token)
	if token == "" || err != nil {
		h.closeWith(conn, services.ClosePolicyViolation, "Invalid token")
		return
	}

	session, err := h.store.GetBySessionID(r.Context(), sessionID)
	if errors.Is(err, services.ErrSessionNotFound) {
		h.closeWith(conn, services.CloseSessionNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("session lookup failed for %s: %v", sessionID, err)
		h.closeWith(conn, services.CloseInternalError, "session lookup failed")
		return
	}
	if session.UserID != userID {
		h.closeWith(conn, services.CloseWrongOwner, "session does not belong to user")
		return
	}
	if session.Status != models.SessionStatusActive {
		// Закрытый сеанс никогда не открывается заново
		h.closeWith(conn, services.CloseSessionNotFound, "session expired")
		return
	}

	client := &wsClient{
		conn:         conn,
		connectionID: uuid.NewString(),
		send:         make(chan interface{}, 256),
	}

	machine := services.NewSessionMachine(session, h.detector, h.store, client.enqueue,
		services.WithRetryBudget(h.cfg.DetectionRetryBudget))

	if err := h.registry.Register(machine); err != nil {
		h.closeWith(conn, services.CloseSessionConflict, "session already has a live connection")
		return
	}
	defer h.registry.Remove(machine)

	h.metrics.IncrementWebSocketConnections()
	defer h.metrics.DecrementWebSocketConnections()

	log.Printf("WebSocket connected: %s (session: %s, user: %d)", client.connectionID, sessionID, userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go client.writePump()

	// Приветствие до запуска машины - первое событие в потоке
	client.enqueue(models.ConnectedEvent{
		Type:         models.EvtConnected,
		ConnectionID: client.connectionID,
		SessionID:    sessionID,
		Timestamp:    models.EventTimestamp(),
	})

	go machine.Run(ctx)

	// Если закрытие инициировала машина (end_session, бюджет детектора),
	// отдаём её код закрытия клиенту через общую очередь
	go func() {
		<-machine.Done()
		client.enqueue(closeFrame{code: machine.CloseCode(), reason: machine.CloseReason()})
	}()

	h.readPump(client, machine)

	// Обрыв соединения: гасим машину и ждём, пока она дообработает
	cancel()
	<-machine.Done()

	log.Printf("WebSocket disconnected: %s (session: %s)", client.connectionID, sessionID)
}

// Цикл чтения из WebSocket
func (h *WSHandler) readPump(client *wsClient, machine *services.SessionMachine) {
	defer client.conn.Close()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for %s: %v", client.connectionID, err)
			}
			return
		}
		client.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// ProtocolError: плохой JSON логируем и пропускаем
			log.Printf("invalid JSON from %s: %v", client.connectionID, err)
			h.metrics.IncrementWebSocketErrors()
			continue
		}
		machine.Enqueue(msg)
	}
}

// Цикл отправки в WebSocket
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if frame, ok := msg.(closeFrame); ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(frame.code, frame.reason))
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue ставит событие в очередь отправки, сохраняя порядок эмиссии.
// Очередь переполнена - событие теряется, но машину не блокируем.
func (c *wsClient) enqueue(event interface{}) {
	select {
	case c.send <- event:
	default:
		log.Printf("send buffer full for %s, dropping event", c.connectionID)
	}
}

func (h *WSHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
	conn.Close()
}

func (h *WSHandler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *WSHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

// CloseAll выгоняет всех клиентов при остановке сервера
func (h *WSHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(services.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
}
