package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BackendURL = "http://localhost:8080"
	WSURL      = "ws://localhost:8080"
	TestEmail  = "test@example.com"
	TestPass   = "Test123456"
)

// Проверка состояния
func testHealth() error {
	fmt.Println("\n[TEST] Testing /api/health...")
	resp, err := http.Get(BackendURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✓ Health check: %s\n", string(body))
	return nil
}

// проверка регистрации
func testRegister() error {
	fmt.Println("\n[TEST] Testing /api/auth/register...")

	data := map[string]string{
		"email":    TestEmail,
		"username": "testuser",
		"password": TestPass,
	}

	jsonData, _ := json.Marshal(data)
	resp, err := http.Post(BackendURL+"/api/auth/register", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("registration failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated {
		fmt.Printf("✓ Registration successful: %s\n", string(body))
		return nil
	} else if resp.StatusCode == http.StatusConflict {
		fmt.Printf("⚠ User already exists (this is OK)\n")
		return nil
	}

	return fmt.Errorf("registration failed: status %d, body: %s", resp.StatusCode, string(body))
}

// Проверка логина
func testLogin() (string, error) {
	fmt.Println("\n[TEST] Testing /api/auth/login...")

	data := map[string]string{
		"email":    TestEmail,
		"password": TestPass,
	}

	jsonData, _ := json.Marshal(data)
	resp, err := http.Post(BackendURL+"/api/auth/login", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("login failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil || loginResp.Token == "" {
		return "", fmt.Errorf("no token in login response: %s", string(body))
	}

	fmt.Printf("✓ Login successful, token received\n")
	return loginResp.Token, nil
}

// Создание сеанса съёмки
func testCreateSession(token string) (string, error) {
	fmt.Println("\n[TEST] Testing /api/sessions...")

	data := map[string]interface{}{
		"device_type":       "web",
		"countdown_seconds": 3,
		"auto_capture":      true,
	}

	jsonData, _ := json.Marshal(data)
	req, _ := http.NewRequest("POST", BackendURL+"/api/sessions", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session creation failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("session creation failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var session struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("bad session response: %s", string(body))
	}

	fmt.Printf("✓ Session created: %s\n", session.SessionID)
	return session.SessionID, nil
}

// Прогон протокола захвата по WebSocket
func testCaptureFlow(token, sessionID string) error {
	fmt.Println("\n[TEST] Testing WebSocket capture flow...")

	url := fmt.Sprintf("%s/ws/camera/%s?token=%s", WSURL, sessionID, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	events := make(chan map[string]interface{}, 32)
	go func() {
		defer close(events)
		for {
			var event map[string]interface{}
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			events <- event
		}
	}()

	frame := base64.StdEncoding.EncodeToString([]byte("fake jpeg frame data"))

	conn.WriteJSON(map[string]interface{}{"type": "ping"})
	conn.WriteJSON(map[string]interface{}{"type": "face_detection", "image": frame})
	conn.WriteJSON(map[string]interface{}{"type": "start_countdown", "duration": 2})

	// Читаем события, пока не придёт capture_command
	deadline := time.After(15 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("connection closed before capture_command")
			}
			fmt.Printf("  <- %v\n", event)
			if event["type"] == "capture_command" {
				fmt.Println("✓ Capture command received")
				conn.WriteJSON(map[string]interface{}{"type": "end_session"})
				time.Sleep(500 * time.Millisecond)
				return nil
			}
		case <-deadline:
			return fmt.Errorf("timed out waiting for capture_command")
		}
	}
}

func main() {
	log.SetFlags(0)
	fmt.Println("=== Camera Capture Backend test client ===")

	if err := testHealth(); err != nil {
		log.Fatalf("✗ %v", err)
	}
	if err := testRegister(); err != nil {
		log.Fatalf("✗ %v", err)
	}

	token, err := testLogin()
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	sessionID, err := testCreateSession(token)
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	if err := testCaptureFlow(token, sessionID); err != nil {
		log.Fatalf("✗ %v", err)
	}

	fmt.Println("\nAll tests passed!")
	os.Exit(0)
}
