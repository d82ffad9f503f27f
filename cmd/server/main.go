package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CAMERA_CAPTURE/go-backend/internal/config"
	"CAMERA_CAPTURE/go-backend/internal/database"
	"CAMERA_CAPTURE/go-backend/internal/handlers"
	"CAMERA_CAPTURE/go-backend/internal/services"
)

var httpServer *http.Server

func main() {
	httpPort := flag.String("http-port", "", "HTTP port (overrides HTTP_PORT)")
	detectorURL := flag.String("detector-url", "", "Detector service URL (overrides DETECTOR_SERVICE_URL)")
	flag.Parse()

	cfg := config.LoadConfig()
	if *httpPort != "" {
		cfg.HTTPPort = *httpPort
	}
	if *detectorURL != "" {
		cfg.DetectorURL = *detectorURL
	}

	log.Println("Starting...")
	log.Printf("HTTP port: %s", cfg.HTTPPort)
	log.Printf("Detector service: %s", cfg.DetectorURL)
	log.Printf("Enviroment: %s", cfg.Environment)
	log.Printf("Database: %s", cfg.DSNForLog())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	if err := database.InitDB(cfg.DSN()); err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	defer database.CloseDB()
	store := database.NewStore(database.DB)

	// Подключение к Python-детектору
	var detector services.FaceDetector
	grpcDetector, err := services.NewGRPCDetector(cfg.DetectorURL)
	if err != nil {
		log.Printf("Detector service unavailable: %v", err)
		log.Println("Continuing with stub detector (for testing)")
		detector = services.StubDetector{}
	} else {
		detector = grpcDetector
		defer grpcDetector.Close()
	}

	tokens := services.NewTokenService(cfg.JWTSecret)
	registry := services.NewRegistry()

	api := handlers.NewHandlers(cfg, store, tokens, registry, detector)
	ws := handlers.NewWSHandler(cfg, tokens, store, detector, registry)

	mux := http.NewServeMux()

	mux.HandleFunc("/ws/camera/{session_id}", ws.HandleCamera)

	mux.HandleFunc("/api/auth/register", api.Register)
	mux.HandleFunc("/api/auth/login", api.Login)
	mux.HandleFunc("/api/auth/me", api.GetCurrentUser)
	mux.HandleFunc("/api/sessions", api.CreateSession)
	mux.HandleFunc("/api/sessions/list", api.GetSessions)
	mux.HandleFunc("/api/sessions/get", api.GetSession)
	mux.HandleFunc("/api/sessions/end", api.EndSession)
	mux.HandleFunc("/api/sessions/delete", api.DeleteSession)
	mux.HandleFunc("/api/health", api.Health)
	mux.HandleFunc("/api/metrics", api.Metrics)

	httpServer = &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on port %s", cfg.HTTPPort)
		log.Printf("WebSocket:  ws://localhost:%s/ws/camera/{session_id}", cfg.HTTPPort)
		log.Printf("REST API:   http://localhost:%s/api/*", cfg.HTTPPort)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// Ждём сигнала
	<-done
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	} else {
		log.Println("HTTP server gracefully stopped")
	}

	log.Println("Closing WebSocket connections...")
	ws.CloseAll()
	log.Println("All WebSocket connections closed...")

	log.Println("Goodbye!")
}
