package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	DetectorURL    string
	CORSOrigins    string
	JWTSecret      string
	MaxConnections int
	LogLevel       string
	Environment    string

	// Настройки камеры и захвата
	FaceDetectionConfidence float64
	CountdownSeconds        int
	AutoCapture             bool
	DetectionRetryBudget    int

	DBName     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// DSNForLog безопасный вывод DSN без пароля для логирования
func (c *Config) DSNForLog() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=*** dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBSSLMode)
}

func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func LoadConfig() *Config {
	// Загрузка .env файла (если существует)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DetectorURL:    getEnv("DETECTOR_SERVICE_URL", "localhost:9000"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		JWTSecret:      getEnv("JWT_SECRET", "defaultSecretKeyForDevelopmentOnly123456789"),
		MaxConnections: getEnvInt("MAX_CONNECTIONS", 1000),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		Environment:    getEnv("ENVIRONMENT", "production"),

		FaceDetectionConfidence: getEnvFloat("FACE_DETECTION_CONFIDENCE", 0.5),
		CountdownSeconds:        getEnvInt("COUNTDOWN_SECONDS", 3),
		AutoCapture:             getEnvBool("AUTO_CAPTURE", true),
		DetectionRetryBudget:    getEnvInt("DETECTION_RETRY_BUDGET", 3),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "camera_capture"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Проверка обязательных полей
	if cfg.DBPassword == "" {
		fmt.Println("WARNING: DB_PASSWORD is not set!")
	}
	if cfg.JWTSecret == "defaultSecretKeyForDevelopmentOnly123456789" && !cfg.IsDev() {
		fmt.Println("WARNING: JWT_SECRET is using the development default!")
	}
	if cfg.CountdownSeconds <= 0 {
		fmt.Println("WARNING: COUNTDOWN_SECONDS must be positive, using default: 3")
		cfg.CountdownSeconds = 3
	}
	if cfg.FaceDetectionConfidence <= 0 || cfg.FaceDetectionConfidence > 1 {
		fmt.Println("WARNING: FACE_DETECTION_CONFIDENCE out of (0,1], using default: 0.5")
		cfg.FaceDetectionConfidence = 0.5
	}

	return cfg
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if floatVal, err := strconv.ParseFloat(v, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if boolVal, err := strconv.ParseBool(v); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
