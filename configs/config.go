package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

func readEnv() {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

func Config(key string) string {
	readEnv()
	return os.Getenv(key)
}

func configOr(key, fallback string) string {
	if value := strings.TrimSpace(Config(key)); value != "" {
		return value
	}
	return fallback
}

type AppConfig struct {
	Port string

	DBDriver    string
	DatabaseURL string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	RabbitMQURI      string
	RabbitMQExchange string

	CloudinaryURL   string
	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
	FrontendURL     string

	StaleAttemptAfter time.Duration
	SweepSchedule     string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              configOr("PORT", "8080"),
		DBDriver:          strings.ToLower(configOr("DB_DRIVER", "postgres")),
		DatabaseURL:       Config("DATABASE_URL"),
		StoreDriver:       strings.ToLower(configOr("STORE_DRIVER", "gorm")),
		MongoURI:          Config("MONGO_URI"),
		MongoDatabase:     configOr("MONGO_DATABASE", "quizmaster"),
		JWTSecret:         Config("JWT_SECRET"),
		AdminEmail:        Config("ADMIN_EMAIL"),
		AdminPassword:     Config("ADMIN_PASSWORD"),
		AdminFullName:     configOr("ADMIN_FULL_NAME", "Administrator"),
		RabbitMQURI:       Config("RABBITMQ_URI"),
		RabbitMQExchange:  configOr("RABBITMQ_EXCHANGE", "quizmaster.events"),
		CloudinaryURL:     Config("CLOUDINARY_URL"),
		BrevoAPIKey:       Config("BREVO_API_KEY"),
		EmailSender:       Config("EMAIL_SENDER"),
		EmailSenderName:   configOr("EMAIL_SENDER_NAME", "QuizMaster Pro"),
		FrontendURL:       configOr("FRONTEND_URL", "http://localhost:3000"),
		SweepSchedule:     configOr("SWEEP_SCHEDULE", "*/5 * * * *"),
	}

	ttlHours, err := strconv.Atoi(configOr("JWT_TTL_HOURS", "72"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS: %q", Config("JWT_TTL_HOURS"))
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.StaleAttemptAfter, err = time.ParseDuration(configOr("STALE_ATTEMPT_AFTER", "24h"))
	if err != nil || cfg.StaleAttemptAfter <= 0 {
		return nil, fmt.Errorf("invalid STALE_ATTEMPT_AFTER: %q", Config("STALE_ATTEMPT_AFTER"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.StoreDriver {
	case "gorm":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
