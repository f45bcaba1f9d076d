package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	SessionTTL         time.Duration
	PasswordResetTTL   time.Duration
	AllowOrigins       []string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPFrom           string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketAvatars string
	MinIOPublicURL     string
	AvatarMaxDimension int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	smtpPort := 587
	if v, err := strconv.Atoi(getenv("SMTP_PORT", "587")); err == nil && v > 0 {
		smtpPort = v
	}

	avatarMax := 512
	if v, err := strconv.Atoi(getenv("AVATAR_MAX_DIMENSION", "512")); err == nil && v > 0 {
		avatarMax = v
	}

	return Config{
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          must("JWT_SECRET"),
		SessionTTL:         duration(getenv("SESSION_TTL", "24h"), 24*time.Hour),
		PasswordResetTTL:   duration(getenv("PASSWORD_RESET_TTL", "1h"), time.Hour),
		AllowOrigins:       splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		SMTPHost:           getenv("SMTP_HOST", ""),
		SMTPPort:           smtpPort,
		SMTPUsername:       getenv("SMTP_USERNAME", ""),
		SMTPPassword:       getenv("SMTP_PASSWORD", ""),
		SMTPFrom:           getenv("SMTP_FROM", ""),
		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketAvatars: getenv("MINIO_BUCKET_AVATARS", "account-avatars"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		AvatarMaxDimension: avatarMax,
	}
}

func duration(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
