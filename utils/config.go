package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FlattenLocal  = "local"
	FlattenRemote = "remote"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port           string
	AllowedOrigins []string

	AWSRegion     string
	AWSEndpoint   string
	AWSAccessKey  string
	AWSSecretKey  string
	AWSTimeout    time.Duration
	S3Bucket      string
	ProjectsTable string

	DatabaseURL string
	JWTSecret   string

	PrivilegedEmails []string
	SignatureKey     string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	NotifyEmail  string

	FlattenMode         string
	FlattenURL          string
	FlattenClientID     string
	FlattenClientSecret string
	FlattenTokenURL     string

	ReportRetentionDays int
	RetentionSchedule   string
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		Logger.WithError(err).Warn("could not read .env file")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "9000"),
		AWSRegion:     getEnv("AWS_REGION", "ca-central-1"),
		AWSEndpoint:   os.Getenv("AWS_ENDPOINT"),
		AWSAccessKey:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		ProjectsTable: getEnv("PROJECTS_TABLE", "projects"),

		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		PrivilegedEmails: splitList(os.Getenv("PRIVILEGED_EMAILS")),
		SignatureKey:     getEnv("SIGNATURE_KEY", "assets/signature.png"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		NotifyEmail:  os.Getenv("NOTIFY_EMAIL"),

		FlattenMode:         strings.ToLower(getEnv("FLATTEN_MODE", FlattenLocal)),
		FlattenURL:          os.Getenv("FLATTEN_URL"),
		FlattenClientID:     os.Getenv("FLATTEN_CLIENT_ID"),
		FlattenClientSecret: os.Getenv("FLATTEN_CLIENT_SECRET"),
		FlattenTokenURL:     os.Getenv("FLATTEN_TOKEN_URL"),

		RetentionSchedule: getEnv("REPORT_RETENTION_SCHEDULE", "30 3 * * *"),
	}

	timeout, err := time.ParseDuration(getEnv("AWS_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AWS_TIMEOUT: %w", err)
	}
	cfg.AWSTimeout = timeout

	days, err := strconv.Atoi(getEnv("REPORT_RETENTION_DAYS", "0"))
	if err != nil || days < 0 {
		return nil, fmt.Errorf("invalid REPORT_RETENTION_DAYS: %q", os.Getenv("REPORT_RETENTION_DAYS"))
	}
	cfg.ReportRetentionDays = days

	portInt, err := strconv.Atoi(cfg.Port)
	if err != nil || portInt < 0 || portInt > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}

	switch cfg.FlattenMode {
	case FlattenLocal:
	case FlattenRemote:
		if cfg.FlattenURL == "" {
			return nil, fmt.Errorf("FLATTEN_MODE=remote requires FLATTEN_URL")
		}
	default:
		return nil, fmt.Errorf("invalid FLATTEN_MODE: %q", cfg.FlattenMode)
	}

	return cfg, nil
}

// IsPrivileged reports whether email is on the sign-and-flatten allow list.
func (c *Config) IsPrivileged(email string) bool {
	for _, e := range c.PrivilegedEmails {
		if strings.EqualFold(e, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
