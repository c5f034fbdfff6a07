package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the tracker service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	PollInterval  time.Duration
	SessionTTL    time.Duration
	OperatorEmail string
	OperatorHash  string
	IntakeBaseURL string
	IntakeAPIKey  string
	IntakeModel   string
}

// Load parses configuration values from the current process environment.
//
// Optional fields receive defaults; required values are validated together so
// one error reports every missing or invalid entry at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:trainings.db?_foreign_keys=on",
		PollInterval: time.Minute,
		SessionTTL:   24 * time.Hour,
		IntakeModel:  "doc-analysis-v1",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("TRAININGS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TRAININGS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("TRAININGS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if intervalValue := strings.TrimSpace(os.Getenv("TRAININGS_POLL_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "TRAININGS_POLL_INTERVAL")
		} else {
			cfg.PollInterval = interval
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("TRAININGS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TRAININGS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if email := strings.TrimSpace(os.Getenv("TRAININGS_OPERATOR_EMAIL")); email == "" {
		missing = append(missing, "TRAININGS_OPERATOR_EMAIL")
	} else {
		cfg.OperatorEmail = email
	}

	if hash := strings.TrimSpace(os.Getenv("TRAININGS_OPERATOR_PASSWORD_HASH")); hash == "" {
		missing = append(missing, "TRAININGS_OPERATOR_PASSWORD_HASH")
	} else {
		cfg.OperatorHash = hash
	}

	if baseURL := strings.TrimSpace(os.Getenv("TRAININGS_INTAKE_BASE_URL")); baseURL == "" {
		missing = append(missing, "TRAININGS_INTAKE_BASE_URL")
	} else {
		cfg.IntakeBaseURL = baseURL
	}

	cfg.IntakeAPIKey = strings.TrimSpace(os.Getenv("TRAININGS_INTAKE_API_KEY"))

	if model := strings.TrimSpace(os.Getenv("TRAININGS_INTAKE_MODEL")); model != "" {
		cfg.IntakeModel = model
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variables d'environnement requises manquantes : %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs d'environnement invalides : %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
