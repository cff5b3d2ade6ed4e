package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path to the directory served at /static/.
	// Set via STATIC_DIR (relative paths are resolved against the process working directory at startup).
	StaticDir string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	// SQLiteLogStatements routes every statement through the logging connector at debug level.
	SQLiteLogStatements bool

	SessionTTL time.Duration
	DraftTTL   time.Duration

	// SummarySchedule is the UTC wall-clock time ("HH:MM") at which yesterday's
	// daily summaries are computed. Empty disables the job.
	SummarySchedule string

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// LoadDotEnv loads variables from path (default ".env") without overriding the
// ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := getenvDefault("HTTP_ADDR", ":8080")

	staticDir, err := filepath.Abs(getenvDefault("STATIC_DIR", "static"))
	if err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", os.Getenv("STATIC_DIR"), err)
	}

	maxOpenConns, err := getenvInt("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := getenvInt("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := getenvDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logStatements, err := getenvBool("DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	sessionTTL, err := getenvDuration("SESSION_TTL", "15m")
	if err != nil {
		return Config{}, err
	}
	if sessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %v", sessionTTL)
	}
	draftTTL, err := getenvDuration("DRAFT_TTL", "3h")
	if err != nil {
		return Config{}, err
	}
	if draftTTL <= 0 {
		return Config{}, fmt.Errorf("DRAFT_TTL must be positive, got %v", draftTTL)
	}

	summarySchedule := strings.TrimSpace(os.Getenv("SUMMARY_SCHEDULE"))
	if _, set := os.LookupEnv("SUMMARY_SCHEDULE"); !set {
		summarySchedule = "00:30"
	}
	if summarySchedule != "" {
		if _, err := time.Parse("15:04", summarySchedule); err != nil {
			return Config{}, fmt.Errorf("invalid SUMMARY_SCHEDULE %q (expected HH:MM)", summarySchedule)
		}
	}

	mqttEnabled, err := getenvBool("MQTT_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := getenvInt("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		StaticDir:             staticDir,
		SQLiteDriver:          getenvDefault("DB_DRIVER", "sqlite3"),
		SQLiteDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:            getenvDefault("SQLITE_PATH", "../dev/sqlite/app.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogStatements:   logStatements,
		SessionTTL:            sessionTTL,
		DraftTTL:              draftTTL,
		SummarySchedule:       summarySchedule,
		MQTTEnabled:           mqttEnabled,
		MQTTBroker:            getenvDefault("MQTT_BROKER", "localhost"),
		MQTTPort:              mqttPort,
		MQTTClientID:          getenvDefault("MQTT_CLIENT_ID", "stationdesk-server"),
		MQTTTopic:             getenvDefault("MQTT_TOPIC", "stationdesk/telemetry"),
	}, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key, def string) (int, error) {
	s := getenvDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func getenvBool(key, def string) (bool, error) {
	s := getenvDefault(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
