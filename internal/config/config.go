package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the application settings
type Config struct {
	HTTPAddr string

	DBDriver   string // postgres, sqlite or memory
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite file

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	DefaultDebtCapacity float64

	JWTSecret   string // empty disables auth
	TokenExpiry time.Duration

	Retention     time.Duration // 0 disables the purge job
	RetentionCron string

	ReferenceRateURL    string
	ReferenceRateMargin float64

	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	SMTPInsecure       bool
	EmailSenderEnabled bool

	LogLevel string
}

// LoadConfig reads .env, then an optional CONFIG_FILE, then the environment.
// Environment variables win over file values.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found")
	}

	file := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return nil, err
		}
	}
	get := func(key, defaultValue string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return defaultValue
	}

	var errs []string
	duration := func(key, defaultValue string) time.Duration {
		d, err := time.ParseDuration(get(key, defaultValue))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}
	float := func(key, defaultValue string) float64 {
		f, err := strconv.ParseFloat(get(key, defaultValue), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return f
	}
	integer := func(key, defaultValue string) int {
		n, err := strconv.Atoi(get(key, defaultValue))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return n
	}
	boolean := func(key, defaultValue string) bool {
		b, err := strconv.ParseBool(get(key, defaultValue))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return b
	}

	cfg := &Config{
		HTTPAddr:            get("HTTP_ADDR", ":8080"),
		DBDriver:            strings.ToLower(get("DB_DRIVER", "postgres")),
		DBHost:              get("DB_HOST", "localhost"),
		DBPort:              get("DB_PORT", "5432"),
		DBUser:              get("DB_USER", "postgres"),
		DBPassword:          get("DB_PASSWORD", "postgres"),
		DBName:              get("DB_NAME", "credit_simulator"),
		DBPath:              get("DB_PATH", "credit_simulator.db"),
		RedisAddr:           get("REDIS_ADDR", ""),
		RedisPassword:       get("REDIS_PASSWORD", ""),
		CacheTTL:            duration("CACHE_TTL", "10m"),
		DefaultDebtCapacity: float("DEFAULT_DEBT_CAPACITY", "30"),
		JWTSecret:           get("JWT_SECRET", ""),
		TokenExpiry:         duration("TOKEN_EXPIRY", "24h"),
		Retention:           duration("RETENTION", "0s"),
		RetentionCron:       get("RETENTION_CRON", "0 3 * * *"),
		ReferenceRateURL:    get("REFERENCE_RATE_URL", ""),
		ReferenceRateMargin: float("REFERENCE_RATE_MARGIN", "5"),
		SMTPHost:            get("SMTP_HOST", "smtp.example.com"),
		SMTPPort:            integer("SMTP_PORT", "587"),
		SMTPUser:            get("SMTP_USER", ""),
		SMTPPassword:        get("SMTP_PASSWORD", ""),
		SMTPFrom:            get("SMTP_FROM", ""),
		SMTPInsecure:        boolean("SMTP_INSECURE", "false"),
		EmailSenderEnabled:  boolean("EMAIL_SENDER_ENABLED", "false"),
		LogLevel:            get("LOG_LEVEL", "info"),
	}

	if cfg.DefaultDebtCapacity <= 0 || cfg.DefaultDebtCapacity > 100 {
		errs = append(errs, "DEFAULT_DEBT_CAPACITY: must be in (0, 100]")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// readFile loads flat KEY = value pairs from a .toml or .yaml file.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file %s", path)
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}
