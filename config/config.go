package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP       HTTPConfig
	GRPC       GRPCConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Password   PasswordConfig
	Redis      RedisConfig
	LoginLimit LoginLimitConfig
	Log        LogConfig
}

type HTTPConfig struct {
	Host           string
	Port           string
	CORSOrigin     string
	RequestTimeout time.Duration
	BodyLimit      string
	CookieSecure   bool
}

type GRPCConfig struct {
	Host   string
	Port   string
	APIKey string
}

type DatabaseConfig struct {
	URI         string
	Name        string
	AutoMigrate bool
}

type JWTConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoginLimitConfig is a token bucket per login email. Rate is in tokens per second.
type LoginLimitConfig struct {
	Rate  float64
	Burst float64
}

type LogConfig struct {
	Level  string
	Format string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	accessSecret := os.Getenv("ACCESS_TOKEN_SECRET")
	if accessSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET environment variable is required")
	}

	refreshSecret := os.Getenv("REFRESH_TOKEN_SECRET")
	if refreshSecret == "" {
		return nil, errors.New("REFRESH_TOKEN_SECRET environment variable is required")
	}
	if refreshSecret == accessSecret {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	databaseURI := strings.TrimSpace(os.Getenv("DATABASE_URI"))
	if databaseURI == "" {
		return nil, errors.New("DATABASE_URI environment variable is required")
	}

	corsOrigin := strings.TrimSpace(getEnv("CORS_ORIGIN", "http://localhost:3000"))
	if corsOrigin == "*" {
		return nil, errors.New("CORS_ORIGIN must name a concrete origin when cookies carry the session")
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Host:           getEnv("HTTP_HOST", ""),
			Port:           getEnv("PORT", "8000"),
			CORSOrigin:     corsOrigin,
			RequestTimeout: time.Duration(getIntEnv("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
			BodyLimit:      getEnv("BODY_LIMIT", "16K"),
			CookieSecure:   getBoolEnv("COOKIE_SECURE", true),
		},
		GRPC: GRPCConfig{
			Host:   getEnv("GRPC_HOST", ""),
			Port:   getEnv("GRPC_PORT", "9090"),
			APIKey: strings.TrimSpace(os.Getenv("INTERNAL_API_KEY")),
		},
		Database: DatabaseConfig{
			URI:         databaseURI,
			Name:        getEnv("DATABASE_NAME", "posts"),
			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			AccessTokenSecret:  accessSecret,
			RefreshTokenSecret: refreshSecret,
			AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Password: PasswordConfig{
			Policy: loadPasswordPolicy(),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		LoginLimit: LoginLimitConfig{
			Rate:  getFloatEnv("LOGIN_RATE", 0.2),
			Burst: getFloatEnv("LOGIN_BURST", 5),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if _, err := cfg.DSN(); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URI: %w", err)
	}

	return cfg, nil
}

// DSN joins DATABASE_URI and DATABASE_NAME into a go-sql-driver DSN.
// parseTime is always enabled so DATETIME columns scan into time.Time, and
// clientFoundRows makes RowsAffected count matched rows on UPDATE.
func (c *Config) DSN() (string, error) {
	uri := strings.TrimSuffix(c.Database.URI, "/")
	dsnCfg, err := mysql.ParseDSN(uri + "/")
	if err != nil {
		return "", err
	}
	dsnCfg.DBName = c.Database.Name
	dsnCfg.ParseTime = true
	dsnCfg.ClientFoundRows = true
	return dsnCfg.FormatDSN(), nil
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) GRPCEnabled() bool {
	return c.GRPC.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}
