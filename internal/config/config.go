package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Crypto   CryptoConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Dispatch DispatchConfig

	// EnvFileLoaded reports whether a .env file was found
	EnvFileLoaded bool
}

// ServerConfig holds HTTP server limits
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql | postgres | sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// AccessTTL returns the access token lifetime
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// RefreshTTL returns the refresh token lifetime
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// CryptoConfig holds the field encryption key material (all base64)
type CryptoConfig struct {
	DataKey   string
	IndexKey  string
	KMSBlob   string
	KMSKeyID  string
	AWSRegion string
}

// KafkaConfig holds the SWIFT outbox topic settings. Empty Brokers
// selects the log-only publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// DispatchConfig holds the SWIFT dispatch and cleanup schedules
type DispatchConfig struct {
	Schedule        string
	BatchSize       int
	CleanupSchedule string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional in production
	envLoaded := godotenv.Load() == nil

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:       appMode,
		Port:          getEnv("PORT", "3000"),
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(appMode),
		JWT:           loadJWTConfig(appMode),
		Cookie:        loadCookieConfig(appMode),
		Crypto:        loadCryptoConfig(appMode),
		Kafka:         loadKafkaConfig(),
		Log:           loadLogConfig(appMode),
		Dispatch:      loadDispatchConfig(),
		EnvFileLoaded: envLoaded,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	AppConfig = config
	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", c.Database.Driver)
	}
	if c.IsProd() && (c.JWT.Secret == defaultJWTSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		return fmt.Errorf("JWT secrets must be set in prod mode")
	}
	if strings.TrimSpace(c.Crypto.DataKey) == "" && strings.TrimSpace(c.Crypto.KMSBlob) == "" {
		return fmt.Errorf("DATA_ENC_KEY (or DATA_ENC_KEY_KMS_BLOB) is required")
	}
	return nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BodyLimit:    getEnvInt("SERVER_BODY_LIMIT", 10*1024),
	}
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(getEnv(prefix+"DB_DRIVER", "mysql"))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "payportal"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
		Path:     getEnv(prefix+"DB_PATH", "payportal.db"),
	}
}

const (
	defaultJWTSecret     = "default_secret"
	defaultRefreshSecret = "default_refresh_secret"
)

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultRefreshSecret),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "strict"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadCryptoConfig(mode string) CryptoConfig {
	prefix := modePrefix(mode)

	return CryptoConfig{
		DataKey:   getEnv(prefix+"DATA_ENC_KEY", getEnv("DATA_ENC_KEY", "")),
		IndexKey:  getEnv(prefix+"DATA_INDEX_KEY", getEnv("DATA_INDEX_KEY", "")),
		KMSBlob:   getEnv("DATA_ENC_KEY_KMS_BLOB", ""),
		KMSKeyID:  getEnv("KMS_KEY_ID", ""),
		AWSRegion: getEnv("AWS_REGION", ""),
	}
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return KafkaConfig{
		Brokers:      brokers,
		Topic:        getEnv("KAFKA_SWIFT_TOPIC", "swift.outbound"),
		WriteTimeout: getEnvDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
	}
}

func loadLogConfig(mode string) LogConfig {
	defaultFormat := "console"
	if mode == "prod" {
		defaultFormat = "json"
	}

	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", defaultFormat),
	}
}

func loadDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Schedule:        getEnv("SWIFT_DISPATCH_SCHEDULE", "@every 30s"),
		BatchSize:       getEnvInt("SWIFT_DISPATCH_BATCH", 50),
		CleanupSchedule: getEnv("TOKEN_CLEANUP_SCHEDULE", "@daily"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://localhost:3000"
	}
	return origins
}
