package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	OCR        OCRConfig
	Extractor  ExtractorConfig
	CORS       CORSConfig
	Upload     UploadConfig
	Validation ValidationConfig
	Email      EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig holds Google Document AI settings.
type OCRConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	Location    string `mapstructure:"location"`
	ProcessorID string `mapstructure:"processor_id"`
	AccessToken string `mapstructure:"access_token"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds Groq LLM extraction settings.
type ExtractorConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxRetries  int    `mapstructure:"max_retries"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig holds invoice upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxBatchSize  int   `mapstructure:"max_batch_size"`
}

// ValidationConfig holds tax-consistency tolerances.
type ValidationConfig struct {
	TotalTolerance float64 `mapstructure:"total_tolerance"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// Load reads configuration from environment variables with the INVOSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoscan")
	v.SetDefault("db.password", "invoscan_secret")
	v.SetDefault("db.name", "invoscan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "invoscan")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "invoscan-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// OCR defaults
	v.SetDefault("ocr.project_id", "")
	v.SetDefault("ocr.location", "us")
	v.SetDefault("ocr.processor_id", "")
	v.SetDefault("ocr.access_token", "")
	v.SetDefault("ocr.timeout_secs", 60)

	// Extractor defaults
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "llama-3.3-70b-versatile")
	v.SetDefault("extractor.max_retries", 2)
	v.SetDefault("extractor.timeout_secs", 60)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.max_batch_size", 10)

	// Validation defaults
	v.SetDefault("validation.total_tolerance", 0.50)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@invoscan.in")
	v.SetDefault("email.from_name", "InvoScan")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "INVOSCAN_SERVER_PORT",
		"server.read_timeout":         "INVOSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "INVOSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":          "INVOSCAN_SERVER_ENVIRONMENT",
		"db.host":                     "INVOSCAN_DB_HOST",
		"db.port":                     "INVOSCAN_DB_PORT",
		"db.user":                     "INVOSCAN_DB_USER",
		"db.password":                 "INVOSCAN_DB_PASSWORD",
		"db.name":                     "INVOSCAN_DB_NAME",
		"db.sslmode":                  "INVOSCAN_DB_SSLMODE",
		"db.max_open":                 "INVOSCAN_DB_MAX_OPEN",
		"db.max_idle":                 "INVOSCAN_DB_MAX_IDLE",
		"jwt.secret":                  "INVOSCAN_JWT_SECRET",
		"jwt.access_expiry":           "INVOSCAN_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":          "INVOSCAN_JWT_REFRESH_EXPIRY",
		"jwt.issuer":                  "INVOSCAN_JWT_ISSUER",
		"s3.region":                   "INVOSCAN_S3_REGION",
		"s3.bucket":                   "INVOSCAN_S3_BUCKET",
		"s3.endpoint":                 "INVOSCAN_S3_ENDPOINT",
		"s3.access_key":               "INVOSCAN_S3_ACCESS_KEY",
		"s3.secret_key":               "INVOSCAN_S3_SECRET_KEY",
		"s3.presign_expiry":           "INVOSCAN_S3_PRESIGN_EXPIRY",
		"log.level":                   "INVOSCAN_LOG_LEVEL",
		"log.format":                  "INVOSCAN_LOG_FORMAT",
		"ocr.project_id":              "INVOSCAN_OCR_PROJECT_ID",
		"ocr.location":                "INVOSCAN_OCR_LOCATION",
		"ocr.processor_id":            "INVOSCAN_OCR_PROCESSOR_ID",
		"ocr.access_token":            "INVOSCAN_OCR_ACCESS_TOKEN",
		"ocr.timeout_secs":            "INVOSCAN_OCR_TIMEOUT_SECS",
		"extractor.api_key":           "INVOSCAN_EXTRACTOR_API_KEY",
		"extractor.model":             "INVOSCAN_EXTRACTOR_MODEL",
		"extractor.max_retries":       "INVOSCAN_EXTRACTOR_MAX_RETRIES",
		"extractor.timeout_secs":      "INVOSCAN_EXTRACTOR_TIMEOUT_SECS",
		"cors.allowed_origins":        "INVOSCAN_CORS_ALLOWED_ORIGINS",
		"upload.max_file_size_mb":     "INVOSCAN_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_batch_size":       "INVOSCAN_UPLOAD_MAX_BATCH_SIZE",
		"validation.total_tolerance":  "INVOSCAN_VALIDATION_TOTAL_TOLERANCE",
		"email.provider":              "INVOSCAN_EMAIL_PROVIDER",
		"email.region":                "INVOSCAN_EMAIL_REGION",
		"email.from_address":          "INVOSCAN_EMAIL_FROM_ADDRESS",
		"email.from_name":             "INVOSCAN_EMAIL_FROM_NAME",
		"email.frontend_url":          "INVOSCAN_EMAIL_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOSCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.OCR = OCRConfig{
		ProjectID:   v.GetString("ocr.project_id"),
		Location:    v.GetString("ocr.location"),
		ProcessorID: v.GetString("ocr.processor_id"),
		AccessToken: v.GetString("ocr.access_token"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}
	cfg.Extractor = ExtractorConfig{
		APIKey:      v.GetString("extractor.api_key"),
		Model:       v.GetString("extractor.model"),
		MaxRetries:  v.GetInt("extractor.max_retries"),
		TimeoutSecs: v.GetInt("extractor.timeout_secs"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxBatchSize:  v.GetInt("upload.max_batch_size"),
	}
	cfg.Validation = ValidationConfig{
		TotalTolerance: v.GetFloat64("validation.total_tolerance"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}
