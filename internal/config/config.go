package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultSecret = "default-secret"

var ErrDatabaseURLRequired = errors.New("database_url is required")

type Config struct {
	Debug              bool          `yaml:"debug"`
	Dev                bool          `yaml:"dev"`
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	BaseURL            string        `yaml:"base_url"`
	Secret             string        `yaml:"secret"`
	DatabaseURL        string        `yaml:"database_url"`
	MigrationSource    string        `yaml:"migration_source"`
	OtelCollectorUrl   string        `yaml:"otel_collector_url"`
	AllowOrigins       []string      `yaml:"allow_origins"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	MaxUploadSize      int64         `yaml:"max_upload_size"`
	MaxRequestSize     int64         `yaml:"max_request_size"`
	UploadConcurrency  int           `yaml:"upload_concurrency"`
	ExportTimezone     string        `yaml:"export_timezone"`
	ExportFetchTimeout time.Duration `yaml:"export_fetch_timeout"`
}

// LogBuffer keeps messages produced before the logger exists.
type LogBuffer struct {
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields []zap.Field
}

func NewConfigLogger() *LogBuffer {
	return &LogBuffer{}
}

func (cl *LogBuffer) Info(msg string, fields ...zap.Field) {
	cl.entries = append(cl.entries, logEntry{level: "info", msg: msg, fields: fields})
}

func (cl *LogBuffer) Warn(msg string, fields ...zap.Field) {
	cl.entries = append(cl.entries, logEntry{level: "warn", msg: msg, fields: fields})
}

func (cl *LogBuffer) Error(msg string, fields ...zap.Field) {
	cl.entries = append(cl.entries, logEntry{level: "error", msg: msg, fields: fields})
}

func (cl *LogBuffer) FlushToZap(logger *zap.Logger) {
	for _, e := range cl.entries {
		switch e.level {
		case "warn":
			logger.Warn(e.msg, e.fields...)
		case "error":
			logger.Error(e.msg, e.fields...)
		default:
			logger.Info(e.msg, e.fields...)
		}
	}
	cl.entries = nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	if c.UploadConcurrency < 1 {
		return errors.New("upload_concurrency must be at least 1")
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}

	if c.MaxRequestSize < c.MaxUploadSize {
		return errors.New("max_request_size must not be smaller than max_upload_size")
	}

	if _, err := time.LoadLocation(c.ExportTimezone); err != nil {
		return errors.New("export_timezone is not a known location: " + c.ExportTimezone)
	}

	return nil
}

// Location returns the export time zone. Validate rejects unknown names.
func (c Config) Location() *time.Location {
	location, err := time.LoadLocation(c.ExportTimezone)
	if err != nil {
		return time.UTC
	}
	return location
}

func Default() Config {
	return Config{
		Debug:              false,
		Dev:                false,
		Host:               "localhost",
		Port:               "8080",
		BaseURL:            "http://localhost:8080",
		Secret:             DefaultSecret,
		MigrationSource:    "file://internal/database/migrations",
		AccessTokenTTL:     15 * time.Minute,
		MaxUploadSize:      5 << 20,
		MaxRequestSize:     32 << 20,
		UploadConcurrency:  1,
		ExportTimezone:     "UTC",
		ExportFetchTimeout: 10 * time.Second,
	}
}

// Load builds the configuration from defaults, config.yaml, .env, the
// environment and command-line flags, in that order.
func Load() (Config, *LogBuffer) {
	logger := NewConfigLogger()

	config := Default()

	var err error

	config, err = FromFile("config.yaml", config, logger)
	if err != nil {
		logger.Warn("Failed to load config from file", zap.Error(err), zap.String("path", "config.yaml"))
	}

	config, err = FromEnv(config, logger)
	if err != nil {
		logger.Warn("Failed to load config from env", zap.Error(err))
	}

	config, err = FromFlags(config, os.Args[1:])
	if err != nil {
		logger.Warn("Failed to load config from flags", zap.Error(err))
	}

	return config, logger
}

func FromFile(filePath string, config Config, logger *LogBuffer) (Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		logger.Info("Config file not found, skipping", zap.String("path", filePath))
		return config, nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return config, err
	}

	fileConfig := config
	if err := yaml.Unmarshal(bytes, &fileConfig); err != nil {
		return config, err
	}

	logger.Info("Loaded config from file", zap.String("path", filePath))
	return fileConfig, nil
}

func FromEnv(config Config, logger *LogBuffer) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment", zap.String("error", err.Error()))
	}

	var errs []error

	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}
	setBool := func(key string, target *bool) {
		if v, ok := os.LookupEnv(key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, errors.New(key+": "+err.Error()))
				return
			}
			*target = parsed
		}
	}
	setInt64 := func(key string, target *int64) {
		if v, ok := os.LookupEnv(key); ok {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, errors.New(key+": "+err.Error()))
				return
			}
			*target = parsed
		}
	}
	setDuration := func(key string, target *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, errors.New(key+": "+err.Error()))
				return
			}
			*target = parsed
		}
	}

	setBool("DEBUG", &config.Debug)
	setBool("DEV", &config.Dev)
	setString("HOST", &config.Host)
	setString("PORT", &config.Port)
	setString("BASE_URL", &config.BaseURL)
	setString("SECRET", &config.Secret)
	setString("DATABASE_URL", &config.DatabaseURL)
	setString("MIGRATION_SOURCE", &config.MigrationSource)
	setString("OTEL_COLLECTOR_URL", &config.OtelCollectorUrl)
	setDuration("ACCESS_TOKEN_TTL", &config.AccessTokenTTL)
	setInt64("MAX_UPLOAD_SIZE", &config.MaxUploadSize)
	setInt64("MAX_REQUEST_SIZE", &config.MaxRequestSize)
	setString("EXPORT_TIMEZONE", &config.ExportTimezone)
	setDuration("EXPORT_FETCH_TIMEOUT", &config.ExportFetchTimeout)

	if v, ok := os.LookupEnv("ALLOW_ORIGINS"); ok {
		config.AllowOrigins = splitList(v)
	}

	if v, ok := os.LookupEnv("UPLOAD_CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, errors.New("UPLOAD_CONCURRENCY: "+err.Error()))
		} else {
			config.UploadConcurrency = parsed
		}
	}

	return config, errors.Join(errs...)
}

func FromFlags(config Config, args []string) (Config, error) {
	flagSet := flag.NewFlagSet("form-collector", flag.ContinueOnError)

	var (
		allowOrigins string
		flagConfig   = config
	)

	flagSet.BoolVar(&flagConfig.Debug, "debug", config.Debug, "debug mode")
	flagSet.BoolVar(&flagConfig.Dev, "dev", config.Dev, "development mode")
	flagSet.StringVar(&flagConfig.Host, "host", config.Host, "host")
	flagSet.StringVar(&flagConfig.Port, "port", config.Port, "port")
	flagSet.StringVar(&flagConfig.BaseURL, "base_url", config.BaseURL, "public base url")
	flagSet.StringVar(&flagConfig.Secret, "secret", config.Secret, "jwt signing secret")
	flagSet.StringVar(&flagConfig.DatabaseURL, "database_url", config.DatabaseURL, "database url")
	flagSet.StringVar(&flagConfig.MigrationSource, "migration_source", config.MigrationSource, "migration source")
	flagSet.StringVar(&flagConfig.OtelCollectorUrl, "otel_collector_url", config.OtelCollectorUrl, "OpenTelemetry collector URL")
	flagSet.StringVar(&allowOrigins, "allow_origins", strings.Join(config.AllowOrigins, ","), "comma separated CORS origins")
	flagSet.DurationVar(&flagConfig.AccessTokenTTL, "access_token_ttl", config.AccessTokenTTL, "access token lifetime")
	flagSet.Int64Var(&flagConfig.MaxUploadSize, "max_upload_size", config.MaxUploadSize, "max bytes per uploaded file")
	flagSet.Int64Var(&flagConfig.MaxRequestSize, "max_request_size", config.MaxRequestSize, "max bytes per submission request")
	flagSet.IntVar(&flagConfig.UploadConcurrency, "upload_concurrency", config.UploadConcurrency, "concurrent uploads per submission")
	flagSet.StringVar(&flagConfig.ExportTimezone, "export_timezone", config.ExportTimezone, "time zone for exported timestamps")
	flagSet.DurationVar(&flagConfig.ExportFetchTimeout, "export_fetch_timeout", config.ExportFetchTimeout, "timeout for fetching images during export")

	if err := flagSet.Parse(args); err != nil {
		return config, err
	}

	flagConfig.AllowOrigins = splitList(allowOrigins)

	return flagConfig, nil
}

func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
