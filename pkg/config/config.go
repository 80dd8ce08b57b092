package config

import (
	"divebook/pkg/client"
	"divebook/pkg/logger"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CalendarBaseURL     string
	CalendarAPIKey      string
	CalendarTimeout     time.Duration
	CalendarMaxAttempts int
	CalendarBackoffBase time.Duration
	CalendarBackoffCap  time.Duration
	SnapshotTTL         time.Duration

	DuplicateWaitBudget   time.Duration
	DuplicateWaitInterval time.Duration

	MaxParticipants int

	AnalyticsEnabled bool
	AnalyticsTopic   string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CalendarBaseURL:     getEnvStr(EnvCalendarBaseURL, DefaultCalendarBaseURL),
		CalendarAPIKey:      getEnvStr(EnvCalendarAPIKey, ""),
		CalendarTimeout:     getEnvDuration(EnvCalendarTimeout, DefaultCalendarTimeout),
		CalendarMaxAttempts: getEnvNum(EnvCalendarMaxAttempts, DefaultCalendarMaxAttempts),
		CalendarBackoffBase: getEnvDuration(EnvCalendarBackoffBase, DefaultCalendarBackoffBase),
		CalendarBackoffCap:  getEnvDuration(EnvCalendarBackoffCap, DefaultCalendarBackoffCap),
		SnapshotTTL:         getEnvDuration(EnvSnapshotTTL, DefaultSnapshotTTL),

		DuplicateWaitBudget:   getEnvDuration(EnvDuplicateWaitBudget, DefaultDuplicateWaitBudget),
		DuplicateWaitInterval: getEnvDuration(EnvDuplicateWaitInterval, DefaultDuplicateWaitInterval),

		MaxParticipants: getEnvNum(EnvMaxParticipants, DefaultMaxParticipants),

		AnalyticsEnabled: getEnvBool(EnvAnalyticsEnabled, DefaultAnalyticsEnabled),
		AnalyticsTopic:   getEnvStr(EnvAnalyticsTopic, DefaultAnalyticsTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.New(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if u, err := url.Parse(cfg.CalendarBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("CalendarBaseURL must be an absolute URL, got: %s", cfg.CalendarBaseURL))
	}
	if cfg.CalendarTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("CalendarTimeout must be positive, got: %s", cfg.CalendarTimeout))
	}
	if cfg.CalendarMaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("CalendarMaxAttempts must be at least 1, got: %d", cfg.CalendarMaxAttempts))
	}
	if cfg.CalendarBackoffBase <= 0 {
		errs = append(errs, fmt.Sprintf("CalendarBackoffBase must be positive, got: %s", cfg.CalendarBackoffBase))
	}
	if cfg.CalendarBackoffCap < cfg.CalendarBackoffBase {
		errs = append(errs, fmt.Sprintf("CalendarBackoffCap (%s) must be >= CalendarBackoffBase (%s)", cfg.CalendarBackoffCap, cfg.CalendarBackoffBase))
	}
	if cfg.SnapshotTTL <= 0 {
		errs = append(errs, fmt.Sprintf("SnapshotTTL must be positive, got: %s", cfg.SnapshotTTL))
	}

	if cfg.DuplicateWaitBudget <= 0 {
		errs = append(errs, fmt.Sprintf("DuplicateWaitBudget must be positive, got: %s", cfg.DuplicateWaitBudget))
	}
	if cfg.DuplicateWaitInterval <= 0 || cfg.DuplicateWaitInterval > cfg.DuplicateWaitBudget {
		errs = append(errs, fmt.Sprintf("DuplicateWaitInterval must be positive and <= DuplicateWaitBudget, got: %s", cfg.DuplicateWaitInterval))
	}

	if cfg.MaxParticipants < 1 {
		errs = append(errs, fmt.Sprintf("MaxParticipants must be at least 1, got: %d", cfg.MaxParticipants))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.AnalyticsEnabled && cfg.AnalyticsTopic == "" {
		errs = append(errs, "AnalyticsTopic cannot be empty when analytics is enabled")
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"calendar_base_url", cfg.CalendarBaseURL,
		"calendar_api_key_set", cfg.CalendarAPIKey != "",
		"calendar_timeout", cfg.CalendarTimeout,
		"calendar_max_attempts", cfg.CalendarMaxAttempts,
		"calendar_backoff_base", cfg.CalendarBackoffBase,
		"calendar_backoff_cap", cfg.CalendarBackoffCap,
		"snapshot_ttl", cfg.SnapshotTTL,
		"duplicate_wait_budget", cfg.DuplicateWaitBudget,
		"duplicate_wait_interval", cfg.DuplicateWaitInterval,
		"max_participants", cfg.MaxParticipants,
		"analytics_enabled", cfg.AnalyticsEnabled,
		"analytics_topic", cfg.AnalyticsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
