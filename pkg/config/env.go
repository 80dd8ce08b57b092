package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCalendarBaseURL     = "CALENDAR_BASE_URL"
	EnvCalendarAPIKey      = "CALENDAR_API_KEY"
	EnvCalendarTimeout     = "CALENDAR_TIMEOUT"
	EnvCalendarMaxAttempts = "CALENDAR_MAX_ATTEMPTS"
	EnvCalendarBackoffBase = "CALENDAR_BACKOFF_BASE"
	EnvCalendarBackoffCap  = "CALENDAR_BACKOFF_CAP"
	EnvSnapshotTTL         = "SNAPSHOT_TTL"

	EnvDuplicateWaitBudget   = "DUPLICATE_WAIT_BUDGET"
	EnvDuplicateWaitInterval = "DUPLICATE_WAIT_INTERVAL"

	EnvMaxParticipants = "MAX_PARTICIPANTS"

	EnvAnalyticsEnabled = "ANALYTICS_ENABLED"
	EnvAnalyticsTopic   = "ANALYTICS_TOPIC"
)
