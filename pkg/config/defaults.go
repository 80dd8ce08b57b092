package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "divebook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCalendarBaseURL     = "http://localhost:9090"
	DefaultCalendarTimeout     = 5 * time.Second
	DefaultCalendarMaxAttempts = 4
	DefaultCalendarBackoffBase = 200 * time.Millisecond
	DefaultCalendarBackoffCap  = 5 * time.Second
	DefaultSnapshotTTL         = 5 * time.Minute

	DefaultDuplicateWaitBudget   = 5 * time.Second
	DefaultDuplicateWaitInterval = 100 * time.Millisecond

	DefaultMaxParticipants = 20

	DefaultAnalyticsEnabled = true
	DefaultAnalyticsTopic   = "booking-events"

	DefaultPaginationLimit = 100
)
