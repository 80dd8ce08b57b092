package main

import (
	"divebook/internal/analytics"
	availabilityhandler "divebook/internal/availability/handler"
	availabilityservice "divebook/internal/availability/service"
	"divebook/internal/bookings/handler"
	"divebook/internal/bookings/repository"
	"divebook/internal/bookings/service"
	"divebook/internal/bookings/validator"
	"divebook/internal/calendar"
	"divebook/pkg/app"
	"divebook/pkg/config"
	"divebook/pkg/contracts"
	"divebook/pkg/kafka"
	kafka_config "divebook/pkg/kafka/config"
	kafka_middleware "divebook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting bookings service")

	handlers := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers)
	serverApp.Run()
}

func initServices(cfg *config.Config) contracts.Handlers {
	reservationValidator := validator.NewReservationValidator(cfg.Log, cfg.MaxParticipants)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	tokenRepo := repository.NewMongoTokenRepository(cfg)
	counterRepo := repository.NewMongoSlotCounterRepository(cfg)

	provider := calendar.NewSnapshotProvider(
		calendar.NewHTTPProvider(cfg),
		cfg.SnapshotTTL,
		cfg.Log,
	)

	availability := availabilityservice.NewAvailabilityService(provider, counterRepo, cfg)

	reservations := service.NewReservationService(
		reservationRepo,
		tokenRepo,
		counterRepo,
		provider,
		availability,
		reservationValidator,
		initTracker(cfg),
		cfg,
	)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)

	return contracts.Handlers{
		handler.NewBookingHandler(reservations, cfg),
		availabilityhandler.NewAvailabilityHandler(availability, cfg),
	}
}

func initTracker(cfg *config.Config) analytics.Tracker {
	if !cfg.AnalyticsEnabled {
		return analytics.NewNoopTracker()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Warn("Invalid Kafka configuration, analytics disabled", "error", err)
		return analytics.NewNoopTracker()
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AnalyticsTopic, cfg.AnalyticsTopic+"-dlq")
	if err != nil {
		cfg.Log.Warn("Failed to create Kafka producer, analytics disabled", "error", err)
		return analytics.NewNoopTracker()
	}

	producer.Use(kafka_middleware.LoggingProducer(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducer())

	return analytics.NewKafkaTracker(producer, cfg.Log)
}
