package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"divebook/internal/analytics"
	"divebook/pkg/config"
	"divebook/pkg/kafka"
	kafka_config "divebook/pkg/kafka/config"
	kafka_middleware "divebook/pkg/kafka/middleware"
)

const ServiceName = "analytics"

func main() {
	cfg := config.Load(ServiceName)
	log := cfg.Log

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		log.Fatal("Invalid Kafka configuration", "error", err)
	}

	aggregator := analytics.NewAggregator(log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.AnalyticsTopic,
		"divebook-analytics",
		cfg.AnalyticsTopic+"-dlq",
		aggregator.Handle,
	)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	consumer.Use(kafka_middleware.LoggingConsumer(log))
	consumer.Use(kafka_middleware.MetricsConsumer())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	log.Info("Starting analytics consumer", "topic", cfg.AnalyticsTopic)
	if err := consumer.Start(ctx); err != nil {
		log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer", "error", err)
	}
	log.Info("Analytics consumer stopped")
}
