// README: Entry point; loads config, wires services, and serves the HTTP API until signalled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ridecore/internal/config"
	"ridecore/internal/events"
	httptransport "ridecore/internal/http"
	"ridecore/internal/idgen"
	"ridecore/internal/infra"
	"ridecore/internal/logging"
	"ridecore/internal/maps"
	"ridecore/internal/modules/booking"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/matching"
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.Migrate {
		version, err := infra.Migrate(cfg.DB.MigrationsDir, cfg.DB.DSN)
		if err != nil {
			return err
		}
		log.Info("schema migrated", zap.Uint("version", version))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("publishing ride events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	var route maps.Distancer
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		route = rs
	}
	distancer := maps.NewFallbackDistancer(route, log.Named("maps"))

	registry := vehicle.NewRegistry(vehicle.NewCache(), vehicle.NewStore(dbPool), log.Named("vehicle"))
	reviewSvc := review.NewService(review.NewStore(dbPool), idgen.UUID{}, registry)
	locationSvc := location.NewService(location.NewStore(dbPool, redisClient))
	matchingSvc := matching.NewService(registry, reviewSvc, log.Named("matching"))
	bookingSvc := booking.NewService(registry, reviewSvc, locationSvc, publisher, log.Named("booking"))

	if cfg.Admin.Token == "" {
		log.Warn("admin token not set; admin endpoints are disabled")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Vehicles:     registry,
		Fleet:        registry,
		Booking:      bookingSvc,
		Offers:       matchingSvc,
		Reviews:      reviewSvc,
		Location:     locationSvc,
		Distancer:    distancer,
		DefaultCount: cfg.Matching.DefaultCount,
		MaxCount:     cfg.Matching.MaxCount,
		NearbyKm:     cfg.Matching.NearbyKm,
		AdminToken:   cfg.Admin.Token,
		Health: map[string]httptransport.HealthCheck{
			"postgres": dbPool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Log: log.Named("http"),
	})

	return httptransport.NewServer(cfg.HTTP.Addr, router, log.Named("http")).Run(ctx)
}
