package cmd

import (
	"context"
	"fmt"
	"time"

	"parlayz/api"
	"parlayz/config"
	"parlayz/database"
	"parlayz/events"
	"parlayz/infrastructure"
	"parlayz/infrastructure/observability"
	"parlayz/repository"
	"parlayz/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting parlayz...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.Subscribe(eventBus)

	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient, err = connectNATS(ctx, cfg, eventBus, metrics)
		if err != nil {
			return err
		}
	} else {
		log.Info("NATS_SERVERS not set, domain events stay in-process")
	}

	services := newServices(cfg, uowFactory)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(services, api.JWT{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.JWTTokenTTL,
	}, db)

	runErr := server.Run(ctx, cfg.HTTPAddr)

	log.Info("Shutting down...")
	eventBus.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics provider")
	}

	if runErr != nil {
		return fmt.Errorf("http server failed: %w", runErr)
	}
	log.Info("Shutdown complete")
	return nil
}

func newServices(cfg *config.Config, uowFactory service.UnitOfWorkFactory) api.Services {
	policy := service.NewAdminAccessPolicy()
	return api.Services{
		Users:      service.NewUserService(uowFactory, cfg.StartingBalance),
		Pools:      service.NewPoolService(uowFactory, policy),
		MiniPools:  service.NewMiniPoolService(uowFactory, cfg.MiniPoolMinStake),
		Offers:     service.NewOfferService(uowFactory),
		Settlement: service.NewSettlementService(uowFactory, policy),
	}
}

func connectNATS(ctx context.Context, cfg *config.Config, bus *events.Bus, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(cfg.NATSServers, cfg.OTelServiceName)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
		_ = client.Close()
		return nil, err
	}

	infrastructure.NewNATSEventPublisher(client, mapper, cfg.OTelServiceName).
		WithMetrics(metrics).
		Subscribe(bus)
	return client, nil
}
