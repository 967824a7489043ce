package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	availabilityapp "hotelcore/internal/app/availability"
	blockingsapp "hotelcore/internal/app/blockings"
	"hotelcore/internal/app/locks"
	appoutbox "hotelcore/internal/app/outbox"
	roomsapp "hotelcore/internal/app/rooms"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/room"
	"hotelcore/internal/infra/broker/kafka"
	"hotelcore/internal/infra/config"
	inframongo "hotelcore/internal/infra/db/mongo"
	ginserver "hotelcore/internal/infra/http/gin"
	"hotelcore/internal/infra/obs"
	infraoutbox "hotelcore/internal/infra/outbox"
	"hotelcore/internal/infra/schedule"
	"hotelcore/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	sweep := schedule.NewBlockingSweep(app.resolver, logger)
	if err := sweep.Start(ctx, cfg.BlockingSweepSpec); err != nil {
		logger.Error("blocking sweep start failed", "error", err, "spec", cfg.BlockingSweepSpec)
		os.Exit(1)
	}
	defer sweep.Stop()

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.checks,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	resolver *blockingsapp.Service
	worker   *infraoutbox.Worker
	checks   []obs.Check
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	cleanup := func() {}

	var (
		roomRepo     room.Repository
		blockingRepo blocking.Repository
		historyRepo  history.Repository
		settings     policy.Store
		box          appoutbox.Outbox
		worker       *infraoutbox.Worker
		checks       []obs.Check
	)

	switch cfg.StorageMode {
	case config.StorageMongo:
		conn, err := inframongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		roomRepo = inframongo.NewRoomRepository(conn.DB)
		blockingRepo = inframongo.NewBlockingRepository(conn.DB)
		historyRepo = inframongo.NewHistoryRepository(conn.DB)
		settings = inframongo.NewSettingsStore(conn.DB)
		store := infraoutbox.NewStore(conn.DB)
		box = store
		checks = append(checks, obs.Check{Name: "mongo", Probe: conn.Ping})
		closeMongo := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := conn.Close(closeCtx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		}
		cleanup = closeMongo
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				closeMongo()
				return application{}, func() {}, err
			}
			cleanup = func() {
				if err := producer.Close(); err != nil {
					logger.Error("kafka producer close failed", "error", err)
				}
				closeMongo()
			}
			worker = &infraoutbox.Worker{
				Records:     store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("no kafka brokers configured, outbox records will accumulate")
		}
	default:
		roomRepo = memory.NewRoomRepository()
		blockingRepo = memory.NewBlockingRepository()
		historyRepo = memory.NewHistoryRepository()
		settings = memory.NewSettingsStore(policy.Policy{})
		box = memory.NewOutbox()
	}

	keyed := locks.NewKeyed()
	encoder := appoutbox.JSONEventEncoder{}

	stateMachine := &roomsapp.Service{
		Rooms:   roomRepo,
		History: historyRepo,
		Outbox:  box,
		Encoder: encoder,
		Locks:   keyed,
		Logger:  logger,
	}
	resolver := &blockingsapp.Service{
		Blockings: blockingRepo,
		Rooms:     roomRepo,
		Policies:  settings,
		Impacts:   stateMachine,
		Outbox:    box,
		Encoder:   encoder,
		Locks:     keyed,
		Logger:    logger,
	}
	availability := &availabilityapp.Service{
		Rooms:        roomRepo,
		StateMachine: stateMachine,
		Resolver:     resolver,
		Policies:     settings,
		Locks:        keyed,
		Logger:       logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Room:         ginserver.RoomHandler{Rooms: stateMachine, Logger: logger},
			Blocking:     ginserver.BlockingHandler{Blockings: resolver, Logger: logger},
			Availability: ginserver.AvailabilityHandler{Availability: availability, Logger: logger},
			Settings:     ginserver.SettingsHandler{Policies: settings, Logger: logger},
		},
		resolver: resolver,
		worker:   worker,
		checks:   checks,
	}, cleanup, nil
}
