package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmp/docrepo/internal/api"
	"github.com/mmp/docrepo/internal/api/handler"
	"github.com/mmp/docrepo/internal/core/ports"
	"github.com/mmp/docrepo/internal/core/service"
	"github.com/mmp/docrepo/internal/infrastructure/db/bolt"
	"github.com/mmp/docrepo/internal/infrastructure/db/mongo"
	"github.com/mmp/docrepo/internal/infrastructure/db/redis"
	"github.com/mmp/docrepo/internal/infrastructure/queue"
	"github.com/mmp/docrepo/internal/pkg/config"
	"github.com/mmp/docrepo/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// stores groups the entity stores selected by STORE_DRIVER.
type stores struct {
	users      ports.UserRepository
	documents  ports.DocumentRepository
	structures ports.StructureRepository
	audit      ports.AuditRepository

	ping  handler.Check
	close func(ctx context.Context) error
	// run starts background maintenance, if the driver has any.
	run func(ctx context.Context)
}

// @title                       Document Repository API
// @version                     1.0
// @description                 Multi-tenant document repository with per-user access control.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "docrepo",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
	}
	revocations := redis.NewRevocationList(rdb)

	// Audit events are persisted by the dispatcher workers. They get their own
	// context so the queues can drain after the signal context is cancelled.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	auditService := service.NewAuditService(st.audit, st.users, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditService, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	repo := service.NewRepository(st.users, st.documents, st.structures, dispatcher, service.Options{
		AdminName:     cfg.Bootstrap.AdminName,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		RemovalPolicy: service.RemovalPolicy(cfg.UserRemovalPolicy),
	}, logger.Component("repository"))

	if err := repo.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}

	if st.run != nil {
		go st.run(ctx)
	}

	e := api.NewRouter(api.Deps{
		Repository:  repo,
		Auth:        service.NewAuthService(repo, revocations, cfg.JWTSecret, cfg.TokenTTL),
		Audit:       auditService,
		Revocations: revocations,
		JWTSecret:   cfg.JWTSecret,
		TokenIssuer: service.TokenIssuer,
		Checks: map[string]handler.Check{
			"store": st.ping,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		PublicDir: cfg.PublicDir,
		Log:       logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.Store.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	dispatcher.Stop()
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := st.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("shutdown complete")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			users:      mongo.NewUserRepository(db),
			documents:  mongo.NewDocumentRepository(db),
			structures: mongo.NewStructureRepository(db),
			audit:      mongo.NewAuditRepository(db),
			ping:       func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:      client.Disconnect,
		}, nil

	default:
		store, err := bolt.Open(ctx, cfg.Store.DataDir, logger.Component("store"))
		if err != nil {
			return nil, err
		}
		compactor := bolt.NewCompactor(store, map[string]time.Duration{
			bolt.CollectionUsers:      cfg.Store.CompactUsers,
			bolt.CollectionDocuments:  cfg.Store.CompactDocuments,
			bolt.CollectionStructures: cfg.Store.CompactStructures,
			bolt.CollectionAudit:      cfg.Store.CompactAudit,
		}, logger.Component("compactor"))
		return &stores{
			users:      store.Users,
			documents:  store.Documents,
			structures: store.Structures,
			audit:      store.Audit,
			ping:       store.Ping,
			close:      func(context.Context) error { return store.Close() },
			run:        compactor.Run,
		}, nil
	}
}
