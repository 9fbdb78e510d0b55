package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "blog_api/docs"
	"blog_api/internal/config"
	"blog_api/internal/handlers"
	"blog_api/internal/logger"
	"blog_api/internal/repository"
	"blog_api/internal/repository/db"
	"blog_api/internal/repository/mongostore"
	"blog_api/internal/server"
	"blog_api/internal/service"
)

const (
	shutdownTimeout  = 10 * time.Second
	storeInitTimeout = 15 * time.Second
)

// @title                       Blog API
// @version                     1.0
// @description                 Blog posts with JWT authentication and ownership checks.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// .env before config so JWT_SECRET and friends are visible to viper
	if err := config.LoadDotEnv("."); err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading .env", "err", err)
	}

	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	repos, closeStore, err := openStore(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init store", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			log.Errorw("failed to close store", "driver", cfg.DB.Driver, "err", cerr)
		}
	}()

	// wire dependencies
	services := service.NewService(repos, service.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(srv, log)
}

// openStore connects the configured backend and returns its repositories
// together with a function releasing the connection.
func openStore(cfg config.DBConfig, log *logger.Logger) (*repository.Repository, func() error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverSQLite:
		log.Infow("opening sqlite", "path", cfg.Path)
		conn, err := db.InitSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRepository(conn, repository.SQLite), conn.Close, nil

	case config.DriverPostgres:
		log.Infow("connecting to postgres")
		conn, err := db.InitPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRepository(conn, repository.Postgres), conn.Close, nil

	case config.DriverMongo:
		log.Infow("connecting to mongo", "database", cfg.MongoDatabase)
		client, database, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return mongostore.NewRepository(database), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
