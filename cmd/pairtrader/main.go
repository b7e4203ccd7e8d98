package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ajmal017/dailyScript/internal/api"
	"github.com/ajmal017/dailyScript/internal/broker"
	"github.com/ajmal017/dailyScript/internal/config"
	"github.com/ajmal017/dailyScript/internal/engine"
	"github.com/ajmal017/dailyScript/internal/repository"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer log.Sync()

	log.Info("Starting pair trader")

	// Подключение к базе: персистентность исполнений опциональна,
	// движок работает и без БД
	var fillRepo *repository.FillRepository
	db, err := initDatabase(cfg)
	if err != nil {
		log.Warn("Database unavailable, fills will not be persisted", utils.Err(err))
	} else {
		defer db.Close()
		fillRepo = repository.NewFillRepository(db)
		log.Info("Connected to database")
	}

	// Шины событий: единый транспорт между брокером, движком и планировщиком
	buses := engine.NewBuses()

	// Клиенты моста брокера
	mdClient := broker.NewMarketDataClient(cfg.Broker, buses.Quotes, log)
	tdClient, err := broker.NewTradeClient(cfg.Broker, cfg.Security, broker.TradeBuses{
		Status:  buses.Status,
		Rejects: buses.Rejects,
		Cancels: buses.Cancels,
		Ticks:   buses.Ticks,
	}, log)
	if err != nil {
		log.Fatal("Failed to build trade client", utils.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mdClient.Connect(ctx); err != nil {
		log.Fatal("Market data session failed", utils.Err(err))
	}
	defer mdClient.Close()

	if err := tdClient.Connect(ctx); err != nil {
		log.Fatal("Trade session failed", utils.Err(err))
	}
	defer tdClient.Close()

	// Координатор парных сделок
	var sink engine.FillSink
	if fillRepo != nil {
		sink = fillRepo
	}
	coordinator := engine.NewCoordinator(cfg.Engine, buses, mdClient, tdClient, sink, log)
	if err := coordinator.Start(ctx); err != nil {
		log.Fatal("Failed to start coordinator", utils.Err(err))
	}
	defer coordinator.Stop()

	// Планировщик: единственный таймер прохода восстановления
	scheduler := engine.NewScheduler(cfg.Engine.SweepInterval, buses.Ticks, log)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP API
	deps := &api.Dependencies{
		Engine:       coordinator,
		APITokenHash: cfg.Security.APITokenHash,
		Log:          log,
	}
	if fillRepo != nil {
		deps.Fills = fillRepo
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", utils.String("addr", server.Addr))
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", utils.Err(err))
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", utils.Err(err))
	}

	log.Info("Pair trader exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
