package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/config"
	"auction-engine/internal/engine"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// store is what the process needs from a backing repository
type store interface {
	repository.AuctionDB
	repository.UserDirectory
	repository.CarCatalog
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.LogLevel})
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"driver": cfg.StoreDriver, "error": err.Error()})
	}

	broadcaster := events.NewBroadcaster(64)
	sinks := []events.Sink{events.LogSink{}, broadcaster}

	var rdb *rd.Client
	if cfg.RedisAddr != "" {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			utils.Warn("redis not reachable, rate limiting fails open", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
		}
		pingCancel()
		sinks = append(sinks, events.NewRedisSink(rdb, cfg.RedisChannelPrefix))
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	dispatcher := events.NewDispatcher(cfg.EventBuffer, sinks...)
	dispatcher.Start(ctx)

	eng := engine.New(repo, dispatcher, clock.New(), cfg.Engine())
	if err := eng.Load(ctx); err != nil {
		utils.Fatal("failed to restore engine state", map[string]any{"error": err.Error()})
	}
	go eng.Run(ctx)

	biddingSvc := bidding.NewBiddingService(eng, repo, repo)

	router := server.SetupRouter(biddingSvc, broadcaster, server.RouterOptions{
		Redis:     rdb,
		BidLimit:  cfg.RateLimitBids,
		BidWindow: cfg.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"addr":    cfg.HTTPAddr,
			"store":   cfg.StoreDriver,
			"redis":   cfg.RedisAddr != "",
			"kafka":   len(cfg.KafkaBrokers) > 0,
			"lot_ttl": cfg.LotDuration.String(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	utils.Info("shutting down", map[string]any{"signal": sig.String()})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// open event streams keep the server busy until they are cut
		utils.Warn("graceful shutdown timed out, closing connections", map[string]any{"error": err.Error()})
		_ = srv.Close()
	}

	cancel()
	dispatcher.Wait()
	utils.Info("server stopped", map[string]any{"dropped_events": dispatcher.Dropped()})
}

// openStore returns the configured repository seeded with the demo users and cars
func openStore(ctx context.Context, cfg config.AppConfig) (store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		repo, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		for _, u := range seedUsers() {
			if err := repo.AddUser(ctx, u); err != nil {
				return nil, err
			}
		}
		for _, c := range seedCars() {
			if err := repo.AddCar(ctx, c); err != nil {
				return nil, err
			}
		}
		return repo, nil
	default:
		repo := repository.NewMemoryRepo()
		for _, u := range seedUsers() {
			repo.AddUser(u)
		}
		for _, c := range seedCars() {
			repo.AddCar(c)
		}
		return repo, nil
	}
}

// seedUsers stands in for the identity service until one is wired
func seedUsers() []model.User {
	return []model.User{
		{UserID: "user1", DisplayName: "Dealer One", CanBid: true},
		{UserID: "user2", DisplayName: "Dealer Two", CanBid: true},
		{UserID: "user3", DisplayName: "Dealer Three", CanBid: true},
		{UserID: "viewer", DisplayName: "Read Only", CanBid: false},
	}
}

func seedCars() []model.Car {
	return []model.Car{
		{CarID: "car1", Make: "Toyota", Model: "Land Cruiser", Year: 2021, LocationID: "dubai"},
		{CarID: "car2", Make: "Nissan", Model: "Patrol", Year: 2022, LocationID: "dubai"},
		{CarID: "car3", Make: "Lexus", Model: "LX 600", Year: 2023, LocationID: "sharjah"},
	}
}
