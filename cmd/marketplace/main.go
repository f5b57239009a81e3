package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/notify"
	redisinfra "auction-marketplace/internal/infrastructure/redis"
	ws "auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction marketplace")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	watchlistRepo := mysql.NewMySQLWatchlistRepository(db)
	questionRepo := mysql.NewMySQLQuestionRepository(db)
	notificationRepo := mysql.NewMySQLNotificationRepository(db)

	// Redis based components
	snapshotCache := redisinfra.NewRedisSnapshotCache(rdb)
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	eventSubscriber := redisinfra.NewRedisEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Notification fan-out
	connManager := ws.NewConnectionManager(log)
	dispatcher := notify.NewDispatcher(notificationRepo, connManager, eventPublisher, cfg.Instance.ID, log)

	// Core services
	ledger := services.NewAuctionLedger(auctionRepo, bidRepo, snapshotCache, dispatcher, log)
	sweeper := services.NewClosingSweeper(ledger, auctionRepo, leaderElection, cfg.Instance.ID, cfg.Sweeper.Interval, log)
	watchlist := services.NewWatchlistService(watchlistRepo, auctionRepo, log)
	qa := services.NewQAService(questionRepo, auctionRepo, dispatcher, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
	}))

	// Handlers
	auctionHandler := handlers.NewAuctionHandler(ledger, log)
	watchlistHandler := handlers.NewWatchlistHandler(watchlist, log)
	qaHandler := handlers.NewQAHandler(qa, log)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, log)
	wsHandler := handlers.NewWebSocketHandler(connManager, snapshotCache, log)

	// API routes
	api := e.Group("/api/v1")
	api.POST("/auctions", auctionHandler.CreateAuction)
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.POST("/auctions/:id/close", auctionHandler.CloseAuction)
	api.POST("/auctions/:id/bids", auctionHandler.PlaceBid)
	api.GET("/auctions/:id/bids", auctionHandler.ListBids)
	api.GET("/auctions/:id/ws", wsHandler.HandleConnection)
	api.POST("/auctions/:id/questions", qaHandler.Ask)
	api.GET("/auctions/:id/questions", qaHandler.List)
	api.POST("/questions/:question_id/reply", qaHandler.Reply)
	api.POST("/watchlist", watchlistHandler.Toggle)
	api.GET("/watchlist", watchlistHandler.List)
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-marketplace",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start the closing sweeper
	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// Relay events from other instances to local websocket clients
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	go func() {
		err := eventSubscriber.SubscribeToAuctionEvents(subCtx, func(event *domain.AuctionEvent) error {
			if event.Origin == cfg.Instance.ID {
				// Our own dispatcher already delivered this locally.
				return nil
			}
			payload := map[string]interface{}{
				"type":       string(event.Kind),
				"auction_id": event.AuctionID,
				"amount":     event.Amount,
				"timestamp":  event.Timestamp.Format(time.RFC3339),
			}
			if event.AuctionID != "" {
				return connManager.BroadcastToAuction(event.AuctionID, payload)
			}
			if event.UserID != "" {
				return connManager.NotifyUser(event.UserID, payload)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscription ended", "error", err)
		}
	}()

	// Keep contending for sweep leadership
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweep leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction marketplace...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction marketplace stopped")
}
