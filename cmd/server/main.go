package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/chess"
	"github.com/benbeisheim/chessrules-backend/internal/config"
	"github.com/benbeisheim/chessrules-backend/internal/controller"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		obslog.Init(obslog.Options{}).Fatal("load config", zap.Error(err))
	}
	logger := obslog.Init(obslog.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	opts := []service.ManagerOption{
		service.WithRules(chess.Rules{StrictCastling: cfg.Rules.StrictCastling}),
		service.WithMatchInterval(cfg.Matchmaking.Interval),
	}
	if cfg.RedisURL != "" {
		rdb, err := store.Dial(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, service.WithQueue(store.NewRedisQueue(rdb, cfg.Matchmaking.QueueKey)))
		logger.Info("matchmaking queue in redis", zap.String("key", cfg.Matchmaking.QueueKey))
	}
	gameManager := service.NewGameManager(opts...)
	gameService := service.NewGameService(gameManager)
	go gameManager.Start(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)))
		return err
	})

	controller.Register(app, gameService, cfg.AllowedOrigins)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("strict_castling", cfg.Rules.StrictCastling))
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}
