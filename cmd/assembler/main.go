package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/handlers"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/repository"
	"bim-gateway/internal/assembler/service"
	"bim-gateway/internal/common/config"
	"bim-gateway/internal/common/logging"
	"bim-gateway/internal/common/metrics"
	"bim-gateway/internal/common/middleware"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ============================================================
// Assembler Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := repository.OpenSQLite(cfg.Assembler.DBPath)
	if err != nil {
		logger.Fatal("open db", zap.String("path", cfg.Assembler.DBPath), zap.Error(err))
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		logger.Fatal("init db", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	asm := assemble.New(mesh.Default(), logger.Named("assembler"),
		assemble.WithEmbeddedGeometry(cfg.Assembler.EmbedMesh),
		assemble.WithRecorder(m),
	)
	files := service.NewFileStorage(cfg.Assembler.OutputDir)
	svc := service.NewModelService(asm, repo, logger.Named("models"),
		service.WithFileStorage(files),
		service.WithStoredCounter(m),
		service.WithAuthor(cfg.Assembler.Author),
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		AppName:      "Assembler Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Routes
	// ============================================================

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	handlers.Register(app,
		handlers.NewHealthHandler(repo),
		handlers.NewModelHandler(svc, logger.Named("http"), cfg.WriteTimeoutDuration()),
	)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting assembler service",
		zap.String("addr", addr),
		zap.String("db", cfg.Assembler.DBPath),
		zap.String("output", files.Root()),
		zap.Bool("embed_mesh", cfg.Assembler.EmbedMesh))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
