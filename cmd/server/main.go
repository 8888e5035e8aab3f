package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"inventory-backend/internal/audit"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/catalog"
	"inventory-backend/internal/config"
	"inventory-backend/internal/database"
	"inventory-backend/internal/events"
	"inventory-backend/internal/inventory"
	"inventory-backend/internal/ledger"
	"inventory-backend/internal/observability"
	"inventory-backend/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.OtelEndpoint != "")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}

	if cfg.SeedCatalog {
		if err := catalog.Seed(ctx, db, logger); err != nil {
			logger.Fatal("catalog seed", zap.Error(err))
		}
	}

	store := catalog.NewGormStore(db)
	cached, err := catalog.NewCachedStore(store, cfg.CatalogCache)
	if err != nil {
		logger.Fatal("catalog cache", zap.Error(err))
	}

	var pub events.Publisher = events.Nop{}
	if cfg.KafkaBroker != "" {
		w, err := events.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic, config.ServiceName, otel.GetTracerProvider())
		if err != nil {
			logger.Fatal("kafka writer", zap.Error(err))
		}
		pub = events.NewKafkaPublisher(w, logger)
		logger.Info("publishing stock events", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}
	defer pub.Close()

	led := ledger.New(db, cached, pub, logger)
	reg := registry.New(db, cached, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.Error("unexpected error",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db, logger))
	api.Post("/auth/refresh", auth.RefreshHandler(cfg, db))
	api.Post("/auth/logout", auth.LogoutHandler(cfg, db))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Catalog
	protected.Get("/reasons", catalog.ListReasonsHandler(store))
	protected.Get("/gift-categories", catalog.ListGiftCategoriesHandler(store))
	protected.Get("/apparel/categories", catalog.ListApparelCategoriesHandler(store))
	protected.Get("/apparel/sizes", catalog.ListSizesHandler(store))
	protected.Get("/apparel/colors", catalog.ListColorsHandler(store))

	// Gifts, apparel, stock movements
	inventory.Routes(protected, reg, led)

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Error("listen", zap.Error(err))
	}
}
