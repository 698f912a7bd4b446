package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/audit"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/cache"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/memory"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/messaging"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Estoque-api/internal/interfaces/http"
	"github.com/jhoicas/Estoque-api/pkg/config"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner stock.TxRunner
		itemRepo repository.StockItemRepository
		movRepo  repository.StockMovementRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		txRunner, itemRepo, movRepo = store, store.Items(), store.Movements()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migración del esquema")
			}
		}
		txRunner = postgres.NewTxRunner(pool)
		itemRepo = postgres.NewStockItemRepository(pool)
		movRepo = postgres.NewStockMovementRepository(pool)
	}

	factory := stock.NewDefaultStrategyFactory()

	sinks := audit.MultiSink{audit.NewLogSink(log)}
	if cfg.AMQP.Enabled {
		conn, ch, err := messaging.SetupConn(cfg.AMQP.URL, cfg.AMQP.Exchange, 5, log)
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ no disponible, auditoría solo en log")
		} else {
			defer closeAMQP(conn, ch)
			sinks = append(sinks, messaging.NewAuditPublisher(ch, cfg.AMQP.Exchange))
		}
	}

	var itemCache stock.ItemCache = stock.NoopCache{}
	if cfg.Redis.Enabled {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error().Err(err).Msg("Redis no disponible, caché deshabilitada")
		} else {
			defer client.Close()
			itemCache = cache.NewRedisItemCache(client, cfg.Redis.TTL)
		}
	}

	svc := stock.NewService(txRunner, factory, sinks, itemCache, log, stock.Options{
		DefaultLocation: cfg.Stock.DefaultLocation,
		DefaultUnit:     cfg.Stock.DefaultUnit,
		MaxRetries:      cfg.Stock.MaxRetries,
	})
	query := stock.NewQueryService(itemRepo, movRepo, factory, itemCache, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Estoque API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Service:         svc,
		Query:           query,
		Logger:          log,
		DefaultUserID:   cfg.Stock.DefaultUserID,
		DefaultUserName: cfg.Stock.DefaultUserName,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func closeAMQP(conn *amqp.Connection, ch *amqp.Channel) {
	_ = ch.Close()
	_ = conn.Close()
}
