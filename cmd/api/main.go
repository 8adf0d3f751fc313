package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/application/usecase"
	infrakafka "github.com/jhoicas/Inventario-stock/internal/infrastructure/kafka"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Inventario-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Inventario-stock/internal/infrastructure/redis"
	infraxlsx "github.com/jhoicas/Inventario-stock/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/Inventario-stock/internal/interfaces/http"
	"github.com/jhoicas/Inventario-stock/pkg/config"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		Dir:   cfg.Log.Dir,
	})
	defer log.Close()
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		log.Info().Msg("esquema aplicado")
	}

	repos := postgres.NewRepos(pool)
	txRunner := postgres.NewTxRunner(pool)
	m := metrics.New(true)

	deps := inventory.Deps{
		Tx:         txRunner,
		Stock:      repos.Stock,
		Movements:  repos.Movements,
		Warehouses: repos.Warehouses,
		Products:   repos.Products,
		Observer:   m,
		Reports:    infrapdf.NewMarotoStockReportGenerator(),
		Sheets:     infraxlsx.NewStockSheetExporter(),
		Logger:     log.Named("stock"),
		Settings: inventory.Settings{
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
			DefaultPageSize:   cfg.Inventory.DefaultPageSize,
			MaxPageSize:       cfg.Inventory.MaxPageSize,
		},
	}

	// Caché de stock (opcional)
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, se continúa sin caché")
		} else {
			defer client.Close()
			deps.Cache = infraredis.NewStockCache(client, cfg.Redis.StockTTL, log.Named("redis"))
			log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de stock habilitada")
		}
	}

	// Eventos de movimientos (opcional)
	if cfg.Kafka.Enabled() {
		publisher, err := infrakafka.NewMovementPublisher(cfg.Kafka.Brokers, cfg.Kafka.MovementsTopic, log.Named("kafka"))
		if err != nil {
			log.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka no disponible, no se publicarán movimientos")
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
		}
	}

	stockUC := inventory.NewStockUseCase(deps)
	warehouseUC := usecase.NewWarehouseUseCase(txRunner, repos.Warehouses, log.Named("warehouses")).
		WithStockCache(deps.Cache)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName: cfg.App.Name,
		StockUC:     stockUC,
		WarehouseUC: warehouseUC,
		Metrics:     m,
		JWTSecret:   cfg.JWT.Secret,
		SwaggerFile: "./docs/swagger.json",
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
