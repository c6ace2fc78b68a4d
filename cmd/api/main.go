package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Logistica-api/internal/application/reservas"
	"github.com/jhoicas/Logistica-api/internal/application/unidades"
	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Logistica-api/internal/interfaces/http"
	"github.com/jhoicas/Logistica-api/pkg/config"
	"github.com/jhoicas/Logistica-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando motor de estados y reservas")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Catálogo de configuración: estados, transiciones y mapeos. Un seed
	// inválido (empates de prioridad, aristas desde estados finales) es
	// fatal: mejor no arrancar que cascadar mal.
	estadoRepo := postgres.NewEstadoRepository(pool)
	catalogo := workflow.NuevoCatalogo(estadoRepo)
	if err := catalogo.Recargar(); err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo de estados")
	}
	validador := workflow.NuevoValidador(postgres.NewTransicionRepository(pool), catalogo)
	if err := validador.Recargar(); err != nil {
		log.Fatal().Err(err).Msg("cargar transiciones")
	}
	mapeador := workflow.NuevoMapeador(postgres.NewMapeoRepository(pool), catalogo)
	if err := mapeador.Recargar(); err != nil {
		log.Fatal().Err(err).Msg("cargar mapeos de cascada")
	}

	historialRepo := postgres.NewHistorialRepository(pool)
	reservaRepo := postgres.NewReservaRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)

	orquestador := workflow.NuevoOrquestador(
		catalogo, validador, mapeador,
		postgres.NewWorkflowTxRunner(pool), log,
	)
	manager := reservas.NuevoManager(
		postgres.NewReservaTxRunner(pool), catalogo,
		reservaRepo, stockRepo, log,
	)
	resolver := unidades.NuevoResolver(postgres.NewConversionRepository(pool))

	// Barrido periódico de reservas vencidas (única actividad de fondo).
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweeper := reservas.NuevoSweeper(manager, cfg.Sweep.Interval, cfg.Sweep.Batch, log)
	go sweeper.Ejecutar(sweepCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orquestador:   orquestador,
		Catalogo:      catalogo,
		Validador:     validador,
		Mapeador:      mapeador,
		Manager:       manager,
		Resolver:      resolver,
		HistorialRepo: historialRepo,
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
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
