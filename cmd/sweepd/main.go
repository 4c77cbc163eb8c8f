// sweepd es el daemon de barrido del motor: cada SweepInterval pasa a
// "vencida" las notas activas cuya fecha de vencimiento ya quedó atrás y
// libera sus reservas de stock.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/ferrepos-core/internal/application/loyalty"
	"github.com/jhoicas/ferrepos-core/internal/application/notes"
	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/infrastructure/postgres"
	"github.com/jhoicas/ferrepos-core/pkg/config"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
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
		Dur("interval", cfg.Engine.SweepInterval).
		Msg("iniciando barrido de notas vencidas")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	stockRepo := postgres.NewStockRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	resRepo := postgres.NewReservationRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	ledgerSvc := stockledger.NewService(postgres.NewLedgerTxRunner(pool), stockRepo, movRepo, log)
	loyaltySvc := loyalty.NewService(cfg.Engine.PesosPerPoint, log)
	noteSvc := notes.NewService(
		postgres.NewNoteTxRunner(pool),
		ledgerSvc, loyaltySvc,
		noteRepo, saleRepo, resRepo, productRepo,
		cfg.Engine.HoldTTL, cfg.Engine.QuotationTTL,
		log,
	)

	ticker := time.NewTicker(cfg.Engine.SweepInterval)
	defer ticker.Stop()

	// Primera pasada inmediata: un daemon recién levantado no debe esperar
	// un intervalo completo con notas ya vencidas en la mesa.
	sweep(ctx, noteSvc, log)
	for {
		select {
		case <-ticker.C:
			sweep(ctx, noteSvc, log)
		case <-ctx.Done():
			log.Info().Msg("señal de apagado recibida, deteniendo barrido")
			return
		}
	}
}

func sweep(ctx context.Context, noteSvc *notes.Service, log *logger.Logger) {
	expired, err := noteSvc.ExpireNotes(ctx, time.Now())
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("barrido de notas falló")
		return
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("notas vencidas procesadas")
	}
}
