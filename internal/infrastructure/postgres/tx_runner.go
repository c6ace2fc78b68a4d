package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Logistica-api/internal/application/reservas"
	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// Ensure TxRunner implementa los runners de workflow y reservas.
var _ workflow.TxRunner = (*WorkflowTxRunner)(nil)
var _ reservas.TxRunner = (*ReservaTxRunner)(nil)

// Reintentos de errores transitorios (serialización, deadlock, lock timeout).
// El callback completo se re-ejecuta; por eso debe ser idempotente, y lo es:
// releé todo bajo lock antes de escribir.
const (
	maxIntentos = 3
	backoffBase = 50 * time.Millisecond
)

// runConReintento ejecuta fn en una transacción nueva, con Commit/Rollback y
// reintento acotado ante errores transitorios de PostgreSQL.
func runConReintento(ctx context.Context, pool *pgxpool.Pool, fn func(tx Querier) error) error {
	var ultimo error
	for intento := 1; intento <= maxIntentos; intento++ {
		err := runUna(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !esTransitorio(err) {
			return err
		}
		ultimo = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffBase * time.Duration(intento)):
		}
	}
	return fmt.Errorf("transacción agotó %d intentos: %w", maxIntentos, ultimo)
}

func runUna(ctx context.Context, pool *pgxpool.Pool, fn func(tx Querier) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WorkflowTxRunner ejecuta la unidad lógica del orquestador (cambio de estado
// + cascada + reservas + historial) dentro de una transacción PostgreSQL.
type WorkflowTxRunner struct {
	pool *pgxpool.Pool
}

// NewWorkflowTxRunner construye el runner con el pool.
func NewWorkflowTxRunner(pool *pgxpool.Pool) *WorkflowTxRunner {
	return &WorkflowTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback; reintenta ante errores transitorios.
func (r *WorkflowTxRunner) Run(ctx context.Context, fn func(
	eeRepo repository.EstadoEntidadRepository,
	historialRepo repository.HistorialRepository,
	reservaRepo repository.ReservaRepository,
	stockRepo repository.StockRepository,
	relacionRepo repository.RelacionRepository,
) error) error {
	return runConReintento(ctx, r.pool, func(tx Querier) error {
		return fn(
			NewEstadoEntidadRepository(tx),
			NewHistorialRepository(tx),
			NewReservaRepository(tx),
			NewStockRepository(tx),
			NewRelacionRepository(tx),
		)
	})
}

// ReservaTxRunner ejecuta las operaciones del gestor de reservas dentro de
// una transacción PostgreSQL. Sección crítica angosta: solo la operación de
// reserva, nunca la cascada del workflow.
type ReservaTxRunner struct {
	pool *pgxpool.Pool
}

// NewReservaTxRunner construye el runner con el pool.
func NewReservaTxRunner(pool *pgxpool.Pool) *ReservaTxRunner {
	return &ReservaTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback; reintenta ante errores transitorios.
func (r *ReservaTxRunner) Run(ctx context.Context, fn func(
	reservaRepo repository.ReservaRepository,
	stockRepo repository.StockRepository,
	historialRepo repository.HistorialRepository,
) error) error {
	return runConReintento(ctx, r.pool, func(tx Querier) error {
		return fn(
			NewReservaRepository(tx),
			NewStockRepository(tx),
			NewHistorialRepository(tx),
		)
	})
}
