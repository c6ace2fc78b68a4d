package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.ReservaRepository = (*ReservaRepo)(nil)

// ReservaRepo adaptador de ReservaRepository sobre reservas_stock. Las
// mutaciones asumen que el caller ya bloqueó la fila de stock del par
// (producto, bodega) en la misma transacción.
type ReservaRepo struct {
	q Querier
}

// NewReservaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservaRepository(q Querier) *ReservaRepo {
	return &ReservaRepo{q: q}
}

const columnasReserva = `
	id, producto_id, bodega_id, referencia_tipo, referencia_id,
	cantidad_reservada, cantidad_consumida, estado,
	vence_en, liberada_por, liberada_en, created_at, updated_at`

// Crear inserta la reserva. Asigna id si viene vacío; un id repetido (el
// caller puede usar uno propio como clave de idempotencia) responde
// ErrYaExiste en vez de duplicar la retención.
func (r *ReservaRepo) Crear(res *entity.ReservaStock) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservas_stock
			(id, producto_id, bodega_id, referencia_tipo, referencia_id,
			 cantidad_reservada, cantidad_consumida, estado,
			 vence_en, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.ProductoID, res.BodegaID,
		string(res.Referencia.Tipo), res.Referencia.ID,
		res.CantidadReservada, res.CantidadConsumida, string(res.Estado),
		res.VenceEn, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reserva %s: %w", res.ID, domain.ErrYaExiste)
		}
		return fmt.Errorf("crear reserva: %w", err)
	}
	return nil
}

// GetPorID devuelve la reserva, o nil si no existe.
func (r *ReservaRepo) GetPorID(id string) (*entity.ReservaStock, error) {
	return r.get(id, false)
}

// GetPorIDForUpdate devuelve la reserva bloqueando su fila (SELECT FOR UPDATE).
func (r *ReservaRepo) GetPorIDForUpdate(id string) (*entity.ReservaStock, error) {
	return r.get(id, true)
}

func (r *ReservaRepo) get(id string, forUpdate bool) (*entity.ReservaStock, error) {
	query := `SELECT` + columnasReserva + ` FROM reservas_stock WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	res, err := escanearReserva(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reserva: %w", err)
	}
	return res, nil
}

// Actualizar persiste cantidades, estado y datos de liberación.
func (r *ReservaRepo) Actualizar(res *entity.ReservaStock) error {
	query := `
		UPDATE reservas_stock
		SET cantidad_consumida = $2, estado = $3,
		    liberada_por = $4, liberada_en = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		res.ID, res.CantidadConsumida, string(res.Estado),
		res.LiberadaPor, res.LiberadaEn, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar reserva: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actualizar reserva %s: fila inexistente", res.ID)
	}
	return nil
}

// SumarRestanteActivo suma reservada-consumida de las reservas que aún
// retienen stock del par (producto, bodega). Se ejecuta con la fila de stock
// ya bloqueada, así el cálculo de disponibilidad es consistente.
func (r *ReservaRepo) SumarRestanteActivo(productoID, bodegaID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(cantidad_reservada - cantidad_consumida), 0)
		FROM reservas_stock
		WHERE producto_id = $1 AND bodega_id = $2
		  AND estado IN ('ACTIVE', 'PARTIALLY_CONSUMED')`
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, productoID, bodegaID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sumar restante activo: %w", err)
	}
	return total, nil
}

// ListarActivasPorReferencia devuelve las reservas que aún retienen stock para
// el documento, bloqueándolas (FOR UPDATE) para la liberación en cascada.
func (r *ReservaRepo) ListarActivasPorReferencia(ref entity.ReferenciaDocumento) ([]*entity.ReservaStock, error) {
	query := `SELECT` + columnasReserva + `
		FROM reservas_stock
		WHERE referencia_tipo = $1 AND referencia_id = $2
		  AND estado IN ('ACTIVE', 'PARTIALLY_CONSUMED')
		ORDER BY created_at
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, string(ref.Tipo), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("listar reservas por referencia: %w", err)
	}
	defer rows.Close()

	var out []*entity.ReservaStock
	for rows.Next() {
		res, err := escanearReserva(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reserva: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListarVencidas devuelve ids de reservas con expiración cumplida que aún
// retienen stock, hasta limite. Sin lock: el barrido releé cada una bajo
// FOR UPDATE antes de vencerla.
func (r *ReservaRepo) ListarVencidas(ahora time.Time, limite int) ([]string, error) {
	if limite <= 0 {
		limite = 100
	}
	query := `
		SELECT id FROM reservas_stock
		WHERE vence_en IS NOT NULL AND vence_en <= $1
		  AND estado IN ('ACTIVE', 'PARTIALLY_CONSUMED')
		ORDER BY vence_en
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, ahora, limite)
	if err != nil {
		return nil, fmt.Errorf("listar reservas vencidas: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id de reserva: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func escanearReserva(row pgx.Row) (*entity.ReservaStock, error) {
	var res entity.ReservaStock
	err := row.Scan(
		&res.ID, &res.ProductoID, &res.BodegaID,
		&res.Referencia.Tipo, &res.Referencia.ID,
		&res.CantidadReservada, &res.CantidadConsumida, &res.Estado,
		&res.VenceEn, &res.LiberadaPor, &res.LiberadaEn,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
