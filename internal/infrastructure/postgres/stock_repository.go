package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx). Su fila por (producto, bodega) es el punto de serialización de
// todas las operaciones de reserva.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock físico de un producto en una bodega.
func (r *StockRepo) Get(productoID, bodegaID string) (*entity.Stock, error) {
	query := `
		SELECT producto_id, bodega_id, cantidad, updated_at
		FROM stock WHERE producto_id = $1 AND bodega_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, productoID, bodegaID).Scan(
		&s.ProductoID, &s.BodegaID, &s.Cantidad, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductoID: productoID, BodegaID: bodegaID, Cantidad: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad física (por producto y bodega).
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (producto_id, bodega_id, cantidad, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (producto_id, bodega_id)
		DO UPDATE SET cantidad = EXCLUDED.cantidad, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, stock.ProductoID, stock.BodegaID, stock.Cantidad)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si el
// par no tiene fila aún, la crea en cero y la bloquea: la serialización por
// (producto, bodega) necesita una fila que bloquear incluso sin stock cargado.
func (r *StockRepo) GetForUpdate(productoID, bodegaID string) (*entity.Stock, error) {
	query := `
		SELECT producto_id, bodega_id, cantidad, updated_at
		FROM stock WHERE producto_id = $1 AND bodega_id = $2
		FOR UPDATE`
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, productoID, bodegaID).Scan(
		&s.ProductoID, &s.BodegaID, &s.Cantidad, &s.UpdatedAt,
	)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}

	insert := `
		INSERT INTO stock (producto_id, bodega_id, cantidad, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (producto_id, bodega_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, productoID, bodegaID); err != nil {
		return nil, fmt.Errorf("crear fila de stock: %w", err)
	}
	err = r.q.QueryRow(context.Background(), query, productoID, bodegaID).Scan(
		&s.ProductoID, &s.BodegaID, &s.Cantidad, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}
