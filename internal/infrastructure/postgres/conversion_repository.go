package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.ConversionRepository = (*ConversionRepo)(nil)

// ConversionRepo adaptador de ConversionRepository sobre
// conversiones_unidad_producto.
type ConversionRepo struct {
	q Querier
}

// NewConversionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConversionRepository(q Querier) *ConversionRepo {
	return &ConversionRepo{q: q}
}

const columnasConversion = `
	id, producto_id, unidad_base_id, unidad_destino_id,
	factor_conversion, activo, es_conversion_principal`

// Get devuelve la conversión del par exacto, o nil si no existe.
func (r *ConversionRepo) Get(productoID, unidadBaseID, unidadDestinoID string) (*entity.ConversionUnidad, error) {
	query := `SELECT` + columnasConversion + `
		FROM conversiones_unidad_producto
		WHERE producto_id = $1 AND unidad_base_id = $2 AND unidad_destino_id = $3`
	var c entity.ConversionUnidad
	err := r.q.QueryRow(context.Background(), query, productoID, unidadBaseID, unidadDestinoID).Scan(
		&c.ID, &c.ProductoID, &c.UnidadBaseID, &c.UnidadDestinoID,
		&c.Factor, &c.Activo, &c.EsPrincipal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversión: %w", err)
	}
	return &c, nil
}

// ListarPorProducto devuelve todas las conversiones del producto.
func (r *ConversionRepo) ListarPorProducto(productoID string) ([]*entity.ConversionUnidad, error) {
	query := `SELECT` + columnasConversion + `
		FROM conversiones_unidad_producto
		WHERE producto_id = $1
		ORDER BY es_conversion_principal DESC, unidad_destino_id`
	rows, err := r.q.Query(context.Background(), query, productoID)
	if err != nil {
		return nil, fmt.Errorf("listar conversiones: %w", err)
	}
	defer rows.Close()

	var out []*entity.ConversionUnidad
	for rows.Next() {
		var c entity.ConversionUnidad
		if err := rows.Scan(
			&c.ID, &c.ProductoID, &c.UnidadBaseID, &c.UnidadDestinoID,
			&c.Factor, &c.Activo, &c.EsPrincipal,
		); err != nil {
			return nil, fmt.Errorf("scan conversión: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
