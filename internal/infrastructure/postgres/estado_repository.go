package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.EstadoRepository = (*EstadoRepo)(nil)

// EstadoRepo adaptador de EstadoRepository sobre estados_logistica.
type EstadoRepo struct {
	q Querier
}

// NewEstadoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEstadoRepository(q Querier) *EstadoRepo {
	return &EstadoRepo{q: q}
}

const columnasEstado = `
	id, codigo, categoria, nombre, orden, activo,
	es_estado_final, permite_edicion, requiere_aprobacion,
	color, icono, metadatos`

// ListarPorCategoria devuelve todos los estados de una categoría (activos o
// no) ordenados por orden de presentación.
func (r *EstadoRepo) ListarPorCategoria(categoria entity.Categoria) ([]*entity.Estado, error) {
	query := `SELECT` + columnasEstado + `
		FROM estados_logistica WHERE categoria = $1
		ORDER BY orden, codigo`
	rows, err := r.q.Query(context.Background(), query, string(categoria))
	if err != nil {
		return nil, fmt.Errorf("listar estados por categoría: %w", err)
	}
	defer rows.Close()
	return escanearEstados(rows)
}

// Listar devuelve el catálogo completo de estados.
func (r *EstadoRepo) Listar() ([]*entity.Estado, error) {
	query := `SELECT` + columnasEstado + `
		FROM estados_logistica
		ORDER BY categoria, orden, codigo`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("listar estados: %w", err)
	}
	defer rows.Close()
	return escanearEstados(rows)
}

func escanearEstados(rows pgx.Rows) ([]*entity.Estado, error) {
	var out []*entity.Estado
	for rows.Next() {
		var e entity.Estado
		var metadatos []byte
		if err := rows.Scan(
			&e.ID, &e.Codigo, &e.Categoria, &e.Nombre, &e.Orden, &e.Activo,
			&e.EsFinal, &e.PermiteEdicion, &e.RequiereAprobacion,
			&e.Color, &e.Icono, &metadatos,
		); err != nil {
			return nil, fmt.Errorf("scan estado: %w", err)
		}
		m, err := unmarshalMetadatos(metadatos)
		if err != nil {
			return nil, fmt.Errorf("metadatos de estado %s: %w", e.Codigo, err)
		}
		e.Metadatos = m
		out = append(out, &e)
	}
	return out, rows.Err()
}
