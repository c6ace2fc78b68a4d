package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.MapeoRepository = (*MapeoRepo)(nil)

// MapeoRepo adaptador de MapeoRepository sobre mapeos_estado, con los códigos
// de origen/destino resueltos por join.
type MapeoRepo struct {
	q Querier
}

// NewMapeoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMapeoRepository(q Querier) *MapeoRepo {
	return &MapeoRepo{q: q}
}

// Listar devuelve todas las reglas de cascada configuradas.
func (r *MapeoRepo) Listar() ([]*entity.MapeoEstado, error) {
	query := `
		SELECT m.id, m.categoria_origen, m.estado_origen_id, o.codigo,
		       m.categoria_destino, m.estado_destino_id, d.codigo,
		       m.prioridad, m.activo
		FROM mapeos_estado m
		JOIN estados_logistica o ON o.id = m.estado_origen_id
		JOIN estados_logistica d ON d.id = m.estado_destino_id
		ORDER BY m.categoria_origen, o.codigo, m.categoria_destino, m.prioridad DESC`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("listar mapeos: %w", err)
	}
	defer rows.Close()

	var out []*entity.MapeoEstado
	for rows.Next() {
		var m entity.MapeoEstado
		if err := rows.Scan(
			&m.ID, &m.CategoriaOrigen, &m.EstadoOrigenID, &m.CodigoOrigen,
			&m.CategoriaDestino, &m.EstadoDestinoID, &m.CodigoDestino,
			&m.Prioridad, &m.Activo,
		); err != nil {
			return nil, fmt.Errorf("scan mapeo: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
