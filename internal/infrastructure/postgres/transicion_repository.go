package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.TransicionRepository = (*TransicionRepo)(nil)

// TransicionRepo adaptador de TransicionRepository sobre transiciones_estado,
// con los códigos de origen/destino resueltos por join.
type TransicionRepo struct {
	q Querier
}

// NewTransicionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransicionRepository(q Querier) *TransicionRepo {
	return &TransicionRepo{q: q}
}

// Listar devuelve todas las transiciones configuradas, activas o no.
func (r *TransicionRepo) Listar() ([]*entity.Transicion, error) {
	query := `
		SELECT t.id, t.categoria, t.estado_origen_id, t.estado_destino_id,
		       o.codigo, d.codigo,
		       COALESCE(t.requiere_permiso, ''), t.automatica, t.notificar, t.activa
		FROM transiciones_estado t
		JOIN estados_logistica o ON o.id = t.estado_origen_id
		JOIN estados_logistica d ON d.id = t.estado_destino_id
		ORDER BY t.categoria, o.codigo, d.codigo`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("listar transiciones: %w", err)
	}
	defer rows.Close()

	var out []*entity.Transicion
	for rows.Next() {
		var t entity.Transicion
		if err := rows.Scan(
			&t.ID, &t.Categoria, &t.EstadoOrigenID, &t.EstadoDestinoID,
			&t.CodigoOrigen, &t.CodigoDestino,
			&t.RequierePermiso, &t.Automatica, &t.Notificar, &t.Activa,
		); err != nil {
			return nil, fmt.Errorf("scan transición: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
