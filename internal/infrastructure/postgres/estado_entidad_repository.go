package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.EstadoEntidadRepository = (*EstadoEntidadRepo)(nil)
var _ repository.RelacionRepository = (*RelacionRepo)(nil)

// EstadoEntidadRepo adaptador del estado vigente por entidad y categoría
// sobre estados_entidad.
type EstadoEntidadRepo struct {
	q Querier
}

// NewEstadoEntidadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEstadoEntidadRepository(q Querier) *EstadoEntidadRepo {
	return &EstadoEntidadRepo{q: q}
}

// Get devuelve el estado vigente con su código resuelto, o nil si la entidad
// aún no tiene estado en la categoría.
func (r *EstadoEntidadRepo) Get(ref entity.EntidadRef, categoria entity.Categoria) (*entity.EstadoEntidad, error) {
	query := `
		SELECT ee.entidad_tipo, ee.entidad_id, ee.categoria, ee.estado_id, e.codigo, ee.updated_at
		FROM estados_entidad ee
		JOIN estados_logistica e ON e.id = ee.estado_id
		WHERE ee.entidad_tipo = $1 AND ee.entidad_id = $2 AND ee.categoria = $3`
	var ee entity.EstadoEntidad
	err := r.q.QueryRow(context.Background(), query, string(ref.Tipo), ref.ID, string(categoria)).Scan(
		&ee.Entidad.Tipo, &ee.Entidad.ID, &ee.Categoria, &ee.EstadoID, &ee.Codigo, &ee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get estado de entidad: %w", err)
	}
	return &ee, nil
}

// Upsert commitea el estado vigente de la entidad en la categoría.
func (r *EstadoEntidadRepo) Upsert(ee *entity.EstadoEntidad) error {
	query := `
		INSERT INTO estados_entidad (entidad_tipo, entidad_id, categoria, estado_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entidad_tipo, entidad_id, categoria)
		DO UPDATE SET estado_id = EXCLUDED.estado_id, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		string(ee.Entidad.Tipo), ee.Entidad.ID, string(ee.Categoria), ee.EstadoID, ee.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert estado de entidad: %w", err)
	}
	return nil
}

// RelacionRepo resuelve la entidad relacionada en otra categoría (p.ej. la
// venta dueña de una entrega) sobre relaciones_entidad. Referencia débil: la
// cascada consulta, nunca muta a la entidad relacionada directamente.
type RelacionRepo struct {
	q Querier
}

// NewRelacionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRelacionRepository(q Querier) *RelacionRepo {
	return &RelacionRepo{q: q}
}

// Relacionada devuelve la entidad destino de la relación, o nil si no hay.
func (r *RelacionRepo) Relacionada(origen entity.EntidadRef, categoriaDestino entity.Categoria) (*entity.EntidadRef, error) {
	query := `
		SELECT destino_tipo, destino_id
		FROM relaciones_entidad
		WHERE origen_tipo = $1 AND origen_id = $2 AND categoria_destino = $3`
	var ref entity.EntidadRef
	err := r.q.QueryRow(context.Background(), query,
		string(origen.Tipo), origen.ID, string(categoriaDestino),
	).Scan(&ref.Tipo, &ref.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get relación de entidad: %w", err)
	}
	return &ref, nil
}
