package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

var _ repository.HistorialRepository = (*HistorialRepo)(nil)

// HistorialRepo adaptador append-only sobre historial_estados. No expone
// update ni delete: el historial es inmutable.
type HistorialRepo struct {
	q Querier
}

// NewHistorialRepository construye el adaptador. Pasar pool o tx (Querier);
// dentro del motor siempre va atado a la tx del cambio que documenta.
func NewHistorialRepository(q Querier) *HistorialRepo {
	return &HistorialRepo{q: q}
}

// Crear inserta la fila de historial. Asigna id si viene vacío.
func (r *HistorialRepo) Crear(h *entity.HistorialEstado) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	metadatos, err := marshalMetadatos(h.Metadatos)
	if err != nil {
		return fmt.Errorf("metadatos de historial: %w", err)
	}
	query := `
		INSERT INTO historial_estados
			(id, entidad_tipo, entidad_id, estado_anterior_id, estado_nuevo_id,
			 usuario_id, motivo, metadatos, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.q.Exec(context.Background(), query,
		h.ID, string(h.Entidad.Tipo), h.Entidad.ID, h.EstadoAnteriorID, h.EstadoNuevoID,
		h.UsuarioID, h.Motivo, metadatos, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("crear historial: %w", err)
	}
	return nil
}

// ListarPorEntidad devuelve el rastro de la entidad, más reciente primero.
func (r *HistorialRepo) ListarPorEntidad(ref entity.EntidadRef, limit, offset int) ([]*entity.HistorialEstado, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, entidad_tipo, entidad_id, estado_anterior_id, estado_nuevo_id,
		       usuario_id, COALESCE(motivo, ''), metadatos, created_at
		FROM historial_estados
		WHERE entidad_tipo = $1 AND entidad_id = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, string(ref.Tipo), ref.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar historial: %w", err)
	}
	defer rows.Close()

	var out []*entity.HistorialEstado
	for rows.Next() {
		var h entity.HistorialEstado
		var metadatos []byte
		if err := rows.Scan(
			&h.ID, &h.Entidad.Tipo, &h.Entidad.ID, &h.EstadoAnteriorID, &h.EstadoNuevoID,
			&h.UsuarioID, &h.Motivo, &metadatos, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan historial: %w", err)
		}
		m, err := unmarshalMetadatos(metadatos)
		if err != nil {
			return nil, fmt.Errorf("metadatos de historial %s: %w", h.ID, err)
		}
		h.Metadatos = m
		out = append(out, &h)
	}
	return out, rows.Err()
}
