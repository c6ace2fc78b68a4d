package repository

import "github.com/jhoicas/Logistica-api/internal/domain/entity"

// HistorialRepository define el puerto append-only del historial de estados.
// No hay update ni delete: el historial es un hecho inmutable y debe
// escribirse dentro de la misma transacción que el cambio que documenta.
type HistorialRepository interface {
	Crear(h *entity.HistorialEstado) error
	ListarPorEntidad(ref entity.EntidadRef, limit, offset int) ([]*entity.HistorialEstado, error)
}
