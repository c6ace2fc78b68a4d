package repository

import "github.com/jhoicas/Logistica-api/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar stock físico por
// producto y bodega. Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(productoID, bodegaID string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE); es el
	// punto de serialización por (producto, bodega) de todo el motor.
	GetForUpdate(productoID, bodegaID string) (*entity.Stock, error)
}

// EstadoEntidadRepository define el puerto del estado vigente de cada entidad
// por categoría. Solo el orquestador escribe aquí.
type EstadoEntidadRepository interface {
	// Get devuelve nil, nil si la entidad aún no tiene estado en la categoría.
	Get(ref entity.EntidadRef, categoria entity.Categoria) (*entity.EstadoEntidad, error)
	Upsert(ee *entity.EstadoEntidad) error
}

// RelacionRepository resuelve la entidad relacionada en otra categoría de
// workflow (p.ej. la venta dueña de una entrega) para aplicar cascadas. Es una
// referencia débil: nil, nil cuando no hay entidad relacionada.
type RelacionRepository interface {
	Relacionada(origen entity.EntidadRef, categoriaDestino entity.Categoria) (*entity.EntidadRef, error)
}
