package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock es la cantidad física de un producto en una bodega, en unidad base.
// Su fila es el punto de serialización de las reservas: toda operación de
// reserva la bloquea (SELECT ... FOR UPDATE) antes de leer disponibilidad.
type Stock struct {
	ProductoID string
	BodegaID   string
	Cantidad   decimal.Decimal
	UpdatedAt  time.Time
}

// EstadoEntidad es el estado vigente de una entidad en una categoría de
// workflow; lo lee y lo escribe únicamente el orquestador.
type EstadoEntidad struct {
	Entidad   EntidadRef
	Categoria Categoria
	EstadoID  string
	// Codigo resuelto por el repositorio (join contra estados_logistica).
	Codigo    string
	UpdatedAt time.Time
}
