package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
)

// ReservaRepository define el puerto de persistencia de reservas de stock.
// Los métodos de mutación se usan dentro de transacciones, con la fila de
// stock del par (producto, bodega) ya bloqueada.
type ReservaRepository interface {
	Crear(r *entity.ReservaStock) error
	GetPorID(id string) (*entity.ReservaStock, error)
	// GetPorIDForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE).
	GetPorIDForUpdate(id string) (*entity.ReservaStock, error)
	Actualizar(r *entity.ReservaStock) error
	// SumarRestanteActivo suma reservada-consumida de las reservas ACTIVE y
	// PARTIALLY_CONSUMED del par (producto, bodega).
	SumarRestanteActivo(productoID, bodegaID string) (decimal.Decimal, error)
	// ListarActivasPorReferencia devuelve las reservas que aún retienen stock
	// para el documento dado.
	ListarActivasPorReferencia(ref entity.ReferenciaDocumento) ([]*entity.ReservaStock, error)
	// ListarVencidas devuelve ids de reservas con expiración cumplida que aún
	// retienen stock, acotado a limite (batch del barrido).
	ListarVencidas(ahora time.Time, limite int) ([]string, error)
}
