package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una reserva. Las transiciones son monótonas:
// una reserva RELEASED o EXPIRED nunca vuelve a ACTIVE.
type EstadoReserva string

const (
	ReservaActiva                EstadoReserva = "ACTIVE"
	ReservaParcialmenteConsumida EstadoReserva = "PARTIALLY_CONSUMED"
	ReservaConsumida             EstadoReserva = "CONSUMED"
	ReservaLiberada              EstadoReserva = "RELEASED"
	ReservaVencida               EstadoReserva = "EXPIRED"
)

// Tipos de documento contra los que se puede reservar stock.
type TipoReferencia string

const (
	ReferenciaProforma TipoReferencia = "proforma"
	ReferenciaPedido   TipoReferencia = "pedido"
	ReferenciaManual   TipoReferencia = "manual"
)

// ReferenciaDocumento identifica el documento comercial que respalda la
// reserva (unión tipada, no par suelto tipo/id).
type ReferenciaDocumento struct {
	Tipo TipoReferencia
	ID   string
}

// Validar verifica que la referencia esté completa y el tipo sea conocido.
func (r ReferenciaDocumento) Validar() bool {
	if r.ID == "" {
		return false
	}
	switch r.Tipo {
	case ReferenciaProforma, ReferenciaPedido, ReferenciaManual:
		return true
	}
	return false
}

// ReservaStock es un reclamo sobre una cantidad de stock de un producto en una
// bodega, atado a un documento pendiente de cumplimiento. Invariante:
// CantidadConsumida <= CantidadReservada siempre; CantidadConsumida nunca
// decrece.
type ReservaStock struct {
	ID                string
	ProductoID        string
	BodegaID          string
	Referencia        ReferenciaDocumento
	CantidadReservada decimal.Decimal
	CantidadConsumida decimal.Decimal
	Estado            EstadoReserva
	// VenceEn nulo = la reserva no expira.
	VenceEn     *time.Time
	LiberadaPor *string
	LiberadaEn  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Restante devuelve la cantidad reservada aún no consumida.
func (r *ReservaStock) Restante() decimal.Decimal {
	return r.CantidadReservada.Sub(r.CantidadConsumida)
}

// EsTerminal indica si la reserva ya no admite más cambios de estado.
func (r *ReservaStock) EsTerminal() bool {
	switch r.Estado {
	case ReservaConsumida, ReservaLiberada, ReservaVencida:
		return true
	}
	return false
}

// RetieneStock indica si la reserva sigue descontando disponibilidad
// (su cantidad restante cuenta contra el stock físico).
func (r *ReservaStock) RetieneStock() bool {
	return r.Estado == ReservaActiva || r.Estado == ReservaParcialmenteConsumida
}

// Vencida indica si la reserva tiene expiración cumplida a la hora dada.
func (r *ReservaStock) Vencida(ahora time.Time) bool {
	return r.VenceEn != nil && !r.VenceEn.After(ahora)
}
