package dto

import "time"

// ReservaRequest solicitud de una reserva nueva.
type ReservaRequest struct {
	ProductoID     string     `json:"producto_id"`
	BodegaID       string     `json:"bodega_id"`
	Cantidad       string     `json:"cantidad"`
	ReferenciaTipo string     `json:"referencia_tipo"`
	ReferenciaID   string     `json:"referencia_id"`
	VenceEn        *time.Time `json:"vence_en"`
}

// ConsumoRequest consumo parcial o total de una reserva.
type ConsumoRequest struct {
	Cantidad string `json:"cantidad"`
}

// LiberacionRequest liberación explícita de una reserva.
type LiberacionRequest struct {
	UsuarioID string `json:"usuario_id"`
	Motivo    string `json:"motivo"`
}

// ReservaDTO reserva serializada para respuestas.
type ReservaDTO struct {
	ID                string     `json:"id"`
	ProductoID        string     `json:"producto_id"`
	BodegaID          string     `json:"bodega_id"`
	ReferenciaTipo    string     `json:"referencia_tipo"`
	ReferenciaID      string     `json:"referencia_id"`
	CantidadReservada string     `json:"cantidad_reservada"`
	CantidadConsumida string     `json:"cantidad_consumida"`
	Restante          string     `json:"restante"`
	Estado            string     `json:"estado"`
	VenceEn           *time.Time `json:"vence_en"`
}

// DisponibilidadDTO disponibilidad de stock de un par (producto, bodega).
type DisponibilidadDTO struct {
	ProductoID string `json:"producto_id"`
	BodegaID   string `json:"bodega_id"`
	Fisico     string `json:"fisico"`
	Retenido   string `json:"retenido"`
	Disponible string `json:"disponible"`
}

// FactorRequest consulta de factor de conversión de unidades.
type FactorRequest struct {
	ProductoID    string `query:"producto_id"`
	UnidadVentaID string `query:"unidad_venta_id"`
	UnidadBaseID  string `query:"unidad_base_id"`
}
