package entity

import "time"

// Tipos de entidad que participan del workflow o dejan rastro en el historial.
type TipoEntidad string

const (
	TipoProforma TipoEntidad = "proforma"
	TipoVenta    TipoEntidad = "venta"
	TipoEntrega  TipoEntidad = "entrega"
	TipoReserva  TipoEntidad = "reserva"
)

// EntidadRef identifica una entidad de forma tipada (tipo + id), en lugar del
// par (string, int) sin tipo de la tabla original.
type EntidadRef struct {
	Tipo TipoEntidad
	ID   string
}

// Validar verifica que la referencia esté completa y el tipo sea conocido.
func (r EntidadRef) Validar() bool {
	if r.ID == "" {
		return false
	}
	switch r.Tipo {
	case TipoProforma, TipoVenta, TipoEntrega, TipoReserva:
		return true
	}
	return false
}

// HistorialEstado es un hecho inmutable: quién movió qué entidad, desde qué
// estado hacia cuál, cuándo y por qué. Append-only; EstadoAnteriorID nulo solo
// cuando la entidad nace directamente en su primer estado.
type HistorialEstado struct {
	ID               string
	Entidad          EntidadRef
	EstadoAnteriorID *string
	EstadoNuevoID    string
	UsuarioID        *string
	Motivo           string
	Metadatos        map[string]any
	CreatedAt        time.Time
}
