package entity

import "github.com/shopspring/decimal"

// ConversionUnidad relaciona la unidad base de un producto (en la que se
// cuenta el stock) con una unidad destino de venta. Factor = unidades destino
// por 1 unidad base (p.ej. 1 caja = 56 tabletas -> factor 56). Invariante:
// Factor > 0; a lo sumo una conversión principal por producto.
type ConversionUnidad struct {
	ID              string
	ProductoID      string
	UnidadBaseID    string
	UnidadDestinoID string
	Factor          decimal.Decimal
	Activo          bool
	EsPrincipal     bool
}
