package entity

// Categoria es una dimensión de workflow con su propio conjunto de estados.
// Las categorías conocidas se listan abajo, pero el catálogo admite cualquier
// categoría sembrada en la tabla estados_logistica (los operadores pueden
// agregar flujos sin redeploy).
type Categoria string

const (
	CategoriaProforma         Categoria = "proforma"
	CategoriaVentaLogistica   Categoria = "venta_logistica"
	CategoriaEntregaLogistica Categoria = "entrega_logistica"
	// CategoriaReservaStock registra los estados del ciclo de vida de una
	// reserva, para que el historial pueda referenciar filas de estado reales.
	CategoriaReservaStock Categoria = "reserva_stock"
)

// Estado es una fila de estados_logistica: un estado nombrado dentro de una
// categoría, con metadatos de presentación y banderas de comportamiento.
// Identidad: (Codigo, Categoria). Nunca se borra mientras el historial lo
// referencie; se desactiva.
type Estado struct {
	ID                 string
	Codigo             string
	Categoria          Categoria
	Nombre             string
	Orden              int
	Activo             bool
	EsFinal            bool
	PermiteEdicion     bool
	RequiereAprobacion bool
	Color              string
	Icono              string
	Metadatos          map[string]any
}
