package entity

// MapeoEstado es una regla de cascada: un cambio de estado en la categoría
// origen propaga el estado destino indicado en la categoría destino (p.ej.
// entrega ENTREGADO -> venta ENTREGADA). A lo sumo un mapeo activo por
// (CategoriaOrigen, EstadoOrigenID, CategoriaDestino); empates de prioridad
// entre activos son un error de configuración y se rechazan al cargar.
type MapeoEstado struct {
	ID               string
	CategoriaOrigen  Categoria
	EstadoOrigenID   string
	CodigoOrigen     string
	CategoriaDestino Categoria
	EstadoDestinoID  string
	CodigoDestino    string
	Prioridad        int
	Activo           bool
}
