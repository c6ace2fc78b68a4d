package entity

// Transicion es una arista permitida entre dos estados de la misma categoría.
// Identidad: (EstadoOrigenID, EstadoDestinoID, Categoria). Se desactiva en
// lugar de borrarse para preservar la integridad del historial.
type Transicion struct {
	ID              string
	Categoria       Categoria
	EstadoOrigenID  string
	EstadoDestinoID string
	// Codigos resueltos por el repositorio (join contra estados_logistica);
	// el validador indexa por código, no por id.
	CodigoOrigen  string
	CodigoDestino string
	// RequierePermiso vacío = transición sin permiso asociado.
	RequierePermiso string
	// Automatica habilita que el propio motor dispare la transición (p.ej. al
	// consumirse por completo una reserva) sin actor explícito.
	Automatica bool
	Notificar  bool
	Activa     bool
}
