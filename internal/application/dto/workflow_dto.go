package dto

// TransicionRequest solicitud de transición de estado de una entidad.
type TransicionRequest struct {
	EntidadTipo   string   `json:"entidad_tipo"`
	EntidadID     string   `json:"entidad_id"`
	Categoria     string   `json:"categoria"`
	EstadoDestino string   `json:"estado_destino"`
	UsuarioID     string   `json:"usuario_id"`
	Permisos      []string `json:"permisos"`
	Motivo        string   `json:"motivo"`
}

// CambioEstadoDTO un cambio de estado commiteado (entidad primaria o cascada).
type CambioEstadoDTO struct {
	EntidadTipo string  `json:"entidad_tipo"`
	EntidadID   string  `json:"entidad_id"`
	Categoria   string  `json:"categoria"`
	Desde       *string `json:"desde"`
	Hacia       string  `json:"hacia"`
}

// TransicionResponse resultado de la unidad lógica commiteada.
type TransicionResponse struct {
	Cambios           []CambioEstadoDTO `json:"cambios"`
	ReservasLiberadas int               `json:"reservas_liberadas"`
}

// EstadoDTO estado del catálogo para listados.
type EstadoDTO struct {
	Codigo             string `json:"codigo"`
	Categoria          string `json:"categoria"`
	Nombre             string `json:"nombre"`
	Orden              int    `json:"orden"`
	EsFinal            bool   `json:"es_final"`
	PermiteEdicion     bool   `json:"permite_edicion"`
	RequiereAprobacion bool   `json:"requiere_aprobacion"`
	Color              string `json:"color"`
	Icono              string `json:"icono"`
}

// HistorialDTO fila de historial para el rastro de auditoría.
type HistorialDTO struct {
	ID               string         `json:"id"`
	EntidadTipo      string         `json:"entidad_tipo"`
	EntidadID        string         `json:"entidad_id"`
	EstadoAnteriorID *string        `json:"estado_anterior_id"`
	EstadoNuevoID    string         `json:"estado_nuevo_id"`
	UsuarioID        *string        `json:"usuario_id"`
	Motivo           string         `json:"motivo"`
	Metadatos        map[string]any `json:"metadatos,omitempty"`
	CreatedAt        string         `json:"created_at"`
}
