package entity

// Actor es quien solicita una transición: un usuario con sus permisos ya
// resueltos por la capa externa, o el propio motor (Sistema) cuando dispara
// transiciones automáticas (cascadas, barrido de vencidas).
type Actor struct {
	UsuarioID string
	Permisos  map[string]bool
	Sistema   bool
}

// ActorSistema dispara transiciones automáticas sin usuario asociado.
var ActorSistema = Actor{Sistema: true}

// Tiene indica si el actor posee el permiso dado.
func (a Actor) Tiene(permiso string) bool {
	return a.Permisos[permiso]
}

// Usuario devuelve el id de usuario como puntero para el historial (nil para
// el actor sistema).
func (a Actor) Usuario() *string {
	if a.Sistema || a.UsuarioID == "" {
		return nil
	}
	id := a.UsuarioID
	return &id
}
