package repository

import "github.com/jhoicas/Logistica-api/internal/domain/entity"

// EstadoRepository define el puerto de lectura del catálogo de estados.
// Los estados son configuración: los repos solo leen; el seed los escribe.
type EstadoRepository interface {
	ListarPorCategoria(categoria entity.Categoria) ([]*entity.Estado, error)
	Listar() ([]*entity.Estado, error)
}

// TransicionRepository define el puerto de lectura de las aristas permitidas.
// Las filas vienen con los códigos de origen/destino ya resueltos.
type TransicionRepository interface {
	Listar() ([]*entity.Transicion, error)
}

// MapeoRepository define el puerto de lectura de las reglas de cascada.
type MapeoRepository interface {
	Listar() ([]*entity.MapeoEstado, error)
}
