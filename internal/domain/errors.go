package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
)

// Errores de dominio (sin dependencias de infraestructura).
//
// Taxonomía: errores de configuración (seed inválido, fatales, nunca se
// reintentan), rechazos de validación (transición ilegal, permiso), conflictos
// de recurso (stock insuficiente, sobre-consumo) y errores transitorios de
// almacenamiento (estos últimos viven en infraestructura y se reintentan allí).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrYaExiste     = errors.New("el recurso ya existe")

	// Configuración: seed inválido, nunca llega al usuario final.
	ErrConfiguracion     = errors.New("configuración inválida")
	ErrEstadoDesconocido = errors.New("estado desconocido")
	ErrMapeoInvalido     = errors.New("el mapeo apunta a una transición ilegal")

	// Validación: rechazos visibles al usuario.
	ErrTransicionInexistente   = errors.New("transición no definida")
	ErrTransicionDeshabilitada = errors.New("transición deshabilitada")
	ErrPermisoDenegado         = errors.New("permiso denegado")

	// Conflictos de recurso.
	ErrStockInsuficiente = errors.New("stock insuficiente")
	ErrSobreConsumo      = errors.New("el consumo excede la cantidad reservada")
	ErrReservaTerminal   = errors.New("la reserva ya está en estado terminal")

	// Conversión de unidades.
	ErrSinConversion      = errors.New("no existe conversión de unidades para el producto")
	ErrConversionInactiva = errors.New("la conversión de unidades está inactiva")
)

// RechazoValidacion lleva el detalle estructurado de una transición rechazada:
// entidad, transición intentada y el motivo (uno de los sentinelas de
// validación). El caller externo lo usa para armar un mensaje accionable.
type RechazoValidacion struct {
	Entidad   entity.EntidadRef
	Categoria entity.Categoria
	Desde     string
	Hacia     string
	Motivo    error
}

func (e *RechazoValidacion) Error() string {
	return fmt.Sprintf("transición %s→%s (%s) sobre %s %s rechazada: %v",
		e.Desde, e.Hacia, e.Categoria, e.Entidad.Tipo, e.Entidad.ID, e.Motivo)
}

func (e *RechazoValidacion) Unwrap() error { return e.Motivo }

// ConflictoRecurso lleva el detalle de un conflicto de stock: producto, bodega
// y cantidades solicitada vs disponible (o consumida vs reservada).
type ConflictoRecurso struct {
	ProductoID string
	BodegaID   string
	Solicitado decimal.Decimal
	Disponible decimal.Decimal
	Motivo     error
}

func (e *ConflictoRecurso) Error() string {
	return fmt.Sprintf("producto %s bodega %s: solicitado %s, disponible %s: %v",
		e.ProductoID, e.BodegaID, e.Solicitado, e.Disponible, e.Motivo)
}

func (e *ConflictoRecurso) Unwrap() error { return e.Motivo }
