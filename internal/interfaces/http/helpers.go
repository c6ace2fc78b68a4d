package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Logistica-api/internal/application/dto"
	"github.com/jhoicas/Logistica-api/internal/domain"
)

// responderError mapea la taxonomía de errores del motor a HTTP. Los rechazos
// de validación y conflictos de recurso llevan detalle estructurado para que
// el caller arme un mensaje accionable; los errores de configuración no deben
// llegar al usuario final: se devuelven como 500 y se alertan por log.
func responderError(c *fiber.Ctx, err error) error {
	var rechazo *domain.RechazoValidacion
	if errors.As(err, &rechazo) {
		codigo := "TRANSICION_ILEGAL"
		switch {
		case errors.Is(err, domain.ErrPermisoDenegado):
			codigo = "PERMISO_DENEGADO"
		case errors.Is(err, domain.ErrTransicionDeshabilitada):
			codigo = "TRANSICION_DESHABILITADA"
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"code":         codigo,
			"message":      rechazo.Error(),
			"entidad_tipo": string(rechazo.Entidad.Tipo),
			"entidad_id":   rechazo.Entidad.ID,
			"categoria":    string(rechazo.Categoria),
			"desde":        rechazo.Desde,
			"hacia":        rechazo.Hacia,
		})
	}

	var conflicto *domain.ConflictoRecurso
	if errors.As(err, &conflicto) {
		codigo := "STOCK_INSUFICIENTE"
		if errors.Is(err, domain.ErrSobreConsumo) {
			codigo = "SOBRE_CONSUMO"
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":        codigo,
			"message":     conflicto.Error(),
			"producto_id": conflicto.ProductoID,
			"bodega_id":   conflicto.BodegaID,
			"solicitado":  conflicto.Solicitado.String(),
			"disponible":  conflicto.Disponible.String(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrReservaTerminal):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RESERVA_TERMINAL", Message: err.Error()})
	case errors.Is(err, domain.ErrSinConversion), errors.Is(err, domain.ErrConversionInactiva):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SIN_CONVERSION", Message: err.Error()})
	case errors.Is(err, domain.ErrEstadoDesconocido), errors.Is(err, domain.ErrConfiguracion),
		errors.Is(err, domain.ErrMapeoInvalido):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "CONFIGURACION", Message: "error de configuración del motor"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
