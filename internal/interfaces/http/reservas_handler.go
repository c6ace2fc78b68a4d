package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/application/dto"
	"github.com/jhoicas/Logistica-api/internal/application/reservas"
	"github.com/jhoicas/Logistica-api/internal/application/unidades"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
)

// ReservasHandler expone el gestor de reservas, la disponibilidad y el
// resolutor de conversiones.
type ReservasHandler struct {
	manager  *reservas.Manager
	resolver *unidades.Resolver
}

// NewReservasHandler construye el handler.
func NewReservasHandler(manager *reservas.Manager, resolver *unidades.Resolver) *ReservasHandler {
	return &ReservasHandler{manager: manager, resolver: resolver}
}

// Reservar crea una reserva contra un documento pendiente.
func (h *ReservasHandler) Reservar(c *fiber.Ctx) error {
	var in dto.ReservaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	cantidad, err := decimal.NewFromString(in.Cantidad)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cantidad inválida"})
	}

	reserva, err := h.manager.Reservar(c.Context(), reservas.ReservaInput{
		ProductoID: in.ProductoID,
		BodegaID:   in.BodegaID,
		Cantidad:   cantidad,
		Referencia: entity.ReferenciaDocumento{
			Tipo: entity.TipoReferencia(in.ReferenciaTipo),
			ID:   in.ReferenciaID,
		},
		VenceEn: in.VenceEn,
	})
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reservaADTO(reserva))
}

// Consumir registra un consumo parcial o total sobre la reserva.
func (h *ReservasHandler) Consumir(c *fiber.Ctx) error {
	var in dto.ConsumoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	cantidad, err := decimal.NewFromString(in.Cantidad)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cantidad inválida"})
	}

	reserva, err := h.manager.Consumir(c.Context(), c.Params("id"), cantidad)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(reservaADTO(reserva))
}

// Liberar libera la reserva y devuelve el restante a disponibilidad.
func (h *ReservasHandler) Liberar(c *fiber.Ctx) error {
	var in dto.LiberacionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	actor := entity.Actor{UsuarioID: in.UsuarioID}
	reserva, err := h.manager.Liberar(c.Context(), c.Params("id"), actor, in.Motivo)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(reservaADTO(reserva))
}

// GetReserva devuelve una reserva por id.
func (h *ReservasHandler) GetReserva(c *fiber.Ctx) error {
	reserva, err := h.manager.GetPorID(c.Context(), c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(reservaADTO(reserva))
}

// Disponibilidad devuelve físico, retenido y disponible del par
// (producto, bodega).
func (h *ReservasHandler) Disponibilidad(c *fiber.Ctx) error {
	d, err := h.manager.Disponibilidad(c.Context(), c.Query("producto_id"), c.Query("bodega_id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(dto.DisponibilidadDTO{
		ProductoID: d.ProductoID,
		BodegaID:   d.BodegaID,
		Fisico:     d.Fisico.String(),
		Retenido:   d.Retenido.String(),
		Disponible: d.Disponible.String(),
	})
}

// Factor resuelve el factor de conversión unidad venta -> unidad base.
func (h *ReservasHandler) Factor(c *fiber.Ctx) error {
	var in dto.FactorRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}

	factor, err := h.resolver.Resolver(in.ProductoID, in.UnidadVentaID, in.UnidadBaseID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(fiber.Map{
		"producto_id":     in.ProductoID,
		"unidad_venta_id": in.UnidadVentaID,
		"unidad_base_id":  in.UnidadBaseID,
		"factor":          factor.String(),
	})
}

func reservaADTO(r *entity.ReservaStock) dto.ReservaDTO {
	return dto.ReservaDTO{
		ID:                r.ID,
		ProductoID:        r.ProductoID,
		BodegaID:          r.BodegaID,
		ReferenciaTipo:    string(r.Referencia.Tipo),
		ReferenciaID:      r.Referencia.ID,
		CantidadReservada: r.CantidadReservada.String(),
		CantidadConsumida: r.CantidadConsumida.String(),
		Restante:          r.Restante().String(),
		Estado:            string(r.Estado),
		VenceEn:           r.VenceEn,
	}
}
