package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Logistica-api/internal/application/dto"
	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// WorkflowHandler expone el orquestador de transiciones y el rastro de
// auditoría a los colaboradores externos.
type WorkflowHandler struct {
	orquestador   *workflow.Orquestador
	catalogo      *workflow.Catalogo
	historialRepo repository.HistorialRepository
}

// NewWorkflowHandler construye el handler.
func NewWorkflowHandler(orquestador *workflow.Orquestador, catalogo *workflow.Catalogo, historialRepo repository.HistorialRepository) *WorkflowHandler {
	return &WorkflowHandler{
		orquestador:   orquestador,
		catalogo:      catalogo,
		historialRepo: historialRepo,
	}
}

// Transicionar ejecuta una transición de estado con cascada e historial.
func (h *WorkflowHandler) Transicionar(c *fiber.Ctx) error {
	var in dto.TransicionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	permisos := make(map[string]bool, len(in.Permisos))
	for _, p := range in.Permisos {
		permisos[p] = true
	}
	actor := entity.Actor{UsuarioID: in.UsuarioID, Permisos: permisos}

	res, err := h.orquestador.Transicionar(
		c.Context(),
		entity.EntidadRef{Tipo: entity.TipoEntidad(in.EntidadTipo), ID: in.EntidadID},
		entity.Categoria(in.Categoria),
		in.EstadoDestino,
		actor,
		in.Motivo,
	)
	if err != nil {
		return responderError(c, err)
	}

	out := dto.TransicionResponse{ReservasLiberadas: res.ReservasLiberadas}
	for _, cambio := range res.Cambios {
		out.Cambios = append(out.Cambios, dto.CambioEstadoDTO{
			EntidadTipo: string(cambio.Entidad.Tipo),
			EntidadID:   cambio.Entidad.ID,
			Categoria:   string(cambio.Categoria),
			Desde:       cambio.Desde,
			Hacia:       cambio.Hacia,
		})
	}
	return c.JSON(out)
}

// ListarEstados lista los estados activos de una categoría en orden de
// presentación.
func (h *WorkflowHandler) ListarEstados(c *fiber.Ctx) error {
	categoria := entity.Categoria(c.Params("categoria"))
	estados, err := h.catalogo.ListarActivos(categoria)
	if err != nil {
		return responderError(c, err)
	}

	out := make([]dto.EstadoDTO, 0, len(estados))
	for _, e := range estados {
		out = append(out, dto.EstadoDTO{
			Codigo:             e.Codigo,
			Categoria:          string(e.Categoria),
			Nombre:             e.Nombre,
			Orden:              e.Orden,
			EsFinal:            e.EsFinal,
			PermiteEdicion:     e.PermiteEdicion,
			RequiereAprobacion: e.RequiereAprobacion,
			Color:              e.Color,
			Icono:              e.Icono,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "estados": out})
}

// ListarHistorial devuelve el rastro de auditoría de una entidad.
func (h *WorkflowHandler) ListarHistorial(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	ref := entity.EntidadRef{
		Tipo: entity.TipoEntidad(c.Params("tipo")),
		ID:   c.Params("id"),
	}
	historial, err := h.historialRepo.ListarPorEntidad(ref, page.Limit, page.Offset)
	if err != nil {
		return responderError(c, err)
	}

	out := make([]dto.HistorialDTO, 0, len(historial))
	for _, hh := range historial {
		out = append(out, dto.HistorialDTO{
			ID:               hh.ID,
			EntidadTipo:      string(hh.Entidad.Tipo),
			EntidadID:        hh.Entidad.ID,
			EstadoAnteriorID: hh.EstadoAnteriorID,
			EstadoNuevoID:    hh.EstadoNuevoID,
			UsuarioID:        hh.UsuarioID,
			Motivo:           hh.Motivo,
			Metadatos:        hh.Metadatos,
			CreatedAt:        hh.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "historial": out})
}

// RecargarCatalogo recarga estados, transiciones y mapeos tras una edición de
// configuración. Falla con 500 si el seed quedó inconsistente.
func (h *WorkflowHandler) RecargarCatalogo(validador *workflow.Validador, mapeador *workflow.Mapeador) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.catalogo.Recargar(); err != nil {
			return responderError(c, err)
		}
		if err := validador.Recargar(); err != nil {
			return responderError(c, err)
		}
		if err := mapeador.Recargar(); err != nil {
			return responderError(c, err)
		}
		return c.JSON(fiber.Map{"message": "catálogo recargado"})
	}
}
