package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Logistica-api/internal/application/reservas"
	"github.com/jhoicas/Logistica-api/internal/application/unidades"
	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// RouterDeps dependencias para el router. La autenticación y resolución de
// permisos ocurren fuera del motor: los requests llegan con los permisos del
// actor ya resueltos.
type RouterDeps struct {
	Orquestador   *workflow.Orquestador
	Catalogo      *workflow.Catalogo
	Validador     *workflow.Validador
	Mapeador      *workflow.Mapeador
	Manager       *reservas.Manager
	Resolver      *unidades.Resolver
	HistorialRepo repository.HistorialRepository
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Workflow de estados
	workflowHandler := NewWorkflowHandler(deps.Orquestador, deps.Catalogo, deps.HistorialRepo)
	api.Post("/transiciones", workflowHandler.Transicionar)
	api.Get("/estados/:categoria", workflowHandler.ListarEstados)
	api.Get("/historial/:tipo/:id", workflowHandler.ListarHistorial)
	api.Post("/catalogo/recargar", workflowHandler.RecargarCatalogo(deps.Validador, deps.Mapeador))

	// Reservas de stock y conversiones
	reservasHandler := NewReservasHandler(deps.Manager, deps.Resolver)
	api.Post("/reservas", reservasHandler.Reservar)
	api.Get("/reservas/:id", reservasHandler.GetReserva)
	api.Post("/reservas/:id/consumir", reservasHandler.Consumir)
	api.Post("/reservas/:id/liberar", reservasHandler.Liberar)
	api.Get("/disponibilidad", reservasHandler.Disponibilidad)
	api.Get("/conversiones/factor", reservasHandler.Factor)
}
