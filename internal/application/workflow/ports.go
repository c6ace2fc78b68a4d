package workflow

import (
	"context"

	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el cambio de estado, su cascada,
// el efecto sobre reservas y el historial commitean o se revierten juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		eeRepo repository.EstadoEntidadRepository,
		historialRepo repository.HistorialRepository,
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		relacionRepo repository.RelacionRepository,
	) error) error
}
