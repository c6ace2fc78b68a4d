package reservas

import (
	"context"

	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. El cálculo de disponibilidad y la mutación de
// la reserva forman una unidad atómica bajo el lock de la fila de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		historialRepo repository.HistorialRepository,
	) error) error
}

// CatalogoEstados resuelve filas de estado para el historial de reservas
// (categoría reserva_stock). Lo satisface workflow.Catalogo.
type CatalogoEstados interface {
	Get(categoria entity.Categoria, codigo string) (*entity.Estado, error)
}
