package reservas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
	"github.com/jhoicas/Logistica-api/pkg/logger"
)

// Manager es el núcleo concurrente del motor: reserva, consume, libera y
// vence cantidades de stock contra documentos pendientes, garantizando que la
// suma de reservas vigentes nunca exceda el stock físico. Toda operación
// bloquea la fila de stock del par (producto, bodega) durante su
// leer-calcular-escribir; la sección crítica es angosta y nunca abarca la
// cascada del workflow.
type Manager struct {
	tx      TxRunner
	estados CatalogoEstados
	// Repos atados al pool para lecturas fuera de transacción.
	reservaRepo repository.ReservaRepository
	stockRepo   repository.StockRepository
	log         *logger.Logger
}

// NuevoManager construye el gestor de reservas.
func NuevoManager(tx TxRunner, estados CatalogoEstados, reservaRepo repository.ReservaRepository, stockRepo repository.StockRepository, log *logger.Logger) *Manager {
	return &Manager{
		tx:          tx,
		estados:     estados,
		reservaRepo: reservaRepo,
		stockRepo:   stockRepo,
		log:         log,
	}
}

// ReservaInput es la solicitud de una reserva nueva.
type ReservaInput struct {
	ProductoID string
	BodegaID   string
	Cantidad   decimal.Decimal
	Referencia entity.ReferenciaDocumento
	// VenceEn nulo = sin expiración.
	VenceEn *time.Time
}

// Reservar calcula disponible = stock físico - suma de restantes vigentes,
// bajo el lock de la fila de stock, e inserta la reserva ACTIVE si alcanza.
// Dos Reservar concurrentes sobre la última unidad no pueden tener éxito
// ambos: el lock serializa el par (producto, bodega).
func (m *Manager) Reservar(ctx context.Context, input ReservaInput) (*entity.ReservaStock, error) {
	if input.ProductoID == "" || input.BodegaID == "" || !input.Referencia.Validar() {
		return nil, domain.ErrInvalidInput
	}
	if !input.Cantidad.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if input.VenceEn != nil && input.VenceEn.Before(time.Now()) {
		return nil, fmt.Errorf("expiración en el pasado: %w", domain.ErrInvalidInput)
	}

	var reserva *entity.ReservaStock
	err := m.tx.Run(ctx, func(
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		historialRepo repository.HistorialRepository,
	) error {
		// El lock de la fila de stock serializa todo el par (producto, bodega).
		stock, err := stockRepo.GetForUpdate(input.ProductoID, input.BodegaID)
		if err != nil {
			return err
		}
		retenido, err := reservaRepo.SumarRestanteActivo(input.ProductoID, input.BodegaID)
		if err != nil {
			return err
		}
		disponible := stock.Cantidad.Sub(retenido)
		if disponible.LessThan(input.Cantidad) {
			return &domain.ConflictoRecurso{
				ProductoID: input.ProductoID,
				BodegaID:   input.BodegaID,
				Solicitado: input.Cantidad,
				Disponible: disponible,
				Motivo:     domain.ErrStockInsuficiente,
			}
		}

		ahora := time.Now()
		reserva = &entity.ReservaStock{
			ID:                uuid.New().String(),
			ProductoID:        input.ProductoID,
			BodegaID:          input.BodegaID,
			Referencia:        input.Referencia,
			CantidadReservada: input.Cantidad,
			CantidadConsumida: decimal.Zero,
			Estado:            entity.ReservaActiva,
			VenceEn:           input.VenceEn,
			CreatedAt:         ahora,
			UpdatedAt:         ahora,
		}
		if err := reservaRepo.Crear(reserva); err != nil {
			return err
		}
		return m.registrarCambio(historialRepo, reserva, nil, "reserva creada", entity.ActorSistema, ahora)
	})
	if err != nil {
		return nil, err
	}

	m.log.Debug().
		Str("reserva_id", reserva.ID).
		Str("producto_id", input.ProductoID).
		Str("bodega_id", input.BodegaID).
		Str("cantidad", input.Cantidad.String()).
		Msg("reserva creada")
	return reserva, nil
}

// Consumir incrementa lo consumido de la reserva. Rechaza sin mutar si el
// resultado excedería lo reservado (ErrSobreConsumo, incluido consumir sobre
// una reserva ya CONSUMED) o si la reserva quedó RELEASED o EXPIRED
// (ErrReservaTerminal). consumida == reservada deja la reserva CONSUMED; un
// consumo parcial la deja PARTIALLY_CONSUMED.
func (m *Manager) Consumir(ctx context.Context, reservaID string, cantidad decimal.Decimal) (*entity.ReservaStock, error) {
	if reservaID == "" || !cantidad.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	var reserva *entity.ReservaStock
	err := m.tx.Run(ctx, func(
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		historialRepo repository.HistorialRepository,
	) error {
		r, err := reservaRepo.GetPorIDForUpdate(reservaID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("reserva %s: %w", reservaID, domain.ErrNotFound)
		}
		// Mismo punto de serialización que Reservar: el consumo cambia el
		// restante que la disponibilidad descuenta.
		if _, err := stockRepo.GetForUpdate(r.ProductoID, r.BodegaID); err != nil {
			return err
		}
		nuevo := r.CantidadConsumida.Add(cantidad)
		if r.EsTerminal() {
			// Sobre una reserva CONSUMED todo consumo adicional excede lo
			// reservado y se reporta como exceso; RELEASED y EXPIRED ya no
			// admiten consumo en ninguna cantidad.
			if r.Estado == entity.ReservaConsumida {
				return &domain.ConflictoRecurso{
					ProductoID: r.ProductoID,
					BodegaID:   r.BodegaID,
					Solicitado: nuevo,
					Disponible: r.CantidadReservada,
					Motivo:     domain.ErrSobreConsumo,
				}
			}
			return fmt.Errorf("reserva %s en estado %s: %w", r.ID, r.Estado, domain.ErrReservaTerminal)
		}

		if nuevo.GreaterThan(r.CantidadReservada) {
			return &domain.ConflictoRecurso{
				ProductoID: r.ProductoID,
				BodegaID:   r.BodegaID,
				Solicitado: nuevo,
				Disponible: r.CantidadReservada,
				Motivo:     domain.ErrSobreConsumo,
			}
		}

		anterior := r.Estado
		ahora := time.Now()
		r.CantidadConsumida = nuevo
		if nuevo.Equal(r.CantidadReservada) {
			r.Estado = entity.ReservaConsumida
		} else {
			r.Estado = entity.ReservaParcialmenteConsumida
		}
		r.UpdatedAt = ahora
		if err := reservaRepo.Actualizar(r); err != nil {
			return err
		}
		if r.Estado != anterior {
			if err := m.registrarCambio(historialRepo, r, &anterior, "consumo de reserva", entity.ActorSistema, ahora); err != nil {
				return err
			}
		}
		reserva = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserva, nil
}

// Liberar marca la reserva RELEASED y devuelve reservada-consumida a la
// disponibilidad de inmediato. Idempotencia: una segunda llamada sobre la
// misma reserva responde ErrReservaTerminal sin liberar dos veces.
func (m *Manager) Liberar(ctx context.Context, reservaID string, actor entity.Actor, motivo string) (*entity.ReservaStock, error) {
	if reservaID == "" {
		return nil, domain.ErrInvalidInput
	}

	var reserva *entity.ReservaStock
	err := m.tx.Run(ctx, func(
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		historialRepo repository.HistorialRepository,
	) error {
		r, err := reservaRepo.GetPorIDForUpdate(reservaID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("reserva %s: %w", reservaID, domain.ErrNotFound)
		}
		if _, err := stockRepo.GetForUpdate(r.ProductoID, r.BodegaID); err != nil {
			return err
		}
		if r.EsTerminal() {
			return fmt.Errorf("reserva %s en estado %s: %w", r.ID, r.Estado, domain.ErrReservaTerminal)
		}
		if err := liberar(reservaRepo, historialRepo, m.estados, r, actor, motivo, time.Now()); err != nil {
			return err
		}
		reserva = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Debug().
		Str("reserva_id", reserva.ID).
		Str("restante_liberado", reserva.Restante().String()).
		Msg("reserva liberada")
	return reserva, nil
}

// Disponibilidad devuelve stock físico, retenido por reservas vigentes y
// disponible para el par (producto, bodega). Lectura sin lock: es material
// para mensajes al usuario, no para decidir una reserva.
type DisponibilidadStock struct {
	ProductoID string
	BodegaID   string
	Fisico     decimal.Decimal
	Retenido   decimal.Decimal
	Disponible decimal.Decimal
}

func (m *Manager) Disponibilidad(ctx context.Context, productoID, bodegaID string) (*DisponibilidadStock, error) {
	if productoID == "" || bodegaID == "" {
		return nil, domain.ErrInvalidInput
	}
	stock, err := m.stockRepo.Get(productoID, bodegaID)
	if err != nil {
		return nil, err
	}
	retenido, err := m.reservaRepo.SumarRestanteActivo(productoID, bodegaID)
	if err != nil {
		return nil, err
	}
	return &DisponibilidadStock{
		ProductoID: productoID,
		BodegaID:   bodegaID,
		Fisico:     stock.Cantidad,
		Retenido:   retenido,
		Disponible: stock.Cantidad.Sub(retenido),
	}, nil
}

// BarrerVencidas pasa a EXPIRED las reservas con expiración cumplida que aún
// retienen stock, liberando su restante, con una fila de historial cada una.
// Batch acotado por limite; cada reserva commitea en su propia transacción
// para que una fila envenenada no trabe el barrido completo.
func (m *Manager) BarrerVencidas(ctx context.Context, ahora time.Time, limite int) (int, error) {
	ids, err := m.reservaRepo.ListarVencidas(ahora, limite)
	if err != nil {
		return 0, fmt.Errorf("listar reservas vencidas: %w", err)
	}

	vencidas := 0
	for _, id := range ids {
		err := m.tx.Run(ctx, func(
			reservaRepo repository.ReservaRepository,
			stockRepo repository.StockRepository,
			historialRepo repository.HistorialRepository,
		) error {
			r, err := reservaRepo.GetPorIDForUpdate(id)
			if err != nil {
				return err
			}
			// Releída bajo lock: otra llamada pudo consumirla o liberarla
			// entre el listado y acá.
			if r == nil || r.EsTerminal() || !r.Vencida(ahora) {
				return nil
			}
			if _, err := stockRepo.GetForUpdate(r.ProductoID, r.BodegaID); err != nil {
				return err
			}

			anterior := r.Estado
			r.Estado = entity.ReservaVencida
			r.UpdatedAt = ahora
			if err := reservaRepo.Actualizar(r); err != nil {
				return err
			}
			if err := m.registrarCambio(historialRepo, r, &anterior, "reserva vencida", entity.ActorSistema, ahora); err != nil {
				return err
			}
			vencidas++
			return nil
		})
		if err != nil {
			m.log.Error().Err(err).Str("reserva_id", id).Msg("no se pudo vencer la reserva")
			continue
		}
	}
	return vencidas, nil
}

// GetPorID devuelve la reserva, o ErrNotFound.
func (m *Manager) GetPorID(ctx context.Context, reservaID string) (*entity.ReservaStock, error) {
	r, err := m.reservaRepo.GetPorID(reservaID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("reserva %s: %w", reservaID, domain.ErrNotFound)
	}
	return r, nil
}

func (m *Manager) registrarCambio(historialRepo repository.HistorialRepository, r *entity.ReservaStock, anterior *entity.EstadoReserva, motivo string, actor entity.Actor, ahora time.Time) error {
	return registrarCambioReserva(historialRepo, m.estados, r, anterior, motivo, actor, ahora)
}

// LiberarPorReferencia libera todas las reservas que aún retienen stock para
// el documento dado. Lo usa el orquestador cuando una entidad alcanza un
// estado final, dentro de su misma transacción.
func LiberarPorReferencia(
	reservaRepo repository.ReservaRepository,
	stockRepo repository.StockRepository,
	historialRepo repository.HistorialRepository,
	estados CatalogoEstados,
	ref entity.ReferenciaDocumento,
	actor entity.Actor,
	motivo string,
	ahora time.Time,
) (int, error) {
	activas, err := reservaRepo.ListarActivasPorReferencia(ref)
	if err != nil {
		return 0, err
	}
	liberadas := 0
	for _, r := range activas {
		if _, err := stockRepo.GetForUpdate(r.ProductoID, r.BodegaID); err != nil {
			return liberadas, err
		}
		if err := liberar(reservaRepo, historialRepo, estados, r, actor, motivo, ahora); err != nil {
			return liberadas, err
		}
		liberadas++
	}
	return liberadas, nil
}

func liberar(
	reservaRepo repository.ReservaRepository,
	historialRepo repository.HistorialRepository,
	estados CatalogoEstados,
	r *entity.ReservaStock,
	actor entity.Actor,
	motivo string,
	ahora time.Time,
) error {
	anterior := r.Estado
	r.Estado = entity.ReservaLiberada
	r.LiberadaPor = actor.Usuario()
	r.LiberadaEn = &ahora
	r.UpdatedAt = ahora
	if err := reservaRepo.Actualizar(r); err != nil {
		return err
	}
	return registrarCambioReserva(historialRepo, estados, r, &anterior, motivo, actor, ahora)
}

// registrarCambioReserva escribe la fila de historial del cambio de estado de
// la reserva, referenciando filas reales de la categoría reserva_stock.
func registrarCambioReserva(
	historialRepo repository.HistorialRepository,
	estados CatalogoEstados,
	r *entity.ReservaStock,
	anterior *entity.EstadoReserva,
	motivo string,
	actor entity.Actor,
	ahora time.Time,
) error {
	nuevo, err := estados.Get(entity.CategoriaReservaStock, string(r.Estado))
	if err != nil {
		return err
	}
	var anteriorID *string
	if anterior != nil {
		e, err := estados.Get(entity.CategoriaReservaStock, string(*anterior))
		if err != nil {
			return err
		}
		id := e.ID
		anteriorID = &id
	}
	return historialRepo.Crear(&entity.HistorialEstado{
		Entidad:          entity.EntidadRef{Tipo: entity.TipoReserva, ID: r.ID},
		EstadoAnteriorID: anteriorID,
		EstadoNuevoID:    nuevo.ID,
		UsuarioID:        actor.Usuario(),
		Motivo:           motivo,
		Metadatos: map[string]any{
			"producto_id": r.ProductoID,
			"bodega_id":   r.BodegaID,
			"restante":    r.Restante().String(),
		},
		CreatedAt: ahora,
	})
}
