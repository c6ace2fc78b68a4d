package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Logistica-api/internal/application/reservas"
	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
	"github.com/jhoicas/Logistica-api/pkg/logger"
)

// Orquestador es la fachada del motor para los colaboradores externos: una
// transición lógica por llamada, todo o nada. Orden fijo de pasos: leer estado
// actual → validar → efecto sobre reservas (si el destino es final) →
// commitear estado → cascadar a categorías dependientes → historial por cada
// entidad que cambió. Cualquier falla revierte la unidad completa, incluidas
// las reservas ya tocadas en la misma llamada.
type Orquestador struct {
	catalogo  *Catalogo
	validador *Validador
	mapeador  *Mapeador
	tx        TxRunner
	log       *logger.Logger
}

// NuevoOrquestador construye la fachada del motor.
func NuevoOrquestador(catalogo *Catalogo, validador *Validador, mapeador *Mapeador, tx TxRunner, log *logger.Logger) *Orquestador {
	return &Orquestador{
		catalogo:  catalogo,
		validador: validador,
		mapeador:  mapeador,
		tx:        tx,
		log:       log,
	}
}

// CambioEstado describe un cambio de estado efectivamente commiteado.
type CambioEstado struct {
	Entidad   entity.EntidadRef
	Categoria entity.Categoria
	// Desde nil cuando la entidad nació directamente en Hacia.
	Desde *string
	Hacia string
}

// ResultadoTransicion resume la unidad lógica commiteada: todos los cambios
// de estado (entidad primaria + cascadas) y las reservas liberadas.
type ResultadoTransicion struct {
	Cambios           []CambioEstado
	ReservasLiberadas int
}

// Transicionar mueve la entidad al estado destino dentro de una transacción,
// cascadando a las categorías dependientes y registrando historial por cada
// entidad cuyo estado cambió. La profundidad de cascada está acotada por el
// número de categorías cargadas, así que termina incluso con mapeos
// adversariales (el exceso se reporta como ErrConfiguracion).
func (o *Orquestador) Transicionar(ctx context.Context, entidad entity.EntidadRef, categoria entity.Categoria, codigoDestino string, actor entity.Actor, motivo string) (*ResultadoTransicion, error) {
	if !entidad.Validar() || codigoDestino == "" {
		return nil, domain.ErrInvalidInput
	}

	maxProfundidad := o.catalogo.NumCategorias()
	if maxProfundidad == 0 {
		return nil, fmt.Errorf("catálogo sin cargar: %w", domain.ErrConfiguracion)
	}

	res := &ResultadoTransicion{}
	err := o.tx.Run(ctx, func(
		eeRepo repository.EstadoEntidadRepository,
		historialRepo repository.HistorialRepository,
		reservaRepo repository.ReservaRepository,
		stockRepo repository.StockRepository,
		relacionRepo repository.RelacionRepository,
	) error {
		paso := pasoTransicion{
			o:             o,
			eeRepo:        eeRepo,
			historialRepo: historialRepo,
			reservaRepo:   reservaRepo,
			stockRepo:     stockRepo,
			relacionRepo:  relacionRepo,
			ahora:         time.Now(),
			max:           maxProfundidad,
			res:           res,
		}
		return paso.aplicar(entidad, categoria, codigoDestino, actor, motivo, 0)
	})
	if err != nil {
		return nil, err
	}

	o.log.Info().
		Str("entidad_tipo", string(entidad.Tipo)).
		Str("entidad_id", entidad.ID).
		Str("categoria", string(categoria)).
		Str("hacia", codigoDestino).
		Int("cambios", len(res.Cambios)).
		Int("reservas_liberadas", res.ReservasLiberadas).
		Msg("transición commiteada")
	return res, nil
}

// Inicializar asigna el primer estado de la entidad en la categoría, con
// historial de estado anterior nulo. Idempotente si la entidad ya está en ese
// estado; error si ya está en otro.
func (o *Orquestador) Inicializar(ctx context.Context, entidad entity.EntidadRef, categoria entity.Categoria, codigoInicial string, actor entity.Actor, motivo string) error {
	if !entidad.Validar() || codigoInicial == "" {
		return domain.ErrInvalidInput
	}
	destino, err := o.catalogo.Get(categoria, codigoInicial)
	if err != nil {
		return err
	}

	return o.tx.Run(ctx, func(
		eeRepo repository.EstadoEntidadRepository,
		historialRepo repository.HistorialRepository,
		_ repository.ReservaRepository,
		_ repository.StockRepository,
		_ repository.RelacionRepository,
	) error {
		actual, err := eeRepo.Get(entidad, categoria)
		if err != nil {
			return err
		}
		if actual != nil {
			if actual.Codigo == codigoInicial {
				return nil
			}
			return fmt.Errorf("la entidad ya tiene estado %s en %s: %w",
				actual.Codigo, categoria, domain.ErrInvalidInput)
		}

		ahora := time.Now()
		if err := eeRepo.Upsert(&entity.EstadoEntidad{
			Entidad:   entidad,
			Categoria: categoria,
			EstadoID:  destino.ID,
			Codigo:    destino.Codigo,
			UpdatedAt: ahora,
		}); err != nil {
			return err
		}
		return historialRepo.Crear(&entity.HistorialEstado{
			Entidad:       entidad,
			EstadoNuevoID: destino.ID,
			UsuarioID:     actor.Usuario(),
			Motivo:        motivo,
			CreatedAt:     ahora,
		})
	})
}

// pasoTransicion agrupa los repos de la transacción en curso para la
// aplicación recursiva de la cascada.
type pasoTransicion struct {
	o             *Orquestador
	eeRepo        repository.EstadoEntidadRepository
	historialRepo repository.HistorialRepository
	reservaRepo   repository.ReservaRepository
	stockRepo     repository.StockRepository
	relacionRepo  repository.RelacionRepository
	ahora         time.Time
	max           int
	res           *ResultadoTransicion
}

func (p *pasoTransicion) aplicar(entidad entity.EntidadRef, categoria entity.Categoria, codigoDestino string, actor entity.Actor, motivo string, profundidad int) error {
	destino, err := p.o.catalogo.Get(categoria, codigoDestino)
	if err != nil {
		return err
	}

	actual, err := p.eeRepo.Get(entidad, categoria)
	if err != nil {
		return err
	}
	if actual != nil && actual.Codigo == destino.Codigo {
		// Ya está en el destino: la cascada (o el reintento) es un no-op,
		// sin fila de historial.
		return nil
	}

	var desde *string
	var estadoAnteriorID *string
	switch {
	case actual != nil:
		desdeCodigo, anteriorID := actual.Codigo, actual.EstadoID
		desde, estadoAnteriorID = &desdeCodigo, &anteriorID
		if err := p.o.validador.Validar(entidad, categoria, desdeCodigo, destino.Codigo, actor); err != nil {
			if profundidad > 0 {
				// Un mapeo que apunta a una transición ilegal es un error de
				// configuración, nunca se aplica en silencio.
				return fmt.Errorf("cascada %s→%s (%s): %v: %w",
					desdeCodigo, destino.Codigo, categoria, err, domain.ErrMapeoInvalido)
			}
			return err
		}
	case profundidad == 0:
		return fmt.Errorf("entidad %s %s sin estado en %s: %w",
			entidad.Tipo, entidad.ID, categoria, domain.ErrNotFound)
	default:
		// La cascada puede estrenar el estado de la entidad dependiente;
		// historial con estado anterior nulo.
	}

	// Un estado final libera lo que el documento aún retiene.
	if destino.EsFinal {
		if ref, ok := referenciaDe(entidad); ok {
			n, err := reservas.LiberarPorReferencia(
				p.reservaRepo, p.stockRepo, p.historialRepo, p.o.catalogo,
				ref, actor, motivo, p.ahora,
			)
			if err != nil {
				return err
			}
			p.res.ReservasLiberadas += n
		}
	}

	if err := p.eeRepo.Upsert(&entity.EstadoEntidad{
		Entidad:   entidad,
		Categoria: categoria,
		EstadoID:  destino.ID,
		Codigo:    destino.Codigo,
		UpdatedAt: p.ahora,
	}); err != nil {
		return err
	}
	if err := p.historialRepo.Crear(&entity.HistorialEstado{
		Entidad:          entidad,
		EstadoAnteriorID: estadoAnteriorID,
		EstadoNuevoID:    destino.ID,
		UsuarioID:        actor.Usuario(),
		Motivo:           motivo,
		CreatedAt:        p.ahora,
	}); err != nil {
		return err
	}
	p.res.Cambios = append(p.res.Cambios, CambioEstado{
		Entidad:   entidad,
		Categoria: categoria,
		Desde:     desde,
		Hacia:     destino.Codigo,
	})

	for _, categoriaDestino := range p.o.mapeador.CategoriasDestino(categoria, destino.Codigo) {
		if profundidad+1 >= p.max {
			return fmt.Errorf("cascada excede las %d categorías cargadas: %w",
				p.max, domain.ErrConfiguracion)
		}
		objetivo, ok, err := p.o.mapeador.Cascada(categoria, destino.Codigo, categoriaDestino)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		relacionada, err := p.relacionRepo.Relacionada(entidad, categoriaDestino)
		if err != nil {
			return err
		}
		if relacionada == nil {
			// Sin entidad relacionada en esa categoría: la cascada no aplica.
			continue
		}
		if err := p.aplicar(*relacionada, categoriaDestino, objetivo.Codigo,
			entity.ActorSistema, motivo, profundidad+1); err != nil {
			return err
		}
	}
	return nil
}

// referenciaDe traduce una entidad de workflow al documento contra el que se
// reserva stock. Las entregas no retienen reservas propias: lo hace la venta
// dueña (vía cascada).
func referenciaDe(entidad entity.EntidadRef) (entity.ReferenciaDocumento, bool) {
	switch entidad.Tipo {
	case entity.TipoProforma:
		return entity.ReferenciaDocumento{Tipo: entity.ReferenciaProforma, ID: entidad.ID}, true
	case entity.TipoVenta:
		return entity.ReferenciaDocumento{Tipo: entity.ReferenciaPedido, ID: entidad.ID}, true
	}
	return entity.ReferenciaDocumento{}, false
}
