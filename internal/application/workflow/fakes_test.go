package workflow_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
	"github.com/jhoicas/Logistica-api/pkg/logger"
)

// Fakes en memoria de los puertos de persistencia, compartidos por los tests
// del paquete. El seed imita el de producción: proforma, venta y entrega con
// sus transiciones, más los estados de reserva para el historial.

type estadoRepoFake struct {
	estados []*entity.Estado
	// lecturas cuenta las cargas perezosas por categoría.
	lecturas int
}

func (f *estadoRepoFake) Listar() ([]*entity.Estado, error) { return f.estados, nil }

func (f *estadoRepoFake) ListarPorCategoria(categoria entity.Categoria) ([]*entity.Estado, error) {
	f.lecturas++
	var out []*entity.Estado
	for _, e := range f.estados {
		if e.Categoria == categoria {
			out = append(out, e)
		}
	}
	return out, nil
}

type transicionRepoFake struct {
	transiciones []*entity.Transicion
}

func (f *transicionRepoFake) Listar() ([]*entity.Transicion, error) { return f.transiciones, nil }

type mapeoRepoFake struct {
	mapeos []*entity.MapeoEstado
}

func (f *mapeoRepoFake) Listar() ([]*entity.MapeoEstado, error) { return f.mapeos, nil }

// almacen agrupa el estado mutable que los repos transaccionales comparten.
type almacen struct {
	estados    map[string]*entity.EstadoEntidad
	historial  []*entity.HistorialEstado
	reservas   map[string]*entity.ReservaStock
	stock      map[string]*entity.Stock
	relaciones map[string]entity.EntidadRef

	falloHistorial error
}

func nuevoAlmacen() *almacen {
	return &almacen{
		estados:    make(map[string]*entity.EstadoEntidad),
		reservas:   make(map[string]*entity.ReservaStock),
		stock:      make(map[string]*entity.Stock),
		relaciones: make(map[string]entity.EntidadRef),
	}
}

func claveEntidad(ref entity.EntidadRef, categoria entity.Categoria) string {
	return fmt.Sprintf("%s|%s|%s", ref.Tipo, ref.ID, categoria)
}

func claveStock(productoID, bodegaID string) string {
	return productoID + "|" + bodegaID
}

func (a *almacen) ponerEstado(ref entity.EntidadRef, categoria entity.Categoria, e *entity.Estado) {
	a.estados[claveEntidad(ref, categoria)] = &entity.EstadoEntidad{
		Entidad:   ref,
		Categoria: categoria,
		EstadoID:  e.ID,
		Codigo:    e.Codigo,
	}
}

func (a *almacen) relacionar(origen entity.EntidadRef, categoriaDestino entity.Categoria, destino entity.EntidadRef) {
	a.relaciones[claveEntidad(origen, categoriaDestino)] = destino
}

type eeRepoFake struct{ a *almacen }

func (f *eeRepoFake) Get(ref entity.EntidadRef, categoria entity.Categoria) (*entity.EstadoEntidad, error) {
	ee, ok := f.a.estados[claveEntidad(ref, categoria)]
	if !ok {
		return nil, nil
	}
	copia := *ee
	return &copia, nil
}

func (f *eeRepoFake) Upsert(ee *entity.EstadoEntidad) error {
	copia := *ee
	f.a.estados[claveEntidad(ee.Entidad, ee.Categoria)] = &copia
	return nil
}

type historialRepoFake struct{ a *almacen }

func (f *historialRepoFake) Crear(h *entity.HistorialEstado) error {
	if f.a.falloHistorial != nil {
		return f.a.falloHistorial
	}
	copia := *h
	copia.ID = fmt.Sprintf("hist-%d", len(f.a.historial)+1)
	f.a.historial = append(f.a.historial, &copia)
	return nil
}

func (f *historialRepoFake) ListarPorEntidad(ref entity.EntidadRef, limit, offset int) ([]*entity.HistorialEstado, error) {
	var out []*entity.HistorialEstado
	for _, h := range f.a.historial {
		if h.Entidad == ref {
			out = append(out, h)
		}
	}
	return out, nil
}

type reservaRepoFake struct{ a *almacen }

func (f *reservaRepoFake) Crear(r *entity.ReservaStock) error {
	f.a.reservas[r.ID] = r
	return nil
}

func (f *reservaRepoFake) GetPorID(id string) (*entity.ReservaStock, error) {
	return f.a.reservas[id], nil
}

func (f *reservaRepoFake) GetPorIDForUpdate(id string) (*entity.ReservaStock, error) {
	return f.a.reservas[id], nil
}

func (f *reservaRepoFake) Actualizar(r *entity.ReservaStock) error {
	f.a.reservas[r.ID] = r
	return nil
}

func (f *reservaRepoFake) SumarRestanteActivo(productoID, bodegaID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range f.a.reservas {
		if r.ProductoID == productoID && r.BodegaID == bodegaID && r.RetieneStock() {
			total = total.Add(r.Restante())
		}
	}
	return total, nil
}

func (f *reservaRepoFake) ListarActivasPorReferencia(ref entity.ReferenciaDocumento) ([]*entity.ReservaStock, error) {
	var out []*entity.ReservaStock
	for _, r := range f.a.reservas {
		if r.Referencia == ref && r.RetieneStock() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *reservaRepoFake) ListarVencidas(ahora time.Time, limite int) ([]string, error) {
	var out []string
	for id, r := range f.a.reservas {
		if r.RetieneStock() && r.Vencida(ahora) && len(out) < limite {
			out = append(out, id)
		}
	}
	return out, nil
}

type stockRepoFake struct{ a *almacen }

func (f *stockRepoFake) Get(productoID, bodegaID string) (*entity.Stock, error) {
	s, ok := f.a.stock[claveStock(productoID, bodegaID)]
	if !ok {
		return &entity.Stock{ProductoID: productoID, BodegaID: bodegaID, Cantidad: decimal.Zero}, nil
	}
	return s, nil
}

func (f *stockRepoFake) GetForUpdate(productoID, bodegaID string) (*entity.Stock, error) {
	return f.Get(productoID, bodegaID)
}

func (f *stockRepoFake) Upsert(stock *entity.Stock) error {
	f.a.stock[claveStock(stock.ProductoID, stock.BodegaID)] = stock
	return nil
}

type relacionRepoFake struct{ a *almacen }

func (f *relacionRepoFake) Relacionada(origen entity.EntidadRef, categoriaDestino entity.Categoria) (*entity.EntidadRef, error) {
	ref, ok := f.a.relaciones[claveEntidad(origen, categoriaDestino)]
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

// txFake ejecuta la función directamente sobre el almacén, sin transacción
// real; los tests verifican efectos, no aislamiento.
type txFake struct{ a *almacen }

func (t *txFake) Run(ctx context.Context, fn func(
	eeRepo repository.EstadoEntidadRepository,
	historialRepo repository.HistorialRepository,
	reservaRepo repository.ReservaRepository,
	stockRepo repository.StockRepository,
	relacionRepo repository.RelacionRepository,
) error) error {
	return fn(&eeRepoFake{t.a}, &historialRepoFake{t.a}, &reservaRepoFake{t.a}, &stockRepoFake{t.a}, &relacionRepoFake{t.a})
}

var _ workflow.TxRunner = (*txFake)(nil)

func estado(id, codigo string, categoria entity.Categoria, orden int, final bool) *entity.Estado {
	return &entity.Estado{
		ID:        id,
		Codigo:    codigo,
		Categoria: categoria,
		Nombre:    codigo,
		Orden:     orden,
		Activo:    true,
		EsFinal:   final,
	}
}

// seedEstados arma el catálogo de los tests: tres categorías de workflow más
// los estados del ciclo de vida de las reservas.
func seedEstados() []*entity.Estado {
	return []*entity.Estado{
		estado("pf-borrador", "BORRADOR", entity.CategoriaProforma, 1, false),
		estado("pf-confirmada", "CONFIRMADA", entity.CategoriaProforma, 2, false),
		estado("pf-anulada", "ANULADA", entity.CategoriaProforma, 3, true),

		estado("v-pendiente", "PENDIENTE", entity.CategoriaVentaLogistica, 1, false),
		estado("v-enruta", "EN_RUTA", entity.CategoriaVentaLogistica, 2, false),
		estado("v-entregada", "ENTREGADA", entity.CategoriaVentaLogistica, 3, true),
		estado("v-anulada", "ANULADA", entity.CategoriaVentaLogistica, 4, true),

		estado("e-programado", "PROGRAMADO", entity.CategoriaEntregaLogistica, 1, false),
		estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false),
		estado("e-entregado", "ENTREGADO", entity.CategoriaEntregaLogistica, 3, true),

		estado("rs-active", "ACTIVE", entity.CategoriaReservaStock, 1, false),
		estado("rs-parcial", "PARTIALLY_CONSUMED", entity.CategoriaReservaStock, 2, false),
		estado("rs-consumed", "CONSUMED", entity.CategoriaReservaStock, 3, true),
		estado("rs-released", "RELEASED", entity.CategoriaReservaStock, 4, true),
		estado("rs-expired", "EXPIRED", entity.CategoriaReservaStock, 5, true),
	}
}

func seedTransiciones() []*entity.Transicion {
	return []*entity.Transicion{
		{ID: "t-pf-1", Categoria: entity.CategoriaProforma, EstadoOrigenID: "pf-borrador", EstadoDestinoID: "pf-confirmada", RequierePermiso: "proformas.confirmar", Activa: true},
		{ID: "t-pf-2", Categoria: entity.CategoriaProforma, EstadoOrigenID: "pf-borrador", EstadoDestinoID: "pf-anulada", Activa: true},
		{ID: "t-pf-3", Categoria: entity.CategoriaProforma, EstadoOrigenID: "pf-confirmada", EstadoDestinoID: "pf-anulada", Activa: true},

		{ID: "t-v-1", Categoria: entity.CategoriaVentaLogistica, EstadoOrigenID: "v-pendiente", EstadoDestinoID: "v-enruta", Activa: true},
		{ID: "t-v-2", Categoria: entity.CategoriaVentaLogistica, EstadoOrigenID: "v-enruta", EstadoDestinoID: "v-entregada", RequierePermiso: "ventas.entregar", Automatica: true, Activa: true},
		{ID: "t-v-3", Categoria: entity.CategoriaVentaLogistica, EstadoOrigenID: "v-pendiente", EstadoDestinoID: "v-anulada", Activa: true},
		// Arista deshabilitada, conservada para el historial.
		{ID: "t-v-4", Categoria: entity.CategoriaVentaLogistica, EstadoOrigenID: "v-enruta", EstadoDestinoID: "v-pendiente", Activa: false},

		{ID: "t-e-1", Categoria: entity.CategoriaEntregaLogistica, EstadoOrigenID: "e-programado", EstadoDestinoID: "e-llego", Activa: true},
		{ID: "t-e-2", Categoria: entity.CategoriaEntregaLogistica, EstadoOrigenID: "e-llego", EstadoDestinoID: "e-entregado", RequierePermiso: "entregas.cerrar", Activa: true},
	}
}

func seedMapeos() []*entity.MapeoEstado {
	return []*entity.MapeoEstado{
		{
			ID:               "m-1",
			CategoriaOrigen:  entity.CategoriaEntregaLogistica,
			EstadoOrigenID:   "e-entregado",
			CategoriaDestino: entity.CategoriaVentaLogistica,
			EstadoDestinoID:  "v-entregada",
			Prioridad:        10,
			Activo:           true,
		},
	}
}

// motorDePrueba arma catálogo, validador y mapeador cargados sobre el seed
// estándar (o sobre los fixtures que el test sustituya).
func motorDePrueba(t *testing.T, estados []*entity.Estado, transiciones []*entity.Transicion, mapeos []*entity.MapeoEstado) (*workflow.Catalogo, *workflow.Validador, *workflow.Mapeador) {
	t.Helper()
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: estados})
	require.NoError(t, catalogo.Recargar())
	validador := workflow.NuevoValidador(&transicionRepoFake{transiciones: transiciones}, catalogo)
	require.NoError(t, validador.Recargar())
	mapeador := workflow.NuevoMapeador(&mapeoRepoFake{mapeos: mapeos}, catalogo)
	require.NoError(t, mapeador.Recargar())
	return catalogo, validador, mapeador
}

func orquestadorDePrueba(t *testing.T, a *almacen) *workflow.Orquestador {
	t.Helper()
	catalogo, validador, mapeador := motorDePrueba(t, seedEstados(), seedTransiciones(), seedMapeos())
	return workflow.NuevoOrquestador(catalogo, validador, mapeador, &txFake{a: a}, logger.Nop())
}
