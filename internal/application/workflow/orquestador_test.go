package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/pkg/logger"
)

var (
	entrega = entity.EntidadRef{Tipo: entity.TipoEntrega, ID: "e-1"}
	venta   = entity.EntidadRef{Tipo: entity.TipoVenta, ID: "v-1"}

	actorEntregas = entity.Actor{
		UsuarioID: "u-1",
		Permisos:  map[string]bool{"entregas.cerrar": true},
	}
)

// El escenario completo de cierre: la entrega llega a ENTREGADO, la cascada
// mueve la venta dueña a ENTREGADA y, por ser estado final, se libera la
// reserva que el pedido retenía. Todo en la misma unidad lógica.
func TestTransicionar_CascadaYLiberacion(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(entrega, entity.CategoriaEntregaLogistica, estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false))
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-enruta", "EN_RUTA", entity.CategoriaVentaLogistica, 2, false))
	a.relacionar(entrega, entity.CategoriaVentaLogistica, venta)

	vence := time.Now().Add(time.Hour)
	a.reservas["r-1"] = &entity.ReservaStock{
		ID:                "r-1",
		ProductoID:        "prod-1",
		BodegaID:          "bod-1",
		Referencia:        entity.ReferenciaDocumento{Tipo: entity.ReferenciaPedido, ID: "v-1"},
		CantidadReservada: decimal.NewFromInt(5),
		CantidadConsumida: decimal.NewFromInt(2),
		Estado:            entity.ReservaParcialmenteConsumida,
		VenceEn:           &vence,
	}

	o := orquestadorDePrueba(t, a)
	res, err := o.Transicionar(context.Background(), entrega,
		entity.CategoriaEntregaLogistica, "ENTREGADO", actorEntregas, "entrega cerrada")
	require.NoError(t, err)

	require.Len(t, res.Cambios, 2)
	assert.Equal(t, entrega, res.Cambios[0].Entidad)
	assert.Equal(t, "ENTREGADO", res.Cambios[0].Hacia)
	require.NotNil(t, res.Cambios[0].Desde)
	assert.Equal(t, "LLEGO", *res.Cambios[0].Desde)
	assert.Equal(t, venta, res.Cambios[1].Entidad)
	assert.Equal(t, "ENTREGADA", res.Cambios[1].Hacia)
	assert.Equal(t, 1, res.ReservasLiberadas)

	// Estados vigentes actualizados.
	assert.Equal(t, "ENTREGADO", a.estados[claveEntidad(entrega, entity.CategoriaEntregaLogistica)].Codigo)
	assert.Equal(t, "ENTREGADA", a.estados[claveEntidad(venta, entity.CategoriaVentaLogistica)].Codigo)

	// La reserva quedó RELEASED, con el restante devuelto a disponibilidad.
	r := a.reservas["r-1"]
	assert.Equal(t, entity.ReservaLiberada, r.Estado)
	assert.NotNil(t, r.LiberadaEn)

	// Una fila de historial por cada cambio: entrega, reserva y venta.
	require.Len(t, a.historial, 3)
	assert.Equal(t, entrega, a.historial[0].Entidad)
	assert.Equal(t, entity.TipoReserva, a.historial[1].Entidad.Tipo)
	assert.Equal(t, venta, a.historial[2].Entidad)
	require.NotNil(t, a.historial[2].EstadoAnteriorID)
	assert.Equal(t, "v-enruta", *a.historial[2].EstadoAnteriorID)
	assert.Nil(t, a.historial[1].UsuarioID, "la cascada corre como actor sistema")
}

// La cascada sobre una venta que ya está en ENTREGADA es un no-op: sin fila
// de historial, sin liberar nada dos veces.
func TestTransicionar_CascadaNoOp(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(entrega, entity.CategoriaEntregaLogistica, estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false))
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-entregada", "ENTREGADA", entity.CategoriaVentaLogistica, 3, true))
	a.relacionar(entrega, entity.CategoriaVentaLogistica, venta)

	o := orquestadorDePrueba(t, a)
	res, err := o.Transicionar(context.Background(), entrega,
		entity.CategoriaEntregaLogistica, "ENTREGADO", actorEntregas, "")
	require.NoError(t, err)

	require.Len(t, res.Cambios, 1)
	assert.Equal(t, entrega, res.Cambios[0].Entidad)
	require.Len(t, a.historial, 1)
}

// La cascada puede estrenar el estado de la entidad dependiente: historial
// con estado anterior nulo.
func TestTransicionar_CascadaEstrenaEstado(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(entrega, entity.CategoriaEntregaLogistica, estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false))
	a.relacionar(entrega, entity.CategoriaVentaLogistica, venta)

	o := orquestadorDePrueba(t, a)
	res, err := o.Transicionar(context.Background(), entrega,
		entity.CategoriaEntregaLogistica, "ENTREGADO", actorEntregas, "")
	require.NoError(t, err)

	require.Len(t, res.Cambios, 2)
	assert.Nil(t, res.Cambios[1].Desde)
	require.Len(t, a.historial, 2)
	assert.Nil(t, a.historial[1].EstadoAnteriorID)
}

// Sin entidad relacionada en la categoría destino, la cascada simplemente no
// aplica.
func TestTransicionar_SinRelacionNoCascada(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(entrega, entity.CategoriaEntregaLogistica, estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false))

	o := orquestadorDePrueba(t, a)
	res, err := o.Transicionar(context.Background(), entrega,
		entity.CategoriaEntregaLogistica, "ENTREGADO", actorEntregas, "")
	require.NoError(t, err)
	require.Len(t, res.Cambios, 1)
}

// Un mapeo que apunta a una transición ilegal en la categoría destino no se
// aplica en silencio: la unidad completa falla con ErrMapeoInvalido.
func TestTransicionar_CascadaIlegalEsMapeoInvalido(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(entrega, entity.CategoriaEntregaLogistica, estado("e-llego", "LLEGO", entity.CategoriaEntregaLogistica, 2, false))
	// La venta en PENDIENTE no tiene arista PENDIENTE -> ENTREGADA.
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-pendiente", "PENDIENTE", entity.CategoriaVentaLogistica, 1, false))
	a.relacionar(entrega, entity.CategoriaVentaLogistica, venta)

	o := orquestadorDePrueba(t, a)
	_, err := o.Transicionar(context.Background(), entrega,
		entity.CategoriaEntregaLogistica, "ENTREGADO", actorEntregas, "")
	require.ErrorIs(t, err, domain.ErrMapeoInvalido)
}

func TestTransicionar_RechazoEnPrimaria(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-enruta", "EN_RUTA", entity.CategoriaVentaLogistica, 2, false))

	o := orquestadorDePrueba(t, a)
	_, err := o.Transicionar(context.Background(), venta,
		entity.CategoriaVentaLogistica, "ENTREGADA", entity.Actor{UsuarioID: "u-1"}, "")

	var rechazo *domain.RechazoValidacion
	require.ErrorAs(t, err, &rechazo)
	assert.ErrorIs(t, err, domain.ErrPermisoDenegado)
	assert.Empty(t, a.historial)
}

func TestTransicionar_DestinoDesconocido(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-pendiente", "PENDIENTE", entity.CategoriaVentaLogistica, 1, false))

	o := orquestadorDePrueba(t, a)
	_, err := o.Transicionar(context.Background(), venta,
		entity.CategoriaVentaLogistica, "NO_EXISTE", actorEntregas, "")
	require.ErrorIs(t, err, domain.ErrEstadoDesconocido)
}

func TestTransicionar_EntidadSinEstado(t *testing.T) {
	o := orquestadorDePrueba(t, nuevoAlmacen())
	_, err := o.Transicionar(context.Background(), venta,
		entity.CategoriaVentaLogistica, "EN_RUTA", actorEntregas, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransicionar_EntradaInvalida(t *testing.T) {
	o := orquestadorDePrueba(t, nuevoAlmacen())

	_, err := o.Transicionar(context.Background(), entity.EntidadRef{},
		entity.CategoriaVentaLogistica, "EN_RUTA", actorEntregas, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = o.Transicionar(context.Background(), venta,
		entity.CategoriaVentaLogistica, "", actorEntregas, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransicionar_FalloDePersistenciaAborta(t *testing.T) {
	a := nuevoAlmacen()
	a.ponerEstado(venta, entity.CategoriaVentaLogistica, estado("v-pendiente", "PENDIENTE", entity.CategoriaVentaLogistica, 1, false))
	falla := errors.New("historial caído")
	a.falloHistorial = falla

	o := orquestadorDePrueba(t, a)
	res, err := o.Transicionar(context.Background(), venta,
		entity.CategoriaVentaLogistica, "EN_RUTA", actorEntregas, "")
	require.ErrorIs(t, err, falla)
	assert.Nil(t, res)
}

// Con mapeos adversariales (ciclo entre categorías que avanza de estado en
// cada vuelta) la cascada termina: la profundidad está acotada por el número
// de categorías y el exceso es un error de configuración.
func TestTransicionar_CascadaAdversarialTermina(t *testing.T) {
	catA := entity.Categoria("flujo_a")
	catB := entity.Categoria("flujo_b")
	estados := []*entity.Estado{
		estado("a-0", "S0", catA, 1, false),
		estado("a-1", "S1", catA, 2, false),
		estado("a-2", "S2", catA, 3, false),
		estado("b-0", "S0", catB, 1, false),
		estado("b-1", "S1", catB, 2, false),
	}
	transiciones := []*entity.Transicion{
		{ID: "ta-1", Categoria: catA, EstadoOrigenID: "a-0", EstadoDestinoID: "a-1", Activa: true},
		{ID: "ta-2", Categoria: catA, EstadoOrigenID: "a-1", EstadoDestinoID: "a-2", Activa: true},
		{ID: "tb-1", Categoria: catB, EstadoOrigenID: "b-0", EstadoDestinoID: "b-1", Activa: true},
	}
	mapeos := []*entity.MapeoEstado{
		{ID: "ma", CategoriaOrigen: catA, EstadoOrigenID: "a-1", CategoriaDestino: catB, EstadoDestinoID: "b-1", Prioridad: 1, Activo: true},
		{ID: "mb", CategoriaOrigen: catB, EstadoOrigenID: "b-1", CategoriaDestino: catA, EstadoDestinoID: "a-2", Prioridad: 1, Activo: true},
	}

	refA := entity.EntidadRef{Tipo: entity.TipoProforma, ID: "A"}
	refB := entity.EntidadRef{Tipo: entity.TipoVenta, ID: "B"}
	a := nuevoAlmacen()
	a.ponerEstado(refA, catA, estados[0])
	a.ponerEstado(refB, catB, estados[3])
	a.relacionar(refA, catB, refB)
	a.relacionar(refB, catA, refA)

	catalogo, validador, mapeador := motorDePrueba(t, estados, transiciones, mapeos)
	o := workflow.NuevoOrquestador(catalogo, validador, mapeador, &txFake{a: a}, logger.Nop())

	_, err := o.Transicionar(context.Background(), refA, catA, "S1", entity.ActorSistema, "")
	require.ErrorIs(t, err, domain.ErrConfiguracion)
}

func TestInicializar(t *testing.T) {
	a := nuevoAlmacen()
	o := orquestadorDePrueba(t, a)
	proforma := entity.EntidadRef{Tipo: entity.TipoProforma, ID: "pf-1"}

	require.NoError(t, o.Inicializar(context.Background(), proforma,
		entity.CategoriaProforma, "BORRADOR", entity.Actor{UsuarioID: "u-1"}, "alta"))
	assert.Equal(t, "BORRADOR", a.estados[claveEntidad(proforma, entity.CategoriaProforma)].Codigo)
	require.Len(t, a.historial, 1)
	assert.Nil(t, a.historial[0].EstadoAnteriorID)

	// Idempotente sobre el mismo estado inicial.
	require.NoError(t, o.Inicializar(context.Background(), proforma,
		entity.CategoriaProforma, "BORRADOR", entity.Actor{UsuarioID: "u-1"}, "alta"))
	require.Len(t, a.historial, 1)

	// Reinicializar en otro estado es un error.
	err := o.Inicializar(context.Background(), proforma,
		entity.CategoriaProforma, "CONFIRMADA", entity.Actor{UsuarioID: "u-1"}, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
