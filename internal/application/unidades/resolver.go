package unidades

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// escalaFactor es la escala del factor cuando hay que invertir el par
// almacenado (1e-6), suficiente para no acumular error en conversiones
// repetidas.
const escalaFactor = 6

// Resolver resuelve factores de conversión de unidades por producto: cuántas
// unidades de venta equivalen a una unidad base de almacenamiento. Este
// componente nunca redondea cantidades; la política de redondeo es del caller.
type Resolver struct {
	repo repository.ConversionRepository
}

// NuevoResolver construye el resolutor de conversiones.
func NuevoResolver(repo repository.ConversionRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolver devuelve el factor unidades-de-venta por unidad base para el
// producto. Busca el par exacto (producto, base, venta); si no existe,
// busca el par inverso e invierte el factor a escala 1e-6. ErrSinConversion
// si ningún par existe; ErrConversionInactiva si el par existe desactivado.
func (r *Resolver) Resolver(productoID, unidadVentaID, unidadBaseID string) (decimal.Decimal, error) {
	if productoID == "" || unidadVentaID == "" || unidadBaseID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if unidadVentaID == unidadBaseID {
		return decimal.NewFromInt(1), nil
	}

	c, err := r.repo.Get(productoID, unidadBaseID, unidadVentaID)
	if err != nil {
		return decimal.Zero, err
	}
	if c != nil {
		factor, err := validarFactor(c)
		if err != nil {
			return decimal.Zero, err
		}
		return factor, nil
	}

	// Par inverso: el seed pudo registrar solo (venta -> base).
	inverso, err := r.repo.Get(productoID, unidadVentaID, unidadBaseID)
	if err != nil {
		return decimal.Zero, err
	}
	if inverso == nil {
		return decimal.Zero, fmt.Errorf("producto %s %s->%s: %w",
			productoID, unidadBaseID, unidadVentaID, domain.ErrSinConversion)
	}
	factor, err := validarFactor(inverso)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(1).DivRound(factor, escalaFactor), nil
}

// Principal devuelve la conversión marcada como principal del producto, si
// existe.
func (r *Resolver) Principal(productoID string) (*entity.ConversionUnidad, error) {
	lista, err := r.repo.ListarPorProducto(productoID)
	if err != nil {
		return nil, err
	}
	for _, c := range lista {
		if c.EsPrincipal && c.Activo {
			return c, nil
		}
	}
	return nil, fmt.Errorf("producto %s sin conversión principal: %w", productoID, domain.ErrSinConversion)
}

func validarFactor(c *entity.ConversionUnidad) (decimal.Decimal, error) {
	if !c.Activo {
		return decimal.Zero, fmt.Errorf("conversión %s: %w", c.ID, domain.ErrConversionInactiva)
	}
	if !c.Factor.GreaterThan(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("conversión %s con factor %s: %w",
			c.ID, c.Factor, domain.ErrConfiguracion)
	}
	return c.Factor, nil
}

// Convertir aplica el factor hacia unidades de venta: base * factor. Exacto,
// sin redondeo.
func Convertir(cantidad, factor decimal.Decimal) decimal.Decimal {
	return cantidad.Mul(factor)
}

// ABase convierte una cantidad en unidad de venta a unidad base dividiendo
// por el factor exacto, evitando la pérdida que introduciría multiplicar por
// el factor invertido (112 tabletas / 56 = 2 cajas exactas).
func ABase(cantidadVenta, factor decimal.Decimal) decimal.Decimal {
	return cantidadVenta.Div(factor)
}
