package repository

import "github.com/jhoicas/Logistica-api/internal/domain/entity"

// ConversionRepository define el puerto de lectura de conversiones de unidad
// por producto. Devuelve nil, nil cuando el par exacto no existe; el resolver
// decide si intenta el par inverso.
type ConversionRepository interface {
	Get(productoID, unidadBaseID, unidadDestinoID string) (*entity.ConversionUnidad, error)
	ListarPorProducto(productoID string) ([]*entity.ConversionUnidad, error)
}
