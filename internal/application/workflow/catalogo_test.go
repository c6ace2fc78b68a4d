package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Logistica-api/internal/application/workflow"
	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
)

func TestCatalogo_GetPorCodigo(t *testing.T) {
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: seedEstados()})
	require.NoError(t, catalogo.Recargar())

	e, err := catalogo.Get(entity.CategoriaProforma, "CONFIRMADA")
	require.NoError(t, err)
	assert.Equal(t, "pf-confirmada", e.ID)
	assert.False(t, e.EsFinal)

	// ANULADA existe en dos categorías; cada una resuelve su propia fila.
	pf, err := catalogo.Get(entity.CategoriaProforma, "ANULADA")
	require.NoError(t, err)
	v, err := catalogo.Get(entity.CategoriaVentaLogistica, "ANULADA")
	require.NoError(t, err)
	assert.NotEqual(t, pf.ID, v.ID)
}

func TestCatalogo_EstadoDesconocido(t *testing.T) {
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: seedEstados()})
	require.NoError(t, catalogo.Recargar())

	_, err := catalogo.Get(entity.CategoriaProforma, "INEXISTENTE")
	require.ErrorIs(t, err, domain.ErrEstadoDesconocido)
}

func TestCatalogo_ListarActivosOrdenados(t *testing.T) {
	estados := seedEstados()
	// Un estado desactivado no debe listarse.
	for _, e := range estados {
		if e.ID == "pf-anulada" {
			e.Activo = false
		}
	}
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: estados})
	require.NoError(t, catalogo.Recargar())

	activos, err := catalogo.ListarActivos(entity.CategoriaProforma)
	require.NoError(t, err)
	require.Len(t, activos, 2)
	assert.Equal(t, "BORRADOR", activos[0].Codigo)
	assert.Equal(t, "CONFIRMADA", activos[1].Codigo)
}

func TestCatalogo_CodigoDuplicadoEnCategoria(t *testing.T) {
	estados := append(seedEstados(),
		estado("pf-dup", "BORRADOR", entity.CategoriaProforma, 9, false))
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: estados})

	require.ErrorIs(t, catalogo.Recargar(), domain.ErrConfiguracion)
}

func TestCatalogo_InvalidarRecargaPerezosa(t *testing.T) {
	repo := &estadoRepoFake{estados: seedEstados()}
	catalogo := workflow.NuevoCatalogo(repo)
	require.NoError(t, catalogo.Recargar())
	require.Equal(t, 0, repo.lecturas)

	catalogo.Invalidar(entity.CategoriaProforma)

	// La categoría invalidada se vuelve a cargar; las demás no.
	_, err := catalogo.Get(entity.CategoriaProforma, "BORRADOR")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lecturas)

	_, err = catalogo.Get(entity.CategoriaVentaLogistica, "PENDIENTE")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lecturas)
}

func TestCatalogo_NumCategorias(t *testing.T) {
	catalogo := workflow.NuevoCatalogo(&estadoRepoFake{estados: seedEstados()})
	require.NoError(t, catalogo.Recargar())
	assert.Equal(t, 4, catalogo.NumCategorias())
}
