package workflow

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

// Catalogo es la caché de lectura del catálogo de estados, por categoría.
// Los estados son filas, no enums: los operadores agregan estados sin
// redeploy y este componente solo los indexa. La invalidación es explícita
// (Invalidar) y best-effort: una caché desfasada puede rechazar un estado
// recién habilitado por una ventana corta, nunca habilitar uno deshabilitado.
type Catalogo struct {
	repo repository.EstadoRepository

	mu         sync.RWMutex
	categorias map[entity.Categoria]*categoriaCache
	porID      map[string]*entity.Estado
}

type categoriaCache struct {
	// activos ordenados por Orden para listados de presentación.
	activos   []*entity.Estado
	porCodigo map[string]*entity.Estado
}

// NuevoCatalogo construye el catálogo vacío; las categorías se cargan perezosa
// o explícitamente con Recargar.
func NuevoCatalogo(repo repository.EstadoRepository) *Catalogo {
	return &Catalogo{
		repo:       repo,
		categorias: make(map[entity.Categoria]*categoriaCache),
		porID:      make(map[string]*entity.Estado),
	}
}

// Recargar carga todas las categorías sembradas desde el repositorio,
// descartando la caché anterior. Se invoca al arrancar y tras ediciones de
// configuración.
func (c *Catalogo) Recargar() error {
	estados, err := c.repo.Listar()
	if err != nil {
		return fmt.Errorf("listar estados: %w", err)
	}

	porCategoria := make(map[entity.Categoria][]*entity.Estado)
	for _, e := range estados {
		porCategoria[e.Categoria] = append(porCategoria[e.Categoria], e)
	}

	categorias := make(map[entity.Categoria]*categoriaCache, len(porCategoria))
	porID := make(map[string]*entity.Estado, len(estados))
	for cat, lista := range porCategoria {
		cache, err := construirCache(cat, lista)
		if err != nil {
			return err
		}
		categorias[cat] = cache
		for _, e := range lista {
			porID[e.ID] = e
		}
	}

	c.mu.Lock()
	c.categorias = categorias
	c.porID = porID
	c.mu.Unlock()
	return nil
}

// Invalidar descarta la caché de una categoría; la próxima lectura la recarga.
func (c *Catalogo) Invalidar(categoria entity.Categoria) {
	c.mu.Lock()
	if cache, ok := c.categorias[categoria]; ok {
		for _, e := range cache.porCodigo {
			delete(c.porID, e.ID)
		}
		delete(c.categorias, categoria)
	}
	c.mu.Unlock()
}

// Get devuelve el estado (codigo, categoria). Un par ausente es siempre un bug
// del caller o del seed: ErrEstadoDesconocido, clase configuración, fatal.
func (c *Catalogo) Get(categoria entity.Categoria, codigo string) (*entity.Estado, error) {
	cache, err := c.cacheDe(categoria)
	if err != nil {
		return nil, err
	}
	e, ok := cache.porCodigo[codigo]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", categoria, codigo, domain.ErrEstadoDesconocido)
	}
	return e, nil
}

// GetPorID devuelve el estado por id de fila, de cualquier categoría cargada.
func (c *Catalogo) GetPorID(id string) (*entity.Estado, error) {
	c.mu.RLock()
	e, ok := c.porID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("estado id %s: %w", id, domain.ErrEstadoDesconocido)
	}
	return e, nil
}

// ListarActivos devuelve los estados activos de la categoría en orden de
// presentación (campo orden).
func (c *Catalogo) ListarActivos(categoria entity.Categoria) ([]*entity.Estado, error) {
	cache, err := c.cacheDe(categoria)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Estado, len(cache.activos))
	copy(out, cache.activos)
	return out, nil
}

// NumCategorias devuelve cuántas categorías hay cargadas; acota la
// profundidad máxima de cascada del orquestador.
func (c *Catalogo) NumCategorias() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.categorias)
}

func (c *Catalogo) cacheDe(categoria entity.Categoria) (*categoriaCache, error) {
	c.mu.RLock()
	cache, ok := c.categorias[categoria]
	c.mu.RUnlock()
	if ok {
		return cache, nil
	}

	// Carga perezosa tras una invalidación o primer acceso.
	lista, err := c.repo.ListarPorCategoria(categoria)
	if err != nil {
		return nil, fmt.Errorf("listar estados de %s: %w", categoria, err)
	}
	if len(lista) == 0 {
		return nil, fmt.Errorf("categoría %s sin estados: %w", categoria, domain.ErrEstadoDesconocido)
	}
	cache, err = construirCache(categoria, lista)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.categorias[categoria] = cache
	for _, e := range lista {
		c.porID[e.ID] = e
	}
	c.mu.Unlock()
	return cache, nil
}

func construirCache(categoria entity.Categoria, lista []*entity.Estado) (*categoriaCache, error) {
	cache := &categoriaCache{porCodigo: make(map[string]*entity.Estado, len(lista))}
	for _, e := range lista {
		if e.Categoria != categoria {
			return nil, fmt.Errorf("estado %s no pertenece a %s: %w", e.Codigo, categoria, domain.ErrConfiguracion)
		}
		if _, dup := cache.porCodigo[e.Codigo]; dup {
			return nil, fmt.Errorf("estado duplicado %s/%s: %w", categoria, e.Codigo, domain.ErrConfiguracion)
		}
		cache.porCodigo[e.Codigo] = e
		if e.Activo {
			cache.activos = append(cache.activos, e)
		}
	}
	sort.SliceStable(cache.activos, func(i, j int) bool {
		return cache.activos[i].Orden < cache.activos[j].Orden
	})
	return cache, nil
}
