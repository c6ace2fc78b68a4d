package workflow

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

type claveMapeo struct {
	categoriaOrigen  entity.Categoria
	codigoOrigen     string
	categoriaDestino entity.Categoria
}

// Mapeador resuelve cascadas entre categorías: dado un cambio de estado en la
// categoría origen, qué estado corresponde en la categoría destino. Entre
// mapeos activos con la misma clave gana la prioridad más alta; un empate de
// prioridades es ambiguo y se rechaza al cargar en vez de adivinar.
type Mapeador struct {
	repo     repository.MapeoRepository
	catalogo *Catalogo

	mu     sync.RWMutex
	reglas map[claveMapeo]*entity.MapeoEstado
	// destinos indexa, por (categoría, código de origen), las categorías
	// destino con cascada definida.
	destinos map[claveTransicion][]entity.Categoria
}

// NuevoMapeador construye el mapeador; Recargar debe ejecutarse antes del
// primer uso (el catálogo ya cargado).
func NuevoMapeador(repo repository.MapeoRepository, catalogo *Catalogo) *Mapeador {
	return &Mapeador{
		repo:     repo,
		catalogo: catalogo,
		reglas:   make(map[claveMapeo]*entity.MapeoEstado),
		destinos: make(map[claveTransicion][]entity.Categoria),
	}
}

// Recargar lee todos los mapeos y reconstruye el índice, resolviendo la
// prioridad más alta por clave. ErrConfiguracion si dos mapeos activos de la
// misma clave empatan en prioridad, o si origen/destino no calzan con sus
// categorías.
func (m *Mapeador) Recargar() error {
	mapeos, err := m.repo.Listar()
	if err != nil {
		return fmt.Errorf("listar mapeos: %w", err)
	}

	reglas := make(map[claveMapeo]*entity.MapeoEstado)
	for _, mp := range mapeos {
		if !mp.Activo {
			continue
		}
		origen, err := m.catalogo.GetPorID(mp.EstadoOrigenID)
		if err != nil {
			return fmt.Errorf("mapeo %s: origen: %w", mp.ID, err)
		}
		destino, err := m.catalogo.GetPorID(mp.EstadoDestinoID)
		if err != nil {
			return fmt.Errorf("mapeo %s: destino: %w", mp.ID, err)
		}
		if origen.Categoria != mp.CategoriaOrigen || destino.Categoria != mp.CategoriaDestino {
			return fmt.Errorf("mapeo %s no calza con las categorías declaradas: %w",
				mp.ID, domain.ErrConfiguracion)
		}
		if mp.CategoriaOrigen == mp.CategoriaDestino {
			return fmt.Errorf("mapeo %s dentro de la misma categoría: %w", mp.ID, domain.ErrConfiguracion)
		}

		clave := claveMapeo{mp.CategoriaOrigen, origen.Codigo, mp.CategoriaDestino}
		previa, ok := reglas[clave]
		switch {
		case !ok:
			reglas[clave] = mp
		case previa.Prioridad == mp.Prioridad:
			return fmt.Errorf("mapeos activos %s→%s con prioridad %d empatada: %w",
				mp.CategoriaOrigen, mp.CategoriaDestino, mp.Prioridad, domain.ErrConfiguracion)
		case mp.Prioridad > previa.Prioridad:
			reglas[clave] = mp
		}
	}

	destinos := make(map[claveTransicion][]entity.Categoria)
	for clave := range reglas {
		k := claveTransicion{categoria: clave.categoriaOrigen, desde: clave.codigoOrigen}
		destinos[k] = append(destinos[k], clave.categoriaDestino)
	}
	// Orden determinista de cascada entre categorías destino.
	for _, cats := range destinos {
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	}

	m.mu.Lock()
	m.reglas = reglas
	m.destinos = destinos
	m.mu.Unlock()
	return nil
}

// Cascada devuelve el estado destino resuelto para (categoriaOrigen,
// codigoOrigen, categoriaDestino), o ok=false si no hay mapeo (no es un
// error: muchos estados no cascadan).
func (m *Mapeador) Cascada(categoriaOrigen entity.Categoria, codigoOrigen string, categoriaDestino entity.Categoria) (*entity.Estado, bool, error) {
	m.mu.RLock()
	mp, ok := m.reglas[claveMapeo{categoriaOrigen, codigoOrigen, categoriaDestino}]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	destino, err := m.catalogo.GetPorID(mp.EstadoDestinoID)
	if err != nil {
		return nil, false, err
	}
	return destino, true, nil
}

// CategoriasDestino devuelve, en orden determinista, las categorías hacia las
// que el estado dado cascada.
func (m *Mapeador) CategoriasDestino(categoriaOrigen entity.Categoria, codigoOrigen string) []entity.Categoria {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.destinos[claveTransicion{categoria: categoriaOrigen, desde: codigoOrigen}]
	out := make([]entity.Categoria, len(src))
	copy(out, src)
	return out
}
