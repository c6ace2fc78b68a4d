package workflow

import (
	"fmt"
	"sync"

	"github.com/jhoicas/Logistica-api/internal/domain"
	"github.com/jhoicas/Logistica-api/internal/domain/entity"
	"github.com/jhoicas/Logistica-api/internal/domain/repository"
)

type claveTransicion struct {
	categoria entity.Categoria
	desde     string
	hacia     string
}

// Validador decide si una transición (categoria, desde, hacia) es legal para
// un actor, contra la tabla de aristas cargada en memoria. Las aristas son
// configuración: se validan al cargar (duplicados activos, origen terminal,
// cruce de categorías) y la validación por llamada es un lookup puro.
type Validador struct {
	repo     repository.TransicionRepository
	catalogo *Catalogo

	mu      sync.RWMutex
	aristas map[claveTransicion]*entity.Transicion
}

// NuevoValidador construye el validador; Recargar debe ejecutarse antes del
// primer uso (el catálogo ya cargado).
func NuevoValidador(repo repository.TransicionRepository, catalogo *Catalogo) *Validador {
	return &Validador{
		repo:     repo,
		catalogo: catalogo,
		aristas:  make(map[claveTransicion]*entity.Transicion),
	}
}

// Recargar lee todas las transiciones y reconstruye el índice. Rechaza con
// ErrConfiguracion los seeds inválidos: dos aristas activas con la misma
// (origen, destino, categoría), aristas entre categorías distintas y aristas
// que salen de un estado final.
func (v *Validador) Recargar() error {
	transiciones, err := v.repo.Listar()
	if err != nil {
		return fmt.Errorf("listar transiciones: %w", err)
	}

	aristas := make(map[claveTransicion]*entity.Transicion, len(transiciones))
	for _, t := range transiciones {
		origen, err := v.catalogo.GetPorID(t.EstadoOrigenID)
		if err != nil {
			return fmt.Errorf("transición %s: origen: %w", t.ID, err)
		}
		destino, err := v.catalogo.GetPorID(t.EstadoDestinoID)
		if err != nil {
			return fmt.Errorf("transición %s: destino: %w", t.ID, err)
		}
		if origen.Categoria != t.Categoria || destino.Categoria != t.Categoria {
			return fmt.Errorf("transición %s cruza categorías: %w", t.ID, domain.ErrConfiguracion)
		}
		if origen.EsFinal {
			return fmt.Errorf("transición %s sale del estado final %s: %w",
				t.ID, origen.Codigo, domain.ErrConfiguracion)
		}

		clave := claveTransicion{t.Categoria, origen.Codigo, destino.Codigo}
		if previa, ok := aristas[clave]; ok {
			if previa.Activa && t.Activa {
				return fmt.Errorf("transición activa duplicada %s→%s (%s): %w",
					origen.Codigo, destino.Codigo, t.Categoria, domain.ErrConfiguracion)
			}
			// Conservar la activa si coexiste con una desactivada.
			if !t.Activa {
				continue
			}
		}
		aristas[clave] = t
	}

	v.mu.Lock()
	v.aristas = aristas
	v.mu.Unlock()
	return nil
}

// Validar decide la legalidad de la transición para el actor dado. Devuelve
// nil o un *domain.RechazoValidacion cuyo Motivo distingue arista inexistente,
// deshabilitada o permiso denegado. El actor sistema solo elude el chequeo de
// permiso en transiciones marcadas automáticas.
func (v *Validador) Validar(entidad entity.EntidadRef, categoria entity.Categoria, desde, hacia string, actor entity.Actor) error {
	rechazo := func(motivo error) error {
		return &domain.RechazoValidacion{
			Entidad:   entidad,
			Categoria: categoria,
			Desde:     desde,
			Hacia:     hacia,
			Motivo:    motivo,
		}
	}

	v.mu.RLock()
	t, ok := v.aristas[claveTransicion{categoria, desde, hacia}]
	v.mu.RUnlock()
	if !ok {
		return rechazo(domain.ErrTransicionInexistente)
	}
	if !t.Activa {
		return rechazo(domain.ErrTransicionDeshabilitada)
	}
	if t.RequierePermiso != "" {
		if actor.Sistema {
			if !t.Automatica {
				return rechazo(domain.ErrPermisoDenegado)
			}
		} else if !actor.Tiene(t.RequierePermiso) {
			return rechazo(domain.ErrPermisoDenegado)
		}
	}
	return nil
}

// Transicion devuelve la arista activa (desde, hacia, categoria) si existe.
func (v *Validador) Transicion(categoria entity.Categoria, desde, hacia string) (*entity.Transicion, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.aristas[claveTransicion{categoria, desde, hacia}]
	if !ok || !t.Activa {
		return nil, false
	}
	return t, true
}
