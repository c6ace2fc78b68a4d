package reservas

import (
	"context"
	"time"

	"github.com/jhoicas/Logistica-api/pkg/logger"
)

// Sweeper es el barrido periódico de reservas vencidas: la única actividad de
// fondo del motor. Auto-acotado (batch por pasada) para no competir con el
// tráfico de requests.
type Sweeper struct {
	manager   *Manager
	intervalo time.Duration
	limite    int
	log       *logger.Logger
}

// NuevoSweeper construye el barrido con su intervalo y tamaño de batch.
func NuevoSweeper(manager *Manager, intervalo time.Duration, limite int, log *logger.Logger) *Sweeper {
	return &Sweeper{
		manager:   manager,
		intervalo: intervalo,
		limite:    limite,
		log:       log,
	}
}

// Ejecutar corre el barrido hasta que el contexto se cancele. Pensado para
// lanzarse en una goroutine desde main.
func (s *Sweeper) Ejecutar(ctx context.Context) {
	ticker := time.NewTicker(s.intervalo)
	defer ticker.Stop()

	s.log.Info().
		Dur("intervalo", s.intervalo).
		Int("limite", s.limite).
		Msg("barrido de reservas vencidas iniciado")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return
		case <-ticker.C:
			n, err := s.manager.BarrerVencidas(ctx, time.Now(), s.limite)
			if err != nil {
				s.log.Error().Err(err).Msg("barrido de reservas falló")
				continue
			}
			if n > 0 {
				s.log.Info().Int("vencidas", n).Msg("reservas vencidas liberadas")
			}
		}
	}
}
