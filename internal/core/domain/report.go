// internal/core/domain/report.go
package domain

import (
	"time"

	"rastro/internal/core/domain/intel"
)

// RunReport es el agregado que retorna una ejecución completa del motor.
type RunReport struct {
	// Seed es la entidad inicial (ya normalizada) y SeedType su tipo
	// detectado.
	Seed     Entity     `json:"seed"`
	SeedType EntityType `json:"seed_type"`

	// Primary contiene el resultado de cada tipo a profundidad 0: el primer
	// resultado (con éxito o fallo) gana.
	Primary map[EntityType]*Result `json:"primary"`

	// Derived acumula los resultados descubiertos por pivoting (profundidad
	// mayor que 0), una lista por tipo.
	Derived map[EntityType][]*Result `json:"derived,omitempty"`

	// All es el desglose completo en orden de procesamiento; es la entrada
	// de la pasada de correlación.
	All []*Result `json:"all"`

	// Enriquecimientos globales sobre la semilla, independientes entre sí.
	// Cualquiera puede ser nil si su enrichment falló (el run no se aborta).
	ThreatActor *intel.ThreatActorInfo `json:"threat_actor,omitempty"`
	DarkWeb     *Result                `json:"darkweb,omitempty"`

	Correlations []Correlation `json:"correlations"`
	Graph        *Graph        `json:"graph"`

	// Metadata de la ejecución.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Entities  int           `json:"entities_analyzed"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// NewRunReport crea un reporte vacío para la semilla dada.
func NewRunReport(seed Entity) *RunReport {
	return &RunReport{
		Seed:      seed,
		SeedType:  seed.Type,
		Primary:   make(map[EntityType]*Result),
		Derived:   make(map[EntityType][]*Result),
		StartedAt: time.Now(),
	}
}

// Record registra un sobre en el reporte según su profundidad. A
// profundidad 0 gana el primer resultado por tipo; los derivados se
// acumulan en listas.
func (r *RunReport) Record(res *Result, depth int) {
	r.All = append(r.All, res)
	r.Entities++

	if depth == 0 {
		if _, exists := r.Primary[res.Entity.Type]; !exists {
			r.Primary[res.Entity.Type] = res
		}
		return
	}
	r.Derived[res.Entity.Type] = append(r.Derived[res.Entity.Type], res)
}

// FindByKey busca un resultado por su clave de entidad.
func (r *RunReport) FindByKey(key string) *Result {
	for _, res := range r.All {
		if res.Entity.Key() == key {
			return res
		}
	}
	return nil
}

// AddWarning registra una degradación no fatal (p.ej. un enrichment global
// caído).
func (r *RunReport) AddWarning(msg string) {
	if msg == "" {
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// Finalize cierra las métricas del run.
func (r *RunReport) Finalize() {
	r.Duration = time.Since(r.StartedAt)
}
