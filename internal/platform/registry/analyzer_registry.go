// internal/platform/registry/analyzer_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"rastro/internal/core/domain"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/rate"
)

// AnalyzerRegistry gestiona el registro y construcción de analizadores.
// Implementa el patrón Registry + Factory para desacoplar la creación
// de analizadores del código de aplicación.
type AnalyzerRegistry struct {
	mu        sync.RWMutex
	factories map[string]AnalyzerFactory
	metadata  map[string]ports.AnalyzerMetadata
	logger    logx.Logger
}

// Deps agrupa las dependencias compartidas que una factory puede necesitar.
type Deps struct {
	HTTP    *httpclient.Client
	Limiter *rate.Limiter
	Logger  logx.Logger
}

// AnalyzerFactory es una función que crea una instancia de Analyzer.
type AnalyzerFactory func(cfg ports.AnalyzerConfig, deps Deps) (ports.Analyzer, error)

// globalRegistry es la instancia global del registry.
var globalRegistry *AnalyzerRegistry
var once sync.Once

// Global retorna la instancia global del registry.
func Global() *AnalyzerRegistry {
	once.Do(func() {
		globalRegistry = NewAnalyzerRegistry(logx.New())
	})
	return globalRegistry
}

// NewAnalyzerRegistry crea un nuevo registry de analizadores.
func NewAnalyzerRegistry(logger logx.Logger) *AnalyzerRegistry {
	return &AnalyzerRegistry{
		factories: make(map[string]AnalyzerFactory),
		metadata:  make(map[string]ports.AnalyzerMetadata),
		logger:    logger.With("component", "analyzer-registry"),
	}
}

// Register registra una analyzer factory con su metadata.
// Típicamente llamado desde init() de cada package de analizador.
func (r *AnalyzerRegistry) Register(name string, factory AnalyzerFactory, meta ports.AnalyzerMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("analyzer name cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory cannot be nil for analyzer %s", name)
	}

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("analyzer %s is already registered", name)
	}

	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("analyzer registered", "name", name, "types", len(meta.Types))

	return nil
}

// Build construye todos los analizadores habilitados según la configuración
// y los devuelve como un Set indexado por tipo de entidad.
func (r *AnalyzerRegistry) Build(configs map[string]ports.AnalyzerConfig, deps Deps) (*Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if configs == nil {
		return nil, fmt.Errorf("configs cannot be nil")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	set := newSet()
	errs := make([]error, 0)

	// Orden estable de construcción para que la fusión multi-analizador
	// sea determinista (importa para la resolución de "primer error").
	names := make([]string, 0, len(configs))
	for name, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, exists := r.factories[name]; !exists {
			r.logger.Warn("analyzer not registered, skipping", "analyzer", name)
			errs = append(errs, fmt.Errorf("analyzer %s not registered in registry", name))
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		factory := r.factories[name]

		an, err := factory(configs[name], deps)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to build analyzer %s: %w", name, err))
			continue
		}

		set.add(an)
		r.logger.Debug("analyzer built", "name", name)
	}

	if len(errs) > 0 {
		// Log errors pero no fallar completamente
		for _, err := range errs {
			r.logger.Warn("analyzer build error", "error", err.Error())
		}
	}

	if set.Len() == 0 && len(configs) > 0 {
		return nil, domain.ErrNoAnalyzers
	}

	deps.Logger.Info("analyzers built", "count", set.Len(), "requested", len(configs))
	return set, nil
}

// List retorna los nombres de todos los analizadores registrados.
func (r *AnalyzerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMetadata retorna el metadata de un analizador.
func (r *AnalyzerRegistry) GetMetadata(name string) (ports.AnalyzerMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// GetAllMetadata retorna el metadata de todos los analizadores registrados.
func (r *AnalyzerRegistry) GetAllMetadata() map[string]ports.AnalyzerMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]ports.AnalyzerMetadata, len(r.metadata))
	for name, meta := range r.metadata {
		result[name] = meta
	}
	return result
}

// IsRegistered verifica si un analizador está registrado.
func (r *AnalyzerRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear elimina todos los analizadores registrados (útil para testing).
func (r *AnalyzerRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]AnalyzerFactory)
	r.metadata = make(map[string]ports.AnalyzerMetadata)
}

// Set es el conjunto de analizadores ya construidos, indexado por tipo.
type Set struct {
	all    []ports.Analyzer
	byType map[domain.EntityType][]ports.Analyzer
}

func newSet() *Set {
	return &Set{
		byType: make(map[domain.EntityType][]ports.Analyzer),
	}
}

func (s *Set) add(an ports.Analyzer) {
	s.all = append(s.all, an)
	for _, t := range an.Types() {
		s.byType[t] = append(s.byType[t], an)
	}
}

// ByType retorna los analizadores que cubren un tipo de entidad, en el
// orden estable de construcción.
func (s *Set) ByType(t domain.EntityType) []ports.Analyzer {
	return s.byType[t]
}

// All retorna todos los analizadores construidos.
func (s *Set) All() []ports.Analyzer {
	return s.all
}

// Len retorna el número de analizadores construidos.
func (s *Set) Len() int {
	return len(s.all)
}

// Close cierra todos los analizadores, acumulando el primer error.
func (s *Set) Close() error {
	var first error
	for _, an := range s.all {
		if err := an.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewSetOf construye un Set directamente desde instancias, sin pasar por
// factories. Pensado para tests con analizadores mock.
func NewSetOf(analyzers ...ports.Analyzer) *Set {
	set := newSet()
	for _, an := range analyzers {
		set.add(an)
	}
	return set
}
