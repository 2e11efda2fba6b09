// internal/core/usecases/engine.go
package usecases

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/heuristic"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
)

// AnalyzerIndex resuelve qué analizadores cubren cada tipo de entidad.
// El orden retornado debe ser estable: determina el orden de fusión y la
// resolución de "primer error" en resultados multi-analizador.
type AnalyzerIndex interface {
	ByType(t domain.EntityType) []ports.Analyzer
}

// Engine ejecuta el ciclo completo de análisis: traversal BFS con pivoting
// acotado por profundidad, enriquecimientos globales sobre la semilla,
// correlación y ensamblado del grafo.
type Engine struct {
	analyzers  AnalyzerIndex
	intelFeed  ports.Enricher
	correlator *Correlator
	logger     logx.Logger
	maxDepth   int
}

// EngineOptions configura el engine.
type EngineOptions struct {
	Analyzers AnalyzerIndex

	// IntelFeed es el enriquecimiento global de índices de inteligencia
	// (dark web). Opcional; nil lo desactiva.
	IntelFeed ports.Enricher

	Logger   logx.Logger
	MaxDepth int
}

// NewEngine crea una nueva instancia del engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}

	return &Engine{
		analyzers:  opts.Analyzers,
		intelFeed:  opts.IntelFeed,
		correlator: NewCorrelator(),
		logger:     opts.Logger.With("component", "engine"),
		maxDepth:   opts.MaxDepth,
	}
}

// RunAnalysis ejecuta un run completo partiendo de la semilla y de los
// artefactos adjuntos (ficheros ya clasificados por el caller). Todo el
// estado del run (cola, visited set, reporte) es propiedad exclusiva de
// esta llamada; varios runs pueden ejecutarse en paralelo.
//
// Ningún fallo de analizador ni de enrichment aborta el run: se registra
// como sobre fallido o warning y el agregado siempre se retorna.
func (e *Engine) RunAnalysis(ctx context.Context, seed domain.Entity, artifacts []domain.Entity) (*domain.RunReport, error) {
	if seed.Value == "" {
		return nil, domain.ErrEmptySeed
	}
	if !seed.Type.IsValid() {
		return nil, domain.ErrInvalidEntityType
	}
	seed.Normalize()

	report := domain.NewRunReport(seed)
	e.logger.Info("starting run",
		"seed", seed.Value,
		"type", seed.Type,
		"artifacts", len(artifacts),
		"max_depth", e.maxDepth,
	)

	// 1. Sembrar la cola: semilla y adjuntos, todos a profundidad 0.
	queue := []domain.QueueItem{{Entity: seed, Depth: 0, Origin: "user_input"}}
	for _, art := range artifacts {
		art.Normalize()
		// Ficheros adjuntos se marcan como artifact; el resto son
		// identificadores extraídos del mismo texto que la semilla.
		isFile := art.Type == domain.EntityTypeImage || art.Type == domain.EntityTypeDocument
		origin := "seed_text"
		if isFile {
			origin = "uploaded_file"
		}
		queue = append(queue, domain.QueueItem{Entity: art, Depth: 0, Origin: origin, Artifact: isFile})
	}

	visited := make(map[string]bool)

	// 2. Bucle principal: BFS estricto. Los items se resuelven de uno en
	// uno, así el visited set no necesita sincronización dentro del run.
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key := item.Entity.Key()
		if visited[key] {
			continue
		}
		visited[key] = true

		res := e.dispatch(ctx, item)
		report.Record(res, item.Depth)

		// 3. Pivoting: solo bajo el límite de profundidad y con éxito.
		if item.Depth >= e.maxDepth || !res.Success {
			continue
		}
		for _, pivot := range pivotsFrom(res) {
			if visited[pivot.Key()] {
				continue
			}
			e.logger.Debug("pivot discovered",
				"from", item.Entity.Value,
				"type", pivot.Type,
				"value", pivot.Value,
			)
			queue = append(queue, domain.QueueItem{
				Entity: pivot,
				Depth:  item.Depth + 1,
				Origin: "derived_from_" + string(item.Entity.Type),
			})
		}
	}

	// 4. Enriquecimientos globales, una única vez y solo sobre la semilla
	// (no sobre cada pivot, para no multiplicar llamadas con cuota).
	// Guardados de forma independiente: el fallo de uno no impide el otro.
	e.enrichThreatActor(report, seed)
	e.enrichIntelFeed(ctx, report, seed)

	// 5. Correlación sobre el conjunto completo, más los parches dirigidos
	// que la pasada de pares produce en lugar de mutar in situ.
	correlations, patches := e.correlator.Correlate(report.All)
	report.Correlations = correlations
	for _, p := range patches {
		if target := report.FindByKey(p.TargetKey); target != nil {
			p.Apply(target)
		}
	}

	report.Graph = BuildGraph(report)
	report.Finalize()

	e.logger.Info("run completed",
		"entities", report.Entities,
		"correlations", len(report.Correlations),
		"warnings", len(report.Warnings),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// dispatch resuelve un item contra sus analizadores. Con varios aplicables
// los sub-análisis corren en paralelo y se fusionan en un único sobre:
// éxito = OR lógico, error = primer sub-error no vacío en orden estable,
// datos = compuesto por analizador.
func (e *Engine) dispatch(ctx context.Context, item domain.QueueItem) *domain.Result {
	entity := item.Entity

	analyzers := e.analyzers.ByType(entity.Type)
	if len(analyzers) == 0 {
		e.logger.Warn("no analyzer for type", "type", entity.Type)
		return domain.Failed(entity, fmt.Sprintf("no analyzer registered for type %q", entity.Type))
	}

	findings := make([]*ports.Finding, len(analyzers))

	if len(analyzers) == 1 {
		findings[0] = e.safeAnalyze(ctx, analyzers[0], entity.Value)
	} else {
		// Sub-llamadas independientes sin estado compartido; la fusión es
		// un join puro tras esperar a todas.
		g, gctx := errgroup.WithContext(ctx)
		for i, an := range analyzers {
			i, an := i, an
			g.Go(func() error {
				findings[i] = e.safeAnalyze(gctx, an, entity.Value)
				return nil
			})
		}
		g.Wait()
	}

	res := &domain.Result{Entity: entity, Artifact: item.Artifact}

	if len(findings) == 1 {
		f := findings[0]
		res.Success = f.Success
		res.Data = f.Data
		res.Err = f.Err
		return res
	}

	fused := &intel.Fused{}
	for i, f := range findings {
		res.Success = res.Success || f.Success
		if res.Err == "" && f.Err != "" {
			// Se conserva solo el primer sub-error aunque el compuesto
			// tenga éxito; los errores posteriores se descartan a propósito
			// para mantener el contrato del sobre.
			res.Err = f.Err
		}
		fused.Parts = append(fused.Parts, intel.FusedPart{
			Analyzer: analyzers[i].Name(),
			Data:     f.Data,
		})
	}
	res.Data = fused
	return res
}

// safeAnalyze aísla una llamada a analizador: errores y panics se degradan
// a Finding fallido, nunca escapan del dispatch.
func (e *Engine) safeAnalyze(ctx context.Context, an ports.Analyzer, value string) (f *ports.Finding) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("analyzer panicked", "analyzer", an.Name(), "panic", fmt.Sprint(r))
			f = ports.Fail(fmt.Sprintf("analyzer %s panicked: %v", an.Name(), r))
		}
	}()

	res, err := an.Analyze(ctx, value)
	if err != nil {
		e.logger.Warn("analyzer failed", "analyzer", an.Name(), "error", err.Error())
		return ports.Fail(err.Error())
	}
	if res == nil {
		return ports.Fail(fmt.Sprintf("analyzer %s returned no finding", an.Name()))
	}
	return res
}

// pivotsFrom aplica el mapa fijo de extracción de pivots por tipo. Debe
// mantenerse alineado con los payloads que los analizadores retornan.
func pivotsFrom(res *domain.Result) []domain.Entity {
	var pivots []domain.Entity

	switch res.Entity.Type {
	case domain.EntityTypeDomain:
		if d, ok := intel.As[*intel.DomainInfo](res.Data); ok {
			for _, email := range d.RelatedEmails {
				pivots = append(pivots, domain.NewEntity(domain.EntityTypeEmail, email))
			}
		}
	case domain.EntityTypeUser:
		if u, ok := intel.As[*intel.UserInfo](res.Data); ok {
			for _, im := range u.IMProfiles {
				for _, email := range im.Emails {
					pivots = append(pivots, domain.NewEntity(domain.EntityTypeEmail, email))
				}
			}
		}
	}
	return pivots
}

// enrichThreatActor evalúa la heurística de actor de amenazas sobre la
// semilla. No hace red; se guarda igualmente para que un panic del scoring
// no tumbe el run.
func (e *Engine) enrichThreatActor(report *domain.RunReport, seed domain.Entity) {
	defer func() {
		if r := recover(); r != nil {
			report.AddWarning(fmt.Sprintf("threat actor heuristic failed: %v", r))
		}
	}()
	report.ThreatActor = heuristic.EvaluateThreatActor(seed.Value)
}

// enrichIntelFeed consulta los índices de inteligencia externos sobre la
// semilla. El resultado se guarda aparte en report.DarkWeb y no entra en
// All: no es un análisis de entidad y no debe correlacionarse contra el
// resultado real de la semilla. Un fallo degrada a warning y el run
// retorna igualmente.
func (e *Engine) enrichIntelFeed(ctx context.Context, report *domain.RunReport, seed domain.Entity) {
	if e.intelFeed == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			report.AddWarning(fmt.Sprintf("intel feed enrichment panicked: %v", r))
		}
	}()

	f, err := e.intelFeed.Enrich(ctx, seed)
	if err != nil {
		e.logger.Warn("intel feed failed", "error", err.Error())
		report.DarkWeb = domain.Failed(seed, err.Error())
		report.AddWarning("intel feed enrichment failed: " + err.Error())
		return
	}
	if f == nil {
		return
	}

	report.DarkWeb = &domain.Result{Entity: seed, Success: f.Success, Data: f.Data, Err: f.Err}
}
