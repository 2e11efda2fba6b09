// internal/analyzers/darkweb/darkweb.go
package darkweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/errors"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package. Deshabilitado por
// defecto en la configuración: requiere key y conciencia operacional.
func init() {
	if err := registry.Global().Register(
		"darkweb",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("darkweb analyzer requires an API key")
			}
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "darkweb",
			Description:  "Target mentions in dark web indexes and leak markets",
			Types:        []domain.EntityType{domain.EntityTypeEmail, domain.EntityTypeUser, domain.EntityTypeDomain},
			RequiresAuth: true,
			RateLimit:    0.5,
		},
	); err != nil {
		logx.New().Warn("failed to register darkweb analyzer", "error", err.Error())
	}
}

const searchURL = "https://api.vysion.ai/api/v1/search"

// leakMarkers identifican hits que provienen de mercados de filtraciones
// y no de simples menciones.
var leakMarkers = []string{"leak", "ransom", "stealer", "combo", "breach", "dump"}

// DarkWeb busca menciones del objetivo en índices de dark web. Sirve
// también como enriquecimiento global: una única búsqueda de la semilla
// tras el traversal.
type DarkWeb struct {
	client *httpclient.Client
	logger logx.Logger
	apiKey string
}

// New crea una instancia del analizador darkweb.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    3 * time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &DarkWeb{
		client: httpclient.New(httpConfig, logger),
		logger: logger.With("analyzer", "darkweb"),
		apiKey: cfg.APIKey,
	}
}

// NewEnricher construye la variante Enricher para el post-traversal.
func NewEnricher(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Enricher {
	return New(cfg, logger).(*DarkWeb)
}

// Name retorna el nombre del analizador.
func (d *DarkWeb) Name() string { return "darkweb" }

// Types retorna los tipos de entidad soportados.
func (d *DarkWeb) Types() []domain.EntityType {
	return []domain.EntityType{
		domain.EntityTypeEmail,
		domain.EntityTypeUser,
		domain.EntityTypeDomain,
	}
}

// Analyze busca el valor en el índice.
func (d *DarkWeb) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	info, err := d.search(ctx, value)
	if err != nil {
		return ports.Fail(fmt.Sprintf("dark web search failed: %v", err)), err
	}

	d.logger.Debug("dark web searched", "query", value, "hits", info.Total)
	return ports.OK(info), nil
}

// Enrich implementa ports.Enricher: la misma búsqueda, contra la semilla.
func (d *DarkWeb) Enrich(ctx context.Context, seed domain.Entity) (*ports.Finding, error) {
	return d.Analyze(ctx, seed.Value)
}

// Close implementa ports.Analyzer.
func (d *DarkWeb) Close() error { return nil }

// searchResponse es la respuesta del índice de búsqueda.
type searchResponse struct {
	Hits []struct {
		Page struct {
			Title   string   `json:"title"`
			URL     string   `json:"url"`
			Date    string   `json:"date"`
			Tags    []string `json:"tags"`
			Network string   `json:"network"`
		} `json:"page"`
	} `json:"hits"`
}

func (d *DarkWeb) search(ctx context.Context, query string) (*intel.DarkWebInfo, error) {
	u := searchURL + "?q=" + url.QueryEscape(query)
	headers := map[string]string{"x-api-key": d.apiKey}

	body, err := d.client.FetchBody(ctx, u, headers)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &intel.DarkWebInfo{Query: query}, nil
		}
		return nil, err
	}

	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	info := &intel.DarkWebInfo{Query: query, Total: len(raw.Hits)}
	for _, h := range raw.Hits {
		info.Hits = append(info.Hits, intel.DarkWebHit{
			Title: h.Page.Title,
			URL:   h.Page.URL,
			Date:  h.Page.Date,
			Leak:  isLeakHit(h.Page.Title, h.Page.Tags),
		})
	}
	return info, nil
}

// isLeakHit decide si un hit es una filtración según sus tags o título.
func isLeakHit(title string, tags []string) bool {
	lower := strings.ToLower(title)
	for _, marker := range leakMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), marker) {
				return true
			}
		}
	}
	return false
}
