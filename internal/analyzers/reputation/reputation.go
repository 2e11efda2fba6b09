// internal/analyzers/reputation/reputation.go
package reputation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/errors"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
	"rastro/internal/platform/validator"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"reputation",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("reputation analyzer requires a VirusTotal API key")
			}
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:        "reputation",
			Description: "Multi-engine verdicts for IPs, domains and URLs via VirusTotal v3",
			Types: []domain.EntityType{
				domain.EntityTypeIP,
				domain.EntityTypeDomain,
				domain.EntityTypeURL,
			},
			RequiresAuth: true,
			RateLimit:    0.066, // free tier: 4 req/min
		},
	); err != nil {
		logx.New().Warn("failed to register reputation analyzer", "error", err.Error())
	}
}

const baseURL = "https://www.virustotal.com/api/v3"

// maxEngines limita cuántos motores detectores se reportan por recurso.
const maxEngines = 3

// Reputation consulta VirusTotal v3 por el veredicto agregado de los
// motores antivirus sobre una IP, un dominio o una URL.
type Reputation struct {
	client *httpclient.Client
	logger logx.Logger
	apiKey string
}

// New crea una instancia del analizador reputation.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    5 * time.Second,
		MaxRetryBackoff: 60 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &Reputation{
		client: httpclient.New(httpConfig, logger),
		logger: logger.With("analyzer", "reputation"),
		apiKey: cfg.APIKey,
	}
}

// Name retorna el nombre del analizador.
func (r *Reputation) Name() string { return "reputation" }

// Types retorna los tipos de entidad soportados.
func (r *Reputation) Types() []domain.EntityType {
	return []domain.EntityType{
		domain.EntityTypeIP,
		domain.EntityTypeDomain,
		domain.EntityTypeURL,
	}
}

// Analyze consulta el endpoint de VirusTotal correspondiente a la forma
// del valor: IP, URL o dominio.
func (r *Reputation) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	endpoint := endpointFor(value)

	headers := map[string]string{"x-apikey": r.apiKey}
	body, err := r.client.FetchBody(ctx, baseURL+endpoint, headers)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Recurso nunca visto por VT: veredicto limpio, no un fallo.
			return ports.OK(&intel.ReputationInfo{}), nil
		}
		return ports.Fail(fmt.Sprintf("virustotal request failed: %v", err)), err
	}

	var raw vtResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return ports.Fail(fmt.Sprintf("virustotal invalid response: %v", err)), err
	}

	info := raw.toInfo()
	r.logger.Debug("reputation resolved",
		"value", value,
		"malicious", info.Malicious,
		"suspicious", info.Suspicious,
	)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (r *Reputation) Close() error { return nil }

// endpointFor construye la ruta del recurso según la forma del valor.
// Las URLs se identifican en VT v3 con base64url sin padding.
func endpointFor(value string) string {
	switch {
	case isIPShape(value):
		return "/ip_addresses/" + value
	case strings.Contains(value, "://"):
		id := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(value))
		return "/urls/" + id
	default:
		return "/domains/" + validator.NormalizeDomain(value)
	}
}

func isIPShape(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// vtResponse es el subconjunto relevante de la respuesta de VT v3.
type vtResponse struct {
	Data struct {
		Attributes struct {
			Reputation        int      `json:"reputation"`
			Tags              []string `json:"tags"`
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
			} `json:"last_analysis_stats"`
			LastAnalysisResults map[string]struct {
				Category string `json:"category"`
			} `json:"last_analysis_results"`
		} `json:"attributes"`
	} `json:"data"`
}

func (r *vtResponse) toInfo() *intel.ReputationInfo {
	attrs := &r.Data.Attributes

	// Orden alfabético para que la lista de motores sea estable.
	engines := make([]string, 0, maxEngines)
	names := make([]string, 0, len(attrs.LastAnalysisResults))
	for name := range attrs.LastAnalysisResults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if attrs.LastAnalysisResults[name].Category != "malicious" {
			continue
		}
		engines = append(engines, name)
		if len(engines) == maxEngines {
			break
		}
	}

	return &intel.ReputationInfo{
		Malicious:  attrs.LastAnalysisStats.Malicious,
		Suspicious: attrs.LastAnalysisStats.Suspicious,
		Harmless:   attrs.LastAnalysisStats.Harmless,
		Reputation: attrs.Reputation,
		Tags:       attrs.Tags,
		Engines:    engines,
	}
}
