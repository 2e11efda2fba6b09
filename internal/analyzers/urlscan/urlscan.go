// internal/analyzers/urlscan/urlscan.go
package urlscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/errors"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"urlscan",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("urlscan analyzer requires an API key")
			}
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "urlscan",
			Description:  "Submits URLs to urlscan.io and collects the sandbox verdict",
			Types:        []domain.EntityType{domain.EntityTypeURL},
			RequiresAuth: true,
			RateLimit:    0.2,
		},
	); err != nil {
		logx.New().Warn("failed to register urlscan analyzer", "error", err.Error())
	}
}

const (
	submitURL = "https://urlscan.io/api/v1/scan/"
	resultURL = "https://urlscan.io/api/v1/result/"

	// El resultado tarda en estar disponible tras el submit.
	pollInterval = 5 * time.Second
	maxPolls     = 6
)

// URLScan envía la URL al sandbox de urlscan.io y espera el veredicto.
// Si el resultado no llega a tiempo, el escaneo iniciado sigue siendo un
// hallazgo útil (el ScanID permite consultarlo después).
type URLScan struct {
	client *httpclient.Client
	logger logx.Logger
	apiKey string
}

// New crea una instancia del analizador urlscan.
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

	return &URLScan{
		client: httpclient.New(httpConfig, logger),
		logger: logger.With("analyzer", "urlscan"),
		apiKey: cfg.APIKey,
	}
}

// Name retorna el nombre del analizador.
func (u *URLScan) Name() string { return "urlscan" }

// Types retorna los tipos de entidad soportados.
func (u *URLScan) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeURL}
}

// Analyze envía la URL y sondea el resultado hasta maxPolls veces.
func (u *URLScan) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	scanID, err := u.submit(ctx, value)
	if err != nil {
		return ports.Fail(fmt.Sprintf("urlscan submit failed: %v", err)), err
	}

	info := &intel.URLScanInfo{URL: value, ScanID: scanID}

	result, err := u.awaitResult(ctx, scanID)
	if err != nil {
		// Submit aceptado pero veredicto no disponible todavía.
		u.logger.Warn("urlscan result not ready", "scan_id", scanID, "error", err.Error())
		info.Verdict = "pending"
		return ports.OK(info), nil
	}

	info.Verdict = result.Verdicts.Overall.Verdict()
	info.Score = result.Verdicts.Overall.Score
	info.Categories = result.Verdicts.Overall.Categories
	info.PageDomain = result.Page.Domain
	info.PageIP = result.Page.IP
	info.PageASN = result.Page.ASN

	u.logger.Debug("urlscan completed", "url", value, "verdict", info.Verdict, "score", info.Score)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (u *URLScan) Close() error { return nil }

func (u *URLScan) submit(ctx context.Context, target string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"url":        target,
		"visibility": "public",
	})
	headers := map[string]string{
		"Content-Type": "application/json",
		"API-Key":      u.apiKey,
	}

	resp, err := u.client.Post(ctx, submitURL, bytes.NewReader(payload), headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		return "", errors.Errorf("submit rejected with HTTP %d", resp.StatusCode)
	}

	var raw struct {
		UUID string `json:"uuid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if raw.UUID == "" {
		return "", errors.ErrInvalidResponse
	}
	return raw.UUID, nil
}

func (u *URLScan) awaitResult(ctx context.Context, scanID string) (*scanResult, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for i := 0; i < maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		body, err := u.client.FetchBody(ctx, resultURL+scanID+"/", nil)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue // aún procesando
			}
			return nil, err
		}

		var result scanResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}
	return nil, errors.Errorf("result not available after %d polls", maxPolls)
}

// scanResult es el subconjunto relevante del resultado de urlscan.io.
type scanResult struct {
	Verdicts struct {
		Overall overallVerdict `json:"overall"`
	} `json:"verdicts"`
	Page struct {
		Domain string `json:"domain"`
		IP     string `json:"ip"`
		ASN    string `json:"asn"`
	} `json:"page"`
}

type overallVerdict struct {
	Score      int      `json:"score"`
	Malicious  bool     `json:"malicious"`
	Categories []string `json:"categories"`
}

// Verdict colapsa el veredicto booleano y el score en una etiqueta.
func (o overallVerdict) Verdict() string {
	switch {
	case o.Malicious:
		return "malicious"
	case o.Score > 0:
		return "suspicious"
	default:
		return "benign"
	}
}
