// internal/analyzers/emailintel/emailintel.go
package emailintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/heuristic"
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
		"emailintel",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "emailintel",
			Description:  "Email posture: MX/SPF/DMARC, disposable detection, breach exposure",
			Types:        []domain.EntityType{domain.EntityTypeEmail},
			RequiresAuth: false, // HIBP es opcional
			RateLimit:    0.5,
		},
	); err != nil {
		logx.New().Warn("failed to register emailintel analyzer", "error", err.Error())
	}
}

const hibpURL = "https://haveibeenpwned.com/api/v3/breachedaccount/"

// disposableDomains son los proveedores de correo temporal reconocidos.
var disposableDomains = map[string]bool{
	"tempmail.com":     true,
	"10minutemail.com": true,
	"yopmail.com":      true,
}

// EmailIntel analiza la postura de una dirección de correo: registros DNS
// del dominio, si es desechable, exposición en filtraciones e identidad
// deducida de la parte local.
type EmailIntel struct {
	client   *httpclient.Client
	resolver *net.Resolver
	logger   logx.Logger
	hibpKey  string
}

// New crea una instancia del analizador emailintel.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    6 * time.Second, // HIBP rate limit es agresivo
		MaxRetryBackoff: 60 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &EmailIntel{
		client:   httpclient.New(httpConfig, logger),
		resolver: net.DefaultResolver,
		logger:   logger.With("analyzer", "emailintel"),
		hibpKey:  cfg.APIKey,
	}
}

// Name retorna el nombre del analizador.
func (e *EmailIntel) Name() string { return "emailintel" }

// Types retorna los tipos de entidad soportados.
func (e *EmailIntel) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeEmail}
}

// Analyze descompone el email, consulta DNS del dominio y HIBP si hay key.
// Los fallos de DNS no invalidan el análisis: un dominio sin MX es en sí
// mismo un hallazgo.
func (e *EmailIntel) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	local, dom, ok := validator.SplitEmail(value)
	if !ok {
		return ports.Fail("malformed email address"), errors.ErrInvalidInput
	}

	info := &intel.EmailInfo{
		Email:      strings.ToLower(value),
		LocalPart:  local,
		Domain:     dom,
		Disposable: disposableDomains[dom],
		Identity:   heuristic.InferIdentity(value, domain.EntityTypeEmail),
	}

	e.lookupDNS(ctx, dom, info)

	if e.hibpKey != "" {
		breach, err := e.checkBreaches(ctx, info.Email)
		if err != nil {
			e.logger.Warn("hibp lookup failed", "email", info.Email, "error", err.Error())
		} else {
			info.Breach = breach
		}
	}

	e.logger.Debug("email analyzed",
		"email", info.Email,
		"mx", len(info.MXRecords),
		"disposable", info.Disposable,
	)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (e *EmailIntel) Close() error { return nil }

func (e *EmailIntel) lookupDNS(ctx context.Context, dom string, info *intel.EmailInfo) {
	if mxs, err := e.resolver.LookupMX(ctx, dom); err == nil {
		for _, mx := range mxs {
			info.MXRecords = append(info.MXRecords, strings.TrimSuffix(mx.Host, "."))
		}
	}

	if txts, err := e.resolver.LookupTXT(ctx, dom); err == nil {
		info.SPF = findSPF(txts)
	}
	if txts, err := e.resolver.LookupTXT(ctx, "_dmarc."+dom); err == nil {
		info.DMARC = findDMARC(txts)
	}
}

func findSPF(txts []string) string {
	for _, txt := range txts {
		if strings.HasPrefix(strings.ToLower(txt), "v=spf1") {
			return txt
		}
	}
	return ""
}

func findDMARC(txts []string) string {
	for _, txt := range txts {
		if strings.Contains(txt, "v=DMARC1") {
			return txt
		}
	}
	return ""
}

// hibpBreach es un registro de filtración de la API v3 de HIBP.
type hibpBreach struct {
	Name string `json:"Name"`
}

func (e *EmailIntel) checkBreaches(ctx context.Context, account string) (*intel.BreachInfo, error) {
	u := hibpURL + url.PathEscape(account) + "?truncateResponse=false"
	headers := map[string]string{
		"hibp-api-key": e.hibpKey,
		"user-agent":   "rastro/1.0",
	}

	body, err := e.client.FetchBody(ctx, u, headers)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// 404 de HIBP significa cuenta limpia.
			return &intel.BreachInfo{Found: false}, nil
		}
		return nil, err
	}

	var breaches []hibpBreach
	if err := json.Unmarshal(body, &breaches); err != nil {
		return nil, fmt.Errorf("hibp invalid response: %w", err)
	}

	info := &intel.BreachInfo{Found: len(breaches) > 0, Count: len(breaches)}
	for _, b := range breaches {
		info.Breaches = append(info.Breaches, b.Name)
	}
	return info, nil
}
