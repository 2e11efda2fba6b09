// internal/analyzers/profiles/profiles.go
package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/heuristic"
	"rastro/internal/core/ports"
	"rastro/internal/platform/errors"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"profiles",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "profiles",
			Description:  "Username presence across social platforms, breach exposure and IM accounts",
			Types:        []domain.EntityType{domain.EntityTypeUser},
			RequiresAuth: false,
			RateLimit:    1.0,
		},
	); err != nil {
		logx.New().Warn("failed to register profiles analyzer", "error", err.Error())
	}
}

// sites son las plataformas sondeadas. El orden define el orden de los
// perfiles en el resultado.
var sites = []struct {
	Name string
	URL  string
}{
	{"Twitter", "https://twitter.com/%s"},
	{"GitHub", "https://github.com/%s"},
	{"Instagram", "https://www.instagram.com/%s"},
	{"Reddit", "https://www.reddit.com/user/%s"},
	{"Twitch", "https://www.twitch.tv/%s"},
}

const (
	hibpURL   = "https://haveibeenpwned.com/api/v3/breachedaccount/"
	vysionIM  = "https://api.vysion.ai/api/v1/im/accounts"
	maxProbes = 10
)

// Profiles comprueba la presencia de un username en plataformas sociales
// por sondeo directo: 200 confirma, 404 descarta y cualquier otra cosa
// (bloqueos anti-bot incluidos) queda para verificación manual.
type Profiles struct {
	client    *httpclient.Client
	logger    logx.Logger
	hibpKey   string
	vysionKey string
}

// New crea una instancia del analizador profiles.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      0, // un 404 o un bloqueo no se reintenta
		RetryBackoff:    time.Second,
		MaxRetryBackoff: 5 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  2,
	}

	return &Profiles{
		client:    httpclient.New(httpConfig, logger),
		logger:    logger.With("analyzer", "profiles"),
		hibpKey:   cfg.APIKey,
		vysionKey: cfg.Custom["vysion_api_key"],
	}
}

// Name retorna el nombre del analizador.
func (p *Profiles) Name() string { return "profiles" }

// Types retorna los tipos de entidad soportados.
func (p *Profiles) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeUser}
}

// Analyze sondea todas las plataformas en paralelo y enriquece con HIBP,
// cuentas de mensajería e identidad heurística.
func (p *Profiles) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	info := &intel.UserInfo{
		Username: value,
		Profiles: p.probeSites(ctx, value),
		Identity: heuristic.InferIdentity(value, domain.EntityTypeUser),
	}

	if p.hibpKey != "" {
		if breach, err := p.checkBreaches(ctx, value); err != nil {
			p.logger.Warn("hibp lookup failed", "username", value, "error", err.Error())
		} else {
			info.Breach = breach
		}
	}

	if p.vysionKey != "" {
		if ims, err := p.lookupIMAccounts(ctx, value); err != nil {
			p.logger.Warn("im lookup failed", "username", value, "error", err.Error())
		} else {
			info.IMProfiles = ims
		}
	}

	p.logger.Debug("username analyzed",
		"username", value,
		"found", len(info.FoundProfiles()),
		"im_profiles", len(info.IMProfiles),
	)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (p *Profiles) Close() error { return nil }

func (p *Profiles) probeSites(ctx context.Context, username string) []intel.Profile {
	results := make([]intel.Profile, len(sites))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxProbes)
	for i, site := range sites {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, name, tmpl string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = p.probeOne(ctx, name, fmt.Sprintf(tmpl, url.PathEscape(username)))
		}(i, site.Name, site.URL)
	}
	wg.Wait()

	// Los perfiles confirmados van primero.
	sort.SliceStable(results, func(i, j int) bool {
		return rank(results[i].Status) < rank(results[j].Status)
	})
	return results
}

func rank(status string) int {
	switch status {
	case intel.ProfileFound:
		return 0
	case intel.ProfileCheckManually:
		return 1
	default:
		return 2
	}
}

func (p *Profiles) probeOne(ctx context.Context, site, u string) intel.Profile {
	prof := intel.Profile{Site: site, URL: u, Status: intel.ProfileCheckManually}

	resp, err := p.client.Get(ctx, u, nil)
	if err != nil {
		return prof
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == 200:
		prof.Status = intel.ProfileFound
	case resp.StatusCode == 404:
		prof.Status = intel.ProfileNotFound
	}
	return prof
}

type hibpBreach struct {
	Name string `json:"Name"`
}

func (p *Profiles) checkBreaches(ctx context.Context, account string) (*intel.BreachInfo, error) {
	u := hibpURL + url.PathEscape(account) + "?truncateResponse=false"
	headers := map[string]string{
		"hibp-api-key": p.hibpKey,
		"user-agent":   "rastro/1.0",
	}

	body, err := p.client.FetchBody(ctx, u, headers)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &intel.BreachInfo{Found: false}, nil
		}
		return nil, err
	}

	var breaches []hibpBreach
	if err := json.Unmarshal(body, &breaches); err != nil {
		return nil, err
	}

	info := &intel.BreachInfo{Found: len(breaches) > 0, Count: len(breaches)}
	for _, b := range breaches {
		info.Breaches = append(info.Breaches, b.Name)
	}
	return info, nil
}

// imResponse es la respuesta del índice de cuentas de mensajería.
type imResponse struct {
	Hits []struct {
		Platform  string   `json:"platform"`
		UserID    string   `json:"user_id"`
		Usernames []string `json:"usernames"`
		Emails    []string `json:"emails"`
	} `json:"hits"`
}

// lookupIMAccounts busca cuentas de mensajería indexadas para el username.
// Los emails asociados alimentan el pivoting user -> email del orquestador.
func (p *Profiles) lookupIMAccounts(ctx context.Context, username string) ([]intel.IMProfile, error) {
	u := vysionIM + "?username=" + url.QueryEscape(username)
	headers := map[string]string{"x-api-key": p.vysionKey}

	body, err := p.client.FetchBody(ctx, u, headers)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var raw imResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	out := make([]intel.IMProfile, 0, len(raw.Hits))
	for _, h := range raw.Hits {
		out = append(out, intel.IMProfile{
			Platform:  h.Platform,
			UserID:    h.UserID,
			Usernames: h.Usernames,
			Emails:    h.Emails,
		})
	}
	return out, nil
}
