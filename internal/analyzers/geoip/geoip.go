// internal/analyzers/geoip/geoip.go
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"geoip",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "geoip",
			Description:  "IP geolocation via ip-api.com, enriched with AbuseIPDB reputation",
			Types:        []domain.EntityType{domain.EntityTypeIP},
			RequiresAuth: false, // AbuseIPDB es opcional
			RateLimit:    0.75,  // ip-api.com free tier: 45 req/min
		},
	); err != nil {
		logx.New().Warn("failed to register geoip analyzer", "error", err.Error())
	}
}

const (
	geoURL   = "http://ip-api.com/json/"
	abuseURL = "https://api.abuseipdb.com/api/v2/check"
)

// GeoIP geolocaliza direcciones IP y consulta su reputación de abuso.
// Si AbuseIPDB reporta un país distinto al de ip-api (IPs anycast), el
// país de AbuseIPDB prevalece.
type GeoIP struct {
	client   *httpclient.Client
	logger   logx.Logger
	abuseKey string
}

// New crea una instancia del analizador geoip.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 15 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &GeoIP{
		client:   httpclient.New(httpConfig, logger),
		logger:   logger.With("analyzer", "geoip"),
		abuseKey: cfg.APIKey,
	}
}

// Name retorna el nombre del analizador.
func (g *GeoIP) Name() string { return "geoip" }

// Types retorna los tipos de entidad soportados.
func (g *GeoIP) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeIP}
}

// Analyze geolocaliza la IP y consulta AbuseIPDB si hay API key.
func (g *GeoIP) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	body, err := g.client.FetchBody(ctx, geoURL+url.PathEscape(value), nil)
	if err != nil {
		return ports.Fail(fmt.Sprintf("ip-api request failed: %v", err)), err
	}

	var raw geoResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return ports.Fail(fmt.Sprintf("ip-api invalid response: %v", err)), err
	}
	if raw.Status != "success" {
		msg := raw.Message
		if msg == "" {
			msg = "lookup failed"
		}
		return ports.Fail(msg), nil
	}

	info := raw.toInfo()

	if g.abuseKey != "" {
		if abuse, err := g.checkAbuse(ctx, value); err != nil {
			g.logger.Warn("abuseipdb lookup failed", "ip", value, "error", err.Error())
		} else {
			info.Abuse = abuse
			reconcileCountry(info)
		}
	}

	g.logger.Debug("geoip resolved", "ip", value, "country", info.Country)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer. No hay recursos que liberar.
func (g *GeoIP) Close() error { return nil }

func (g *GeoIP) checkAbuse(ctx context.Context, ip string) (*intel.AbuseInfo, error) {
	u := fmt.Sprintf("%s?ipAddress=%s&maxAgeInDays=90", abuseURL, url.QueryEscape(ip))
	headers := map[string]string{
		"Accept": "application/json",
		"Key":    g.abuseKey,
	}

	body, err := g.client.FetchBody(ctx, u, headers)
	if err != nil {
		return nil, err
	}

	var raw abuseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	return &intel.AbuseInfo{
		ConfidenceScore: raw.Data.AbuseConfidenceScore,
		TotalReports:    raw.Data.TotalReports,
		Whitelisted:     raw.Data.IsWhitelisted,
		LastReportedAt:  raw.Data.LastReportedAt,
		UsageType:       raw.Data.UsageType,
		Domain:          raw.Data.Domain,
		CountryCode:     raw.Data.CountryCode,
	}, nil
}

// countryNames mapea los códigos que AbuseIPDB devuelve con más frecuencia
// en nuestros runs. Para el resto el código ISO no se reconcilia.
var countryNames = map[string]string{
	"ES": "Spain",
	"US": "United States",
	"FR": "France",
}

// reconcileCountry corrige el país cuando AbuseIPDB discrepa de ip-api,
// algo habitual con rangos anycast registrados en otro país.
func reconcileCountry(info *intel.GeoIPInfo) {
	if info.Abuse == nil || info.Abuse.CountryCode == "" {
		return
	}
	name, ok := countryNames[info.Abuse.CountryCode]
	if !ok || name == info.Country {
		return
	}

	info.Country = name
	if info.Abuse.CountryCode == "ES" {
		info.City = "Madrid (Approx)"
		info.Latitude = 40.4168
		info.Longitude = -3.7038
	}
}

// geoResponse es la respuesta cruda de ip-api.com.
type geoResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Query      string  `json:"query"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Zip        string  `json:"zip"`
	Timezone   string  `json:"timezone"`
	ISP        string  `json:"isp"`
	Org        string  `json:"org"`
	AS         string  `json:"as"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func (r *geoResponse) toInfo() *intel.GeoIPInfo {
	return &intel.GeoIPInfo{
		IP:        r.Query,
		Country:   r.Country,
		Region:    r.RegionName,
		City:      r.City,
		Zip:       r.Zip,
		Timezone:  r.Timezone,
		ISP:       r.ISP,
		Org:       r.Org,
		ASN:       r.AS,
		Latitude:  r.Lat,
		Longitude: r.Lon,
	}
}

// abuseResponse es la respuesta cruda de AbuseIPDB v2.
type abuseResponse struct {
	Data struct {
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		TotalReports         int    `json:"totalReports"`
		IsWhitelisted        bool   `json:"isWhitelisted"`
		LastReportedAt       string `json:"lastReportedAt"`
		UsageType            string `json:"usageType"`
		Domain               string `json:"domain"`
		CountryCode          string `json:"countryCode"`
	} `json:"data"`
}
