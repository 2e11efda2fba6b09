// internal/core/ports/analyzer.go
package ports

import (
	"context"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
)

// Analyzer es el port primario para toda capacidad de análisis por tipo de
// entidad. El orquestador trata a cada implementación como una caja negra
// que puede ser lenta, inestable o devolver datos parciales: ningún fallo
// suyo se propaga como error del run.
type Analyzer interface {
	// Name retorna el nombre único del analizador (ej: "geoip", "profiles").
	Name() string

	// Types retorna los tipos de entidad que este analizador sabe procesar.
	// Un mismo analizador puede cubrir varios (ej: reputation cubre ip,
	// domain y url).
	Types() []domain.EntityType

	// Analyze ejecuta el análisis sobre un valor ya normalizado.
	Analyze(ctx context.Context, value string) (*Finding, error)

	// Close libera recursos del analizador.
	Close() error
}

// Finding es el sobre normalizado que retorna un analizador individual,
// antes de la fusión multi-analizador del orquestador.
type Finding struct {
	Success bool
	Data    intel.Payload
	Err     string
}

// OK construye un Finding con éxito.
func OK(data intel.Payload) *Finding {
	return &Finding{Success: true, Data: data}
}

// Fail construye un Finding fallido con mensaje descriptivo.
func Fail(msg string) *Finding {
	return &Finding{Success: false, Err: msg}
}

// Enricher es el port de los enriquecimientos globales post-traversal, que
// se ejecutan una única vez contra la semilla original.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, seed domain.Entity) (*Finding, error)
}

// AnalyzerConfig contiene la configuración específica de un analizador.
type AnalyzerConfig struct {
	// Enabled indica si el analizador está habilitado.
	Enabled bool `yaml:"enabled"`

	// Timeout tiempo máximo por llamada.
	Timeout time.Duration `yaml:"timeout"`

	// Retries número de reintentos HTTP.
	Retries int `yaml:"retries"`

	// RateLimit límite de peticiones por segundo (0 = sin límite).
	RateLimit float64 `yaml:"rate_limit"`

	// APIKey credencial del servicio upstream, si la requiere.
	APIKey string `yaml:"api_key"`

	// ProxyURL encamina las llamadas del analizador a través de un proxy
	// HTTP o SOCKS5 (vacío = conexión directa).
	ProxyURL string `yaml:"proxy_url"`

	// Custom configuración específica del analizador.
	Custom map[string]string `yaml:"custom"`
}

// DefaultAnalyzerConfig retorna una configuración por defecto.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Enabled: true,
		Timeout: 30 * time.Second,
		Retries: 2,
		Custom:  make(map[string]string),
	}
}

// AnalyzerMetadata describe un analizador registrado.
type AnalyzerMetadata struct {
	Name         string
	Description  string
	Types        []domain.EntityType
	RequiresAuth bool
	RateLimit    float64 // límite recomendado de requests/segundo
}
