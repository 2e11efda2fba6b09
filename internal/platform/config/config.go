// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"rastro/internal/core/ports"
)

type Config struct {
	// App
	Seed         string `yaml:"seed"`
	MaxDepth     int    `yaml:"max_depth"`
	TimeoutS     int    `yaml:"timeout"` // segundos (0 = sin timeout)
	PrintVersion bool   `yaml:"-"`

	// IO
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"` // table | json | markdown

	// Analyzers: mapa dinámico de configuraciones por analizador
	// Key = nombre del analizador (ej: "geoip", "reputation", "profiles")
	Analyzers map[string]ports.AnalyzerConfig `yaml:"analyzers"`

	// AI
	AI AI `yaml:"ai"`

	// DarkWeb
	DarkWeb DarkWeb `yaml:"darkweb"`

	// Proxy
	ProxyURL string `yaml:"proxy_url"`
}

type AI struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type DarkWeb struct {
	Enabled  bool   `yaml:"enabled"`
	ProxyURL string `yaml:"proxy_url"` // SOCKS5 hacia Tor
}

// analyzerNames enumera los analizadores con entrada por defecto en la
// configuración. El registry valida contra este set al construir.
var analyzerNames = []string{
	"geoip", "reputation", "domainintel", "emailintel", "profiles",
	"discord", "phone", "wallet", "urlscan", "exif", "docmeta",
	"ai", "darkweb",
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	analyzers := make(map[string]ports.AnalyzerConfig, len(analyzerNames))
	for _, name := range analyzerNames {
		analyzers[name] = ports.DefaultAnalyzerConfig()
	}

	// darkweb es opt-in: requiere proxy Tor operativo
	dw := analyzers["darkweb"]
	dw.Enabled = false
	analyzers["darkweb"] = dw

	return Config{
		Seed:      "",
		MaxDepth:  2,
		TimeoutS:  300,
		OutputDir: "rastro_out",
		Format:    "table",
		Analyzers: analyzers,
		AI: AI{
			Model: "gemini-2.0-flash",
		},
		DarkWeb: DarkWeb{
			Enabled:  false,
			ProxyURL: "socks5://127.0.0.1:9050",
		},
	}
}

// Load inicializa la configuración: defaults -> YAML -> ENV.
// Los flags de CLI se aplican después, en cmd (tienen prioridad máxima).
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := loadFromFile(&cfg); err != nil {
		return cfg, err
	}
	loadFromEnv(&cfg)
	normalize(&cfg)

	return cfg, nil
}

// DefaultPath retorna la ruta del archivo de configuración según XDG.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "rastro", "config.yaml")
}

// loadFromFile carga el YAML de configuración si existe.
// RASTRO_CONFIG permite apuntar a una ruta alternativa.
func loadFromFile(cfg *Config) error {
	path := getenv("RASTRO_CONFIG", DefaultPath())

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: leyendo %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parseando %s: %w", path, err)
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv("RASTRO_SEED", ""); v != "" {
		cfg.Seed = v
	}
	if v := getenv("RASTRO_MAX_DEPTH", ""); v != "" {
		cfg.MaxDepth = parseInt(v, cfg.MaxDepth)
	}
	if v := getenv("RASTRO_TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv("RASTRO_OUTPUT_DIR", ""); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("RASTRO_FORMAT", ""); v != "" {
		cfg.Format = v
	}
	if v := getenv("RASTRO_PROXY_URL", ""); v != "" {
		cfg.ProxyURL = v
	}
	if v := getenv("RASTRO_AI_API_KEY", ""); v != "" {
		cfg.AI.APIKey = v
	}
	if v := getenv("GEMINI_API_KEY", ""); v != "" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = v
	}
	if v := getenv("RASTRO_AI_MODEL", ""); v != "" {
		cfg.AI.Model = v
	}
	if v := getenv("RASTRO_DARKWEB_ENABLED", ""); v != "" {
		cfg.DarkWeb.Enabled = parseBool(v)
	}
	if v := getenv("RASTRO_DARKWEB_PROXY", ""); v != "" {
		cfg.DarkWeb.ProxyURL = v
	}

	// Analyzers desde ENV
	// Formato: RASTRO_ANALYZERS_GEOIP_ENABLED=true
	//          RASTRO_ANALYZERS_GEOIP_TIMEOUT=60
	//          RASTRO_ANALYZERS_URLSCAN_APIKEY=xxx
	for name := range cfg.Analyzers {
		prefix := fmt.Sprintf("RASTRO_ANALYZERS_%s_", strings.ToUpper(name))

		ac := cfg.Analyzers[name]

		if v := getenv(prefix+"ENABLED", ""); v != "" {
			ac.Enabled = parseBool(v)
		}
		if v := getenv(prefix+"TIMEOUT", ""); v != "" {
			ac.Timeout = time.Duration(parseInt(v, int(ac.Timeout.Seconds()))) * time.Second
		}
		if v := getenv(prefix+"RETRIES", ""); v != "" {
			ac.Retries = parseInt(v, ac.Retries)
		}
		if v := getenv(prefix+"RATELIMIT", ""); v != "" {
			ac.RateLimit = parseFloat(v, ac.RateLimit)
		}
		if v := getenv(prefix+"APIKEY", ""); v != "" {
			ac.APIKey = v
		}

		cfg.Analyzers[name] = ac
	}
}

func normalize(c *Config) {
	c.Seed = strings.TrimSpace(c.Seed)
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.TimeoutS < 0 {
		c.TimeoutS = 0
	}
	if c.OutputDir == "" {
		c.OutputDir = "rastro_out"
	}
	switch c.Format {
	case "table", "json", "markdown":
	default:
		c.Format = "table"
	}
	// El proxy global aplica a todo analizador sin proxy propio.
	if c.ProxyURL != "" {
		for name, ac := range c.Analyzers {
			if ac.ProxyURL == "" {
				ac.ProxyURL = c.ProxyURL
				c.Analyzers[name] = ac
			}
		}
	}

	// darkweb hereda el toggle y el proxy Tor de la sección dedicada.
	if ac, ok := c.Analyzers["darkweb"]; ok {
		ac.Enabled = c.DarkWeb.Enabled
		if c.DarkWeb.ProxyURL != "" {
			ac.ProxyURL = c.DarkWeb.ProxyURL
		}
		c.Analyzers["darkweb"] = ac
	}

	// ai hereda la credencial y el modelo de la sección dedicada (la
	// entrada por analizador, si existe, tiene prioridad).
	if ac, ok := c.Analyzers["ai"]; ok {
		if ac.APIKey == "" {
			ac.APIKey = c.AI.APIKey
		}
		if ac.Custom == nil {
			ac.Custom = make(map[string]string)
		}
		if ac.Custom["model"] == "" && c.AI.Model != "" {
			ac.Custom["model"] = c.AI.Model
		}
		c.Analyzers["ai"] = ac
	}
}

// ToJSON serializa la configuración a JSON (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Timeout devuelve el timeout global como time.Duration (0 = sin timeout).
func (c Config) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}
