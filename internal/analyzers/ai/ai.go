// internal/analyzers/ai/ai.go
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/rate"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"ai",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("ai analyzer requires an API key")
			}
			return New(cfg, deps.Limiter, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "ai",
			Description:  "LLM-assisted visual and contextual analysis of attached artifacts",
			Types:        []domain.EntityType{domain.EntityTypeImage, domain.EntityTypeDocument},
			RequiresAuth: true,
			RateLimit:    0.25,
		},
	); err != nil {
		logx.New().Warn("failed to register ai analyzer", "error", err.Error())
	}
}

const (
	generateURL  = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"
	defaultModel = "gemini-2.0-flash"

	// maxInlineBytes limita el tamaño de imagen embebida en la petición.
	maxInlineBytes = 4 << 20
)

const imagePrompt = `Analyze this image from an OSINT investigation. Report:
SUMMARY: one paragraph describing the scene.
GEOLOCATION: visible clues about where it was taken, or "none".
ENTITIES: people, logos, vehicles, text or identifiers visible.
RISK: low, medium or high operational relevance.`

const documentPrompt = `An OSINT investigation recovered a document named %q.
Given only the file name and type, report:
SUMMARY: what this document likely is.
CONTEXT: what its presence suggests about the target.
RISK: low, medium or high operational relevance.`

// Analyst envía artifacts a un modelo generativo para obtener contexto que
// las fuentes estructuradas no dan. Comparte el rate limiter del proceso:
// cada llamada paga un token del bucket.
type Analyst struct {
	client  *httpclient.Client
	limiter *rate.Limiter
	logger  logx.Logger
	apiKey  string
	model   string
}

// New crea una instancia del analizador ai.
func New(cfg ports.AnalyzerConfig, limiter *rate.Limiter, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    4 * time.Second,
		MaxRetryBackoff: 60 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
	}

	model := cfg.Custom["model"]
	if model == "" {
		model = defaultModel
	}

	return &Analyst{
		client:  httpclient.New(httpConfig, logger),
		limiter: limiter,
		logger:  logger.With("analyzer", "ai"),
		apiKey:  cfg.APIKey,
		model:   model,
	}
}

// Name retorna el nombre del analizador.
func (a *Analyst) Name() string { return "ai" }

// Types retorna los tipos de entidad soportados.
func (a *Analyst) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeImage, domain.EntityTypeDocument}
}

// Analyze construye el prompt según el tipo de artifact y consulta el
// modelo. El limiter compartido gobierna el caudal hacia la API.
func (a *Analyst) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	if a.limiter != nil {
		if err := a.limiter.Acquire(ctx); err != nil {
			return ports.Fail(fmt.Sprintf("rate limiter interrupted: %v", err)), err
		}
	}

	req, err := a.buildRequest(value)
	if err != nil {
		return ports.Fail(err.Error()), nil
	}

	text, err := a.generate(ctx, req)
	if err != nil {
		return ports.Fail(fmt.Sprintf("generation failed: %v", err)), err
	}

	insight := parseInsight(text)
	a.logger.Debug("ai analysis completed", "artifact", value, "risk", insight.RiskLevel)
	return ports.OK(insight), nil
}

// Close implementa ports.Analyzer.
func (a *Analyst) Close() error { return nil }

// generatePart es una parte de contenido de la API de Gemini.
type generatePart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	} `json:"inline_data,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
}

func (a *Analyst) buildRequest(path string) (*generateRequest, error) {
	req := &generateRequest{Contents: make([]struct {
		Parts []generatePart `json:"parts"`
	}, 1)}

	mime := mimeFor(path)
	if mime == "" {
		// Documento: solo el nombre, nunca el contenido.
		req.Contents[0].Parts = []generatePart{
			{Text: fmt.Sprintf(documentPrompt, filepath.Base(path))},
		}
		return req, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact: %w", err)
	}
	if len(data) > maxInlineBytes {
		return nil, fmt.Errorf("artifact too large for inline analysis (%d bytes)", len(data))
	}

	inline := &struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}

	req.Contents[0].Parts = []generatePart{
		{Text: imagePrompt},
		{InlineData: inline},
	}
	return req, nil
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *Analyst) generate(ctx context.Context, req *generateRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf(generateURL, a.model, a.apiKey)
	headers := map[string]string{"Content-Type": "application/json"}

	resp, err := a.client.Post(ctx, u, bytes.NewReader(payload), headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("API returned HTTP %d", resp.StatusCode)
	}

	var raw generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Candidates) == 0 || len(raw.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return raw.Candidates[0].Content.Parts[0].Text, nil
}

// parseInsight trocea la respuesta por las etiquetas del prompt. Texto que
// no siga el formato acaba entero en Summary.
func parseInsight(text string) *intel.AIInsight {
	insight := &intel.AIInsight{}

	current := "SUMMARY"
	sections := map[string]*strings.Builder{
		"SUMMARY":     {},
		"CONTEXT":     {},
		"GEOLOCATION": {},
		"ENTITIES":    {},
		"RISK":        {},
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		matched := false
		for label := range sections {
			if rest, ok := strings.CutPrefix(trimmed, label+":"); ok {
				current = label
				sections[label].WriteString(strings.TrimSpace(rest))
				matched = true
				break
			}
		}
		if !matched && trimmed != "" {
			b := sections[current]
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(trimmed)
		}
	}

	insight.Summary = sections["SUMMARY"].String()
	insight.Context = sections["CONTEXT"].String()
	insight.Geolocation = sections["GEOLOCATION"].String()
	insight.Entities = sections["ENTITIES"].String()
	insight.RiskLevel = strings.ToLower(sections["RISK"].String())
	return insight
}
