// internal/adapters/output/output.go
//
// Package output renderiza un RunReport en los formatos soportados:
// tabla interactiva para terminal, JSON para máquinas y Markdown para
// informes compartibles.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
)

// Writer renderiza un reporte completo sobre un destino.
type Writer interface {
	Write(report *domain.RunReport) error
}

// ForFormat construye el writer del formato pedido.
func ForFormat(format string, out io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case "table", "":
		return NewTableWriter(out), nil
	case "json":
		return NewJSONWriter(out), nil
	case "markdown", "md":
		return NewMarkdownWriter(out), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// sortedCorrelations devuelve las correlaciones de más a menos graves,
// con orden estable dentro de cada severidad.
func sortedCorrelations(report *domain.RunReport) []domain.Correlation {
	out := make([]domain.Correlation, len(report.Correlations))
	copy(out, report.Correlations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Level() > out[j].Severity.Level()
	})
	return out
}

// severityCounts agrega las correlaciones por severidad.
func severityCounts(report *domain.RunReport) map[domain.Severity]int {
	counts := make(map[domain.Severity]int)
	for _, c := range report.Correlations {
		counts[c.Severity]++
	}
	return counts
}

// resultLabel resume un resultado en una línea corta según su payload.
func resultLabel(res *domain.Result) string {
	if !res.Success {
		if res.Err != "" {
			return "failed: " + res.Err
		}
		return "failed"
	}
	return payloadLabel(res.Data)
}

func payloadLabel(p intel.Payload) string {
	switch v := p.(type) {
	case *intel.GeoIPInfo:
		loc := strings.TrimSpace(strings.Join(nonEmpty(v.City, v.Country), ", "))
		if loc == "" {
			loc = "location unknown"
		}
		if v.ISP != "" {
			return loc + " · " + v.ISP
		}
		return loc
	case *intel.ReputationInfo:
		return fmt.Sprintf("%d malicious / %d suspicious verdicts", v.Malicious, v.Suspicious)
	case *intel.DomainInfo:
		return fmt.Sprintf("%d subdomains, %d related emails", len(v.Subdomains), len(v.RelatedEmails))
	case *intel.EmailInfo:
		parts := []string{fmt.Sprintf("%d MX", len(v.MXRecords))}
		if v.Disposable {
			parts = append(parts, "disposable")
		}
		if v.Breach != nil && v.Breach.Found {
			parts = append(parts, fmt.Sprintf("%d breaches", v.Breach.Count))
		}
		return strings.Join(parts, ", ")
	case *intel.UserInfo:
		return fmt.Sprintf("%d profiles found", len(v.FoundProfiles()))
	case *intel.PhoneInfo:
		return strings.Join(nonEmpty(v.International, v.Country, v.Carrier), " · ")
	case *intel.WalletInfo:
		return v.Network + " address"
	case *intel.DiscordInfo:
		return "discord " + v.Subject
	case *intel.URLScanInfo:
		return "verdict: " + v.Verdict
	case *intel.ImageInfo:
		if v.HasGPS {
			return fmt.Sprintf("GPS %.4f, %.4f", v.Latitude, v.Longitude)
		}
		return strings.TrimSpace(v.CameraMake + " " + v.CameraModel)
	case *intel.DocumentInfo:
		return "author: " + v.Author
	case *intel.DarkWebInfo:
		return fmt.Sprintf("%d dark web hits", v.Total)
	case *intel.Fused:
		labels := make([]string, 0, len(v.Parts))
		for _, part := range v.Parts {
			labels = append(labels, payloadLabel(part.Data))
		}
		return strings.Join(labels, " | ")
	case nil:
		return ""
	default:
		return p.Kind()
	}
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
