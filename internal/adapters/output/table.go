// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"rastro/internal/core/domain"
)

// timeRounding recorta el ruido de nanosegundos en la duración mostrada.
const timeRounding = 10 * time.Millisecond

// TableWriter renderiza el reporte como paneles y tablas pterm para
// consumo humano en terminal.
type TableWriter struct {
	out io.Writer
}

// NewTableWriter crea un writer de tablas sobre el destino dado.
func NewTableWriter(out io.Writer) *TableWriter {
	return &TableWriter{out: out}
}

// Write implementa Writer.
func (w *TableWriter) Write(report *domain.RunReport) error {
	pterm.DefaultHeader.
		WithWriter(w.out).
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("rastro - Identifier Intelligence Report")

	w.writeSummary(report)
	w.writeResults(report)
	w.writeCorrelations(report)
	w.writeEnrichments(report)
	w.writeWarnings(report)
	return nil
}

func (w *TableWriter) writeSummary(report *domain.RunReport) {
	pterm.DefaultSection.WithWriter(w.out).Println("Run Summary")

	data := [][]string{
		{"Seed", report.Seed.Value},
		{"Detected type", string(report.SeedType)},
		{"Entities analyzed", strconv.Itoa(report.Entities)},
		{"Correlations", strconv.Itoa(len(report.Correlations))},
		{"Duration", report.Duration.Round(timeRounding).String()},
	}
	_ = pterm.DefaultTable.WithWriter(w.out).WithData(data).Render()
}

func (w *TableWriter) writeResults(report *domain.RunReport) {
	pterm.DefaultSection.WithWriter(w.out).Println("Findings")

	rows := pterm.TableData{{"Depth", "Type", "Value", "Result"}}

	// Primero los primarios en orden estable de tipo, luego los derivados
	// en orden de descubrimiento.
	types := make([]string, 0, len(report.Primary))
	for t := range report.Primary {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		res := report.Primary[domain.EntityType(t)]
		rows = append(rows, []string{"0", t, res.Entity.Value, statusCell(res)})
	}
	for _, res := range report.All {
		if _, isPrimary := report.Primary[res.Entity.Type]; isPrimary && report.Primary[res.Entity.Type] == res {
			continue
		}
		rows = append(rows, []string{"+", string(res.Entity.Type), res.Entity.Value, statusCell(res)})
	}

	_ = pterm.DefaultTable.WithWriter(w.out).WithHasHeader().WithData(rows).Render()
}

func statusCell(res *domain.Result) string {
	label := resultLabel(res)
	if !res.Success {
		return pterm.Red(label)
	}
	return label
}

func (w *TableWriter) writeCorrelations(report *domain.RunReport) {
	if len(report.Correlations) == 0 {
		return
	}
	pterm.DefaultSection.WithWriter(w.out).Println("Correlations")

	rows := pterm.TableData{{"Severity", "Signal", "Description"}}
	for _, c := range sortedCorrelations(report) {
		rows = append(rows, []string{
			severityCell(c.Severity),
			string(c.Kind),
			c.Description,
		})
	}
	_ = pterm.DefaultTable.WithWriter(w.out).WithHasHeader().WithData(rows).Render()
}

func severityCell(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return pterm.BgRed.Sprint(" CRITICAL ")
	case domain.SeverityHigh:
		return pterm.Red("HIGH")
	case domain.SeverityMedium:
		return pterm.Yellow("MEDIUM")
	case domain.SeverityLow:
		return pterm.Cyan("LOW")
	default:
		return pterm.Gray("INFO")
	}
}

func (w *TableWriter) writeEnrichments(report *domain.RunReport) {
	if report.ThreatActor != nil && report.ThreatActor.PotentialActor {
		pterm.DefaultSection.WithWriter(w.out).Println("Threat Actor Assessment")
		pterm.Warning.WithWriter(w.out).Printfln(
			"Probability %d%% (%s)", report.ThreatActor.Probability, report.ThreatActor.RiskTier)
		for _, reason := range report.ThreatActor.Reasons {
			pterm.Println(pterm.Gray("  - " + reason))
		}
	}

	if report.DarkWeb != nil && report.DarkWeb.Success {
		pterm.DefaultSection.WithWriter(w.out).Println("Dark Web Exposure")
		pterm.Println(resultLabel(report.DarkWeb))
	}
}

func (w *TableWriter) writeWarnings(report *domain.RunReport) {
	for _, warn := range report.Warnings {
		pterm.Warning.WithWriter(w.out).Println(warn)
	}
	fmt.Fprintln(w.out)
}
