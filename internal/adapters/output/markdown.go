// internal/adapters/output/markdown.go
package output

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"rastro/internal/core/domain"
)

// MarkdownWriter produce un informe Markdown compartible.
type MarkdownWriter struct {
	out io.Writer
}

// NewMarkdownWriter crea un writer Markdown sobre el destino dado.
func NewMarkdownWriter(out io.Writer) *MarkdownWriter {
	return &MarkdownWriter{out: out}
}

// Write implementa Writer.
func (w *MarkdownWriter) Write(report *domain.RunReport) error {
	md := markdown.NewMarkdown(w.out)

	md.H1("Identifier Intelligence Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed.Value + "`"},
			{"Detected type", string(report.SeedType)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(timeRounding).String()},
			{"Entities analyzed", strconv.Itoa(report.Entities)},
		},
	})
	md.PlainText("")

	w.writeFindings(md, report)
	w.writeCorrelations(md, report)
	w.writeEnrichments(md, report)
	w.writeWarnings(md, report)

	return md.Build()
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *domain.RunReport) {
	md.H2("Findings")
	md.PlainText("")

	rows := make([][]string, 0, len(report.All))

	types := make([]string, 0, len(report.Primary))
	for t := range report.Primary {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		res := report.Primary[domain.EntityType(t)]
		rows = append(rows, []string{"0", t, "`" + res.Entity.Value + "`", resultLabel(res)})
	}
	for _, res := range report.All {
		if report.Primary[res.Entity.Type] == res {
			continue
		}
		rows = append(rows, []string{"+", string(res.Entity.Type), "`" + res.Entity.Value + "`", resultLabel(res)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Type", "Value", "Result"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCorrelations(md *markdown.Markdown, report *domain.RunReport) {
	md.H2("Correlations")
	md.PlainText("")

	if len(report.Correlations) == 0 {
		md.PlainText("No correlations emerged from this run.")
		md.PlainText("")
		return
	}

	counts := severityCounts(report)
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(counts[domain.SeverityCritical])},
			{"🟠 High", strconv.Itoa(counts[domain.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[domain.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[domain.SeverityLow])},
			{"⚪ Informational", strconv.Itoa(counts[domain.SeverityInformational])},
		},
	})
	md.PlainText("")

	rows := make([][]string, 0, len(report.Correlations))
	for _, c := range sortedCorrelations(report) {
		rows = append(rows, []string{string(c.Severity), string(c.Kind), c.Description})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Signal", "Description"},
		Rows:   rows,
	})
	md.PlainText("")

	if counts[domain.SeverityCritical] > 0 {
		md.Cautionf("%d critical correlations present. Review before acting on this target.",
			counts[domain.SeverityCritical])
		md.PlainText("")
	} else if counts[domain.SeverityHigh] > 0 {
		md.Warningf("%d high severity correlations detected.", counts[domain.SeverityHigh])
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeEnrichments(md *markdown.Markdown, report *domain.RunReport) {
	if report.ThreatActor != nil && report.ThreatActor.PotentialActor {
		md.H2("Threat Actor Assessment")
		md.PlainText("")
		md.BulletList(
			"Probability: "+strconv.Itoa(report.ThreatActor.Probability)+"%",
			"Risk tier: "+report.ThreatActor.RiskTier,
		)
		if len(report.ThreatActor.Reasons) > 0 {
			md.PlainText("")
			md.BulletList(report.ThreatActor.Reasons...)
		}
		md.PlainText("")
	}

	if report.DarkWeb != nil && report.DarkWeb.Success {
		md.H2("Dark Web Exposure")
		md.PlainText("")
		md.PlainText(resultLabel(report.DarkWeb))
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, report *domain.RunReport) {
	if len(report.Warnings) == 0 {
		return
	}
	md.H2("Warnings")
	md.PlainText("")
	md.BulletList(report.Warnings...)
	md.PlainText("")
}
