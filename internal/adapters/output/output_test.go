// internal/adapters/output/output_test.go
package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/testutil"
)

func sampleReport() *domain.RunReport {
	seed := domain.Entity{Type: domain.EntityTypeIP, Value: "203.0.113.7"}
	report := domain.NewRunReport(seed)

	report.Record(&domain.Result{
		Entity:  seed,
		Success: true,
		Data: &intel.Fused{Parts: []intel.FusedPart{
			{Analyzer: "geoip", Data: &intel.GeoIPInfo{IP: seed.Value, Country: "Spain", City: "Madrid", ISP: "ACME Telecom"}},
			{Analyzer: "reputation", Data: &intel.ReputationInfo{Malicious: 3}},
		}},
	}, 0)
	report.Record(&domain.Result{
		Entity:  domain.Entity{Type: domain.EntityTypeEmail, Value: "ops@example.com"},
		Success: true,
		Data:    &intel.EmailInfo{Email: "ops@example.com", MXRecords: []string{"mx1.example.com"}},
	}, 1)

	report.Correlations = []domain.Correlation{
		{Kind: domain.KindGeoRisk, Severity: domain.SeverityMedium, Description: "hostile jurisdiction"},
		{Kind: domain.KindMalwareDetected, Severity: domain.SeverityCritical, Description: "flagged by 3 engines"},
	}
	report.ThreatActor = &intel.ThreatActorInfo{PotentialActor: true, Probability: 55, RiskTier: "high", Reasons: []string{"criminal jargon"}}
	report.AddWarning("dark web enrichment unavailable")
	report.Duration = 1200 * time.Millisecond
	return report
}

func TestForFormat(t *testing.T) {
	var buf bytes.Buffer

	w, err := ForFormat("json", &buf)
	testutil.AssertNoError(t, err, "json format")
	_, isJSON := w.(*JSONWriter)
	testutil.AssertTrue(t, isJSON, "json writer type")

	w, err = ForFormat("", &buf)
	testutil.AssertNoError(t, err, "empty defaults to table")
	_, isTable := w.(*TableWriter)
	testutil.AssertTrue(t, isTable, "table writer type")

	w, err = ForFormat("md", &buf)
	testutil.AssertNoError(t, err, "md alias")
	_, isMD := w.(*MarkdownWriter)
	testutil.AssertTrue(t, isMD, "markdown writer type")

	_, err = ForFormat("xml", &buf)
	testutil.AssertError(t, err, "unknown format rejected")
}

func TestJSONWriterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	testutil.AssertNoError(t, NewJSONWriter(&buf).Write(sampleReport()), "write json")

	var decoded map[string]interface{}
	testutil.AssertNoError(t, json.Unmarshal(buf.Bytes(), &decoded), "output is valid JSON")

	seed := decoded["seed"].(map[string]interface{})
	testutil.AssertEqual(t, seed["value"], "203.0.113.7", "seed value survives")
	testutil.AssertEqual(t, decoded["entities_analyzed"], float64(2), "entity count")
}

func TestMarkdownWriterSections(t *testing.T) {
	var buf bytes.Buffer
	testutil.AssertNoError(t, NewMarkdownWriter(&buf).Write(sampleReport()), "write markdown")

	out := buf.String()
	testutil.AssertContains(t, out, "# Identifier Intelligence Report", "title")
	testutil.AssertContains(t, out, "## Findings", "findings section")
	testutil.AssertContains(t, out, "## Correlations", "correlations section")
	testutil.AssertContains(t, out, "MALWARE_DETECTED", "correlation kind rendered")
	testutil.AssertContains(t, out, "## Threat Actor Assessment", "threat actor section")
	testutil.AssertContains(t, out, "dark web enrichment unavailable", "warnings rendered")
}

func TestResultLabelVariants(t *testing.T) {
	failed := domain.Failed(domain.Entity{Type: domain.EntityTypeURL, Value: "http://x"}, "timeout")
	testutil.AssertContains(t, resultLabel(failed), "timeout", "failure shows reason")

	user := &domain.Result{
		Entity:  domain.Entity{Type: domain.EntityTypeUser, Value: "ghost"},
		Success: true,
		Data: &intel.UserInfo{Username: "ghost", Profiles: []intel.Profile{
			{Site: "GitHub", Status: intel.ProfileFound},
			{Site: "Twitter", Status: intel.ProfileNotFound},
		}},
	}
	testutil.AssertEqual(t, resultLabel(user), "1 profiles found", "found profile count")
}

func TestSortedCorrelationsOrder(t *testing.T) {
	report := sampleReport()
	sorted := sortedCorrelations(report)

	testutil.AssertEqual(t, sorted[0].Severity, domain.SeverityCritical, "critical first")
	testutil.AssertEqual(t, sorted[1].Severity, domain.SeverityMedium, "medium after")
	// El reporte original no se reordena.
	testutil.AssertEqual(t, report.Correlations[0].Severity, domain.SeverityMedium, "input untouched")
}
