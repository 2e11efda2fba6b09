// internal/core/usecases/engine_test.go
package usecases

import (
	"context"
	"errors"
	"testing"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
	"rastro/internal/testutil"
)

func newTestEngine(maxDepth int, analyzers ...ports.Analyzer) *Engine {
	return NewEngine(EngineOptions{
		Analyzers: registry.NewSetOf(analyzers...),
		Logger:    logx.NewSilent(),
		MaxDepth:  maxDepth,
	})
}

func TestRunAnalysisEmptySeed(t *testing.T) {
	eng := newTestEngine(1)
	_, err := eng.RunAnalysis(context.Background(), domain.Entity{Type: domain.EntityTypeUser}, nil)
	testutil.AssertTrue(t, errors.Is(err, domain.ErrEmptySeed), "empty seed rejected")
}

func TestRunAnalysisMaxDepthZeroDisablesPivoting(t *testing.T) {
	domAn := testutil.NewMockAnalyzer("domainintel", domain.EntityTypeDomain)
	domAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return testutil.DomainFinding("1.2.3.4", "a@corp.com", "b@corp.com"), nil
	}
	emailAn := testutil.NewMockAnalyzer("emailintel", domain.EntityTypeEmail)

	eng := newTestEngine(0, domAn, emailAn)
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeDomain, "corp.com"), nil)

	testutil.AssertNoError(t, err, "run")
	testutil.AssertEqual(t, report.Entities, 1, "only the seed analyzed")
	testutil.AssertEqual(t, len(emailAn.Calls()), 0, "no pivot ever dispatched")
}

func TestRunAnalysisPivotsWithinDepth(t *testing.T) {
	domAn := testutil.NewMockAnalyzer("domainintel", domain.EntityTypeDomain)
	domAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return testutil.DomainFinding("", "a@corp.com", "b@corp.com"), nil
	}
	emailAn := testutil.NewMockAnalyzer("emailintel", domain.EntityTypeEmail)

	eng := newTestEngine(1, domAn, emailAn)
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeDomain, "corp.com"), nil)

	testutil.AssertNoError(t, err, "run")
	testutil.AssertEqual(t, report.Entities, 3, "seed plus two pivots")
	testutil.AssertEqual(t, len(report.Derived[domain.EntityTypeEmail]), 2, "derived emails accumulate")
}

func TestRunAnalysisNeverDispatchesTwice(t *testing.T) {
	// Dos pivots distintos a profundidad 1 derivan el mismo email.
	domAn := testutil.NewMockAnalyzer("domainintel", domain.EntityTypeDomain)
	domAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return testutil.DomainFinding("", "dup@corp.com", "dup@corp.com"), nil
	}
	emailAn := testutil.NewMockAnalyzer("emailintel", domain.EntityTypeEmail)

	eng := newTestEngine(2, domAn, emailAn)
	_, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeDomain, "corp.com"), nil)

	testutil.AssertNoError(t, err, "run")
	testutil.AssertEqual(t, emailAn.CallCount("dup@corp.com"), 1, "dedup across pivot paths")
}

func TestRunAnalysisSiblingFailureDoesNotAbort(t *testing.T) {
	domAn := testutil.NewMockAnalyzer("domainintel", domain.EntityTypeDomain)
	domAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return testutil.DomainFinding("", "ok@corp.com", "bad@corp.com"), nil
	}
	emailAn := testutil.NewMockAnalyzer("emailintel", domain.EntityTypeEmail)
	emailAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		if value == "bad@corp.com" {
			panic("provider exploded")
		}
		return ports.OK(&intel.EmailInfo{Email: value}), nil
	}

	eng := newTestEngine(1, domAn, emailAn)
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeDomain, "corp.com"), nil)

	testutil.AssertNoError(t, err, "run survives panicking analyzer")
	derived := report.Derived[domain.EntityTypeEmail]
	testutil.AssertEqual(t, len(derived), 2, "both siblings recorded")

	var failed, succeeded int
	for _, res := range derived {
		if res.Success {
			succeeded++
		} else {
			failed++
			testutil.AssertContains(t, res.Err, "panicked", "panic degraded to envelope error")
		}
	}
	testutil.AssertEqual(t, succeeded, 1, "healthy sibling included")
	testutil.AssertEqual(t, failed, 1, "failing sibling included as failure")
}

func TestRunAnalysisFusion(t *testing.T) {
	geo := testutil.NewMockAnalyzer("geoip", domain.EntityTypeIP)
	geo.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return ports.OK(&intel.GeoIPInfo{IP: value, Country: "Spain"}), nil
	}
	rep := testutil.NewMockAnalyzer("reputation", domain.EntityTypeIP)
	rep.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return ports.Fail("vt quota exceeded"), nil
	}

	eng := newTestEngine(1, geo, rep)
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeIP, "8.8.8.8"), nil)

	testutil.AssertNoError(t, err, "run")
	res := report.Primary[domain.EntityTypeIP]
	testutil.AssertNotNil(t, res, "primary ip result present")

	// Éxito = OR de sub-resultados; el primer sub-error se conserva.
	testutil.AssertTrue(t, res.Success, "fused success is logical OR")
	testutil.AssertEqual(t, res.Err, "vt quota exceeded", "first sub-error kept for visibility")

	g, ok := intel.As[*intel.GeoIPInfo](res.Data)
	testutil.AssertTrue(t, ok, "geo payload reachable through fused data")
	testutil.AssertEqual(t, g.Country, "Spain", "geo payload intact")
}

func TestRunAnalysisNoAnalyzerForType(t *testing.T) {
	eng := newTestEngine(1, testutil.NewMockAnalyzer("geoip", domain.EntityTypeIP))
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeWallet, "0x0000000000000000000000000000000000000000"), nil)

	testutil.AssertNoError(t, err, "run")
	res := report.Primary[domain.EntityTypeWallet]
	testutil.AssertNotNil(t, res, "failed envelope recorded")
	testutil.AssertFalse(t, res.Success, "missing analyzer is a per-entity failure")
}

func TestRunAnalysisArtifactsSeededAtDepthZero(t *testing.T) {
	imgAn := testutil.NewMockAnalyzer("exif", domain.EntityTypeImage)
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)

	eng := newTestEngine(0, imgAn, userAn)
	report, err := eng.RunAnalysis(context.Background(),
		domain.NewEntity(domain.EntityTypeUser, "ghost"),
		[]domain.Entity{domain.NewEntity(domain.EntityTypeImage, "/tmp/photo.jpg")},
	)

	testutil.AssertNoError(t, err, "run")
	testutil.AssertEqual(t, report.Entities, 2, "seed and artifact both analyzed")
	res := report.Primary[domain.EntityTypeImage]
	testutil.AssertNotNil(t, res, "artifact result at depth 0")
	testutil.AssertTrue(t, res.Artifact, "artifact flag carried into envelope")
}

func TestRunAnalysisSeedFailureStillProcessesArtifacts(t *testing.T) {
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)
	userAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return nil, errors.New("network down")
	}
	imgAn := testutil.NewMockAnalyzer("exif", domain.EntityTypeImage)

	eng := newTestEngine(1, userAn, imgAn)
	report, err := eng.RunAnalysis(context.Background(),
		domain.NewEntity(domain.EntityTypeUser, "ghost"),
		[]domain.Entity{domain.NewEntity(domain.EntityTypeImage, "/tmp/doc.jpg")},
	)

	testutil.AssertNoError(t, err, "run")
	testutil.AssertFalse(t, report.Primary[domain.EntityTypeUser].Success, "seed failed")
	testutil.AssertNotNil(t, report.Primary[domain.EntityTypeImage], "artifact still processed")
}

func TestRunAnalysisGlobalEnrichments(t *testing.T) {
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)

	feed := &testutil.MockEnricher{NameVal: "darkweb"}
	feed.EnrichFunc = func(ctx context.Context, seed domain.Entity) (*ports.Finding, error) {
		return ports.OK(&intel.DarkWebInfo{Query: seed.Value, Total: 1,
			Hits: []intel.DarkWebHit{{Title: "forum post", URL: "http://x.onion"}}}), nil
	}

	eng := NewEngine(EngineOptions{
		Analyzers: registry.NewSetOf(userAn),
		IntelFeed: feed,
		Logger:    logx.NewSilent(),
		MaxDepth:  1,
	})

	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeUser, "lockbit"), nil)
	testutil.AssertNoError(t, err, "run")

	testutil.AssertEqual(t, feed.CallsN, 1, "intel feed runs exactly once, seed only")
	testutil.AssertNotNil(t, report.DarkWeb, "darkweb result attached")
	testutil.AssertNotNil(t, report.ThreatActor, "threat actor heuristic always evaluated")
	testutil.AssertTrue(t, report.ThreatActor.PotentialActor, "lockbit flags the heuristic")
}

func TestRunAnalysisIntelFeedStaysOutOfCorrelation(t *testing.T) {
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)
	userAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return ports.OK(&intel.UserInfo{Username: value}), nil
	}

	feed := &testutil.MockEnricher{NameVal: "darkweb"}
	feed.EnrichFunc = func(ctx context.Context, seed domain.Entity) (*ports.Finding, error) {
		return ports.OK(&intel.DarkWebInfo{Query: seed.Value, Total: 2}), nil
	}

	eng := NewEngine(EngineOptions{
		Analyzers: registry.NewSetOf(userAn),
		IntelFeed: feed,
		Logger:    logx.NewSilent(),
		MaxDepth:  1,
	})

	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeUser, "ghost"), nil)
	testutil.AssertNoError(t, err, "run")

	testutil.AssertNotNil(t, report.DarkWeb, "feed result attached to its own field")
	testutil.AssertEqual(t, len(report.All), 1, "feed envelope not mixed into analysis results")
	for _, c := range report.Correlations {
		testutil.AssertNotEqual(t, c.Kind, domain.KindIdentityReuse,
			"a single analyzed alias never correlates against itself")
	}
}

func TestRunAnalysisEnrichmentFailureIsIndependent(t *testing.T) {
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)

	feed := &testutil.MockEnricher{NameVal: "darkweb"}
	feed.EnrichFunc = func(ctx context.Context, seed domain.Entity) (*ports.Finding, error) {
		return nil, errors.New("tor proxy unreachable")
	}

	eng := NewEngine(EngineOptions{
		Analyzers: registry.NewSetOf(userAn),
		IntelFeed: feed,
		Logger:    logx.NewSilent(),
		MaxDepth:  1,
	})

	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeUser, "ghost"), nil)
	testutil.AssertNoError(t, err, "run still returns the aggregate")

	// El otro enrichment global no se ve afectado.
	testutil.AssertNotNil(t, report.ThreatActor, "threat actor unaffected by feed failure")
	testutil.AssertTrue(t, len(report.Warnings) > 0, "degradation surfaced as warning")
}

func TestRunAnalysisBreachPatchApplied(t *testing.T) {
	userAn := testutil.NewMockAnalyzer("profiles", domain.EntityTypeUser)
	userAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return ports.OK(&intel.UserInfo{
			Username: value,
			IMProfiles: []intel.IMProfile{
				{Platform: "telegram", Emails: []string{"ghost@leaked.com"}},
			},
		}), nil
	}
	emailAn := testutil.NewMockAnalyzer("emailintel", domain.EntityTypeEmail)
	emailAn.AnalyzeFunc = func(ctx context.Context, value string) (*ports.Finding, error) {
		return ports.OK(&intel.EmailInfo{
			Email:     value,
			LocalPart: "ghost",
			Domain:    "leaked.com",
			Breach:    &intel.BreachInfo{Found: true, Count: 3},
		}), nil
	}

	eng := newTestEngine(1, userAn, emailAn)
	report, err := eng.RunAnalysis(context.Background(), domain.NewEntity(domain.EntityTypeUser, "ghost"), nil)
	testutil.AssertNoError(t, err, "run")

	u, ok := intel.As[*intel.UserInfo](report.Primary[domain.EntityTypeUser].Data)
	testutil.AssertTrue(t, ok, "user payload")
	testutil.AssertNotNil(t, u.Breach, "breach propagated into user result")
	testutil.AssertTrue(t, u.Breach.DerivedRisk, "flagged as derived, not directly queried")
	testutil.AssertEqual(t, u.Breach.DerivedVia, "ghost@leaked.com", "propagation source recorded")
}
