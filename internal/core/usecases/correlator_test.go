// internal/core/usecases/correlator_test.go
package usecases

import (
	"testing"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/testutil"
)

func emailResult(email, local, dom string) *domain.Result {
	return &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeEmail, email),
		Success: true,
		Data:    &intel.EmailInfo{Email: email, LocalPart: local, Domain: dom},
	}
}

func countKind(list []domain.Correlation, kind domain.CorrelationKind) int {
	n := 0
	for _, c := range list {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func findKind(list []domain.Correlation, kind domain.CorrelationKind) (domain.Correlation, bool) {
	for _, c := range list {
		if c.Kind == kind {
			return c, true
		}
	}
	return domain.Correlation{}, false
}

func TestCorrelateEmptyInput(t *testing.T) {
	c := NewCorrelator()
	correlations, patches := c.Correlate(nil)
	testutil.AssertEqual(t, len(correlations), 0, "no correlations")
	testutil.AssertEqual(t, len(patches), 0, "no patches")
}

func TestCorrelateSkipsSameEntityPairs(t *testing.T) {
	c := NewCorrelator()

	// Dos resultados sobre la misma entidad (p.ej. un análisis y un
	// enriquecimiento posterior) nunca cruzan entre sí.
	a := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeUser, "ghost"),
		Success: true,
		Data:    &intel.UserInfo{Username: "ghost"},
	}
	b := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeUser, "Ghost"),
		Success: true,
		Data:    &intel.DarkWebInfo{Query: "ghost"},
	}

	correlations, patches := c.Correlate([]*domain.Result{a, b})

	testutil.AssertEqual(t, countKind(correlations, domain.KindIdentityReuse), 0,
		"identical key never correlates against itself")
	testutil.AssertNil(t, patches, "no patches from a degenerate pair")
}

func TestCorrelateOrgLinkOncePerPair(t *testing.T) {
	c := NewCorrelator()
	results := []*domain.Result{
		emailResult("alice@acme.com", "alice", "acme.com"),
		emailResult("bob@acme.com", "bob", "acme.com"),
	}

	correlations, _ := c.Correlate(results)
	testutil.AssertEqual(t, countKind(correlations, domain.KindOrgLink), 1, "exactly one org link for the pair")

	rec, _ := findKind(correlations, domain.KindOrgLink)
	testutil.AssertContains(t, rec.Description, "alice@acme.com", "references first value")
	testutil.AssertContains(t, rec.Description, "bob@acme.com", "references second value")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityLow, "fixed severity")

	// Orden inverso del input: mismo resultado, sin duplicados.
	reversed, _ := c.Correlate([]*domain.Result{results[1], results[0]})
	testutil.AssertEqual(t, countKind(reversed, domain.KindOrgLink), 1, "pair order does not duplicate")
}

func TestCorrelateInfraSeverityTiers(t *testing.T) {
	ip := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeIP, "5.6.7.8"),
		Success: true,
		Data:    &intel.GeoIPInfo{IP: "5.6.7.8"},
	}

	cases := []struct {
		name     string
		waf      bool
		bypassed bool
		kind     domain.CorrelationKind
		severity domain.Severity
	}{
		{"bypassed protection", true, true, domain.KindInfraBypass, domain.SeverityCritical},
		{"protection intact", true, false, domain.KindInfraProtected, domain.SeverityInformational},
		{"plain hosting", false, false, domain.KindInfraHosting, domain.SeverityHigh},
	}

	c := NewCorrelator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dom := &domain.Result{
				Entity:  domain.NewEntity(domain.EntityTypeDomain, "target.com"),
				Success: true,
				Data: &intel.DomainInfo{
					Domain:      "target.com",
					ResolvedIP:  "5.6.7.8",
					WAFDetected: tc.waf,
					WAFBypassed: tc.bypassed,
					WAFProvider: "Cloudflare",
				},
			}

			correlations, _ := c.Correlate([]*domain.Result{dom, ip})
			rec, found := findKind(correlations, tc.kind)
			testutil.AssertTrue(t, found, "expected kind emitted")
			testutil.AssertEqual(t, rec.Severity, tc.severity, "fixed severity per rule")
		})
	}
}

func TestCorrelateCorporateVsThirdParty(t *testing.T) {
	c := NewCorrelator()

	corp := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeDomain, "acme.com"),
		Success: true,
		Data:    &intel.DomainInfo{Domain: "acme.com"},
	}
	email := emailResult("ceo@acme.com", "ceo", "acme.com")

	correlations, _ := c.Correlate([]*domain.Result{corp, email})
	rec, found := findKind(correlations, domain.KindCorporateEmail)
	testutil.AssertTrue(t, found, "corporate hierarchy detected")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityHigh, "corporate email severity")

	infra := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeDomain, "cloudflare.com"),
		Success: true,
		Data:    &intel.DomainInfo{Domain: "cloudflare.com"},
	}
	infraEmail := emailResult("abuse@cloudflare.com", "abuse", "cloudflare.com")

	correlations, _ = c.Correlate([]*domain.Result{infra, infraEmail})
	rec, found = findKind(correlations, domain.KindThirdPartyInfra)
	testutil.AssertTrue(t, found, "known infrastructure provider downgrades the link")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityInformational, "third party severity")
	testutil.AssertEqual(t, countKind(correlations, domain.KindCorporateEmail), 0, "not reported as corporate")
}

func TestCorrelateAliasPatternEmitsPatch(t *testing.T) {
	c := NewCorrelator()

	email := emailResult("ghost@leaked.com", "ghost", "leaked.com")
	if e, ok := email.Data.(*intel.EmailInfo); ok {
		e.Breach = &intel.BreachInfo{Found: true, Count: 2}
	}
	user := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeUser, "ghost"),
		Success: true,
		Data:    &intel.UserInfo{Username: "ghost"},
	}

	correlations, patches := c.Correlate([]*domain.Result{email, user})

	rec, found := findKind(correlations, domain.KindAliasPattern)
	testutil.AssertTrue(t, found, "alias pattern detected")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityMedium, "alias severity")

	testutil.AssertEqual(t, len(patches), 1, "breach back-propagation emitted as patch")
	testutil.AssertEqual(t, patches[0].TargetKey, user.Entity.Key(), "patch targets the user result")
	testutil.AssertEqual(t, patches[0].BreachVia, "ghost@leaked.com", "patch records the source email")

	// El correlador no muta: el parche lo aplica el caller.
	u := user.Data.(*intel.UserInfo)
	testutil.AssertNil(t, u.Breach, "correlator itself performs no writes")
}

func TestCorrelateAliasWithoutBreachNoPatch(t *testing.T) {
	c := NewCorrelator()
	_, patches := c.Correlate([]*domain.Result{
		emailResult("ghost@clean.com", "ghost", "clean.com"),
		{
			Entity:  domain.NewEntity(domain.EntityTypeUser, "ghost"),
			Success: true,
			Data:    &intel.UserInfo{Username: "ghost"},
		},
	})
	testutil.AssertEqual(t, len(patches), 0, "no breach, no patch")
}

func TestCorrelateIndividualReputation(t *testing.T) {
	c := NewCorrelator()

	mk := func(malicious int) *domain.Result {
		return &domain.Result{
			Entity:  domain.NewEntity(domain.EntityTypeIP, "9.9.9.9"),
			Success: true,
			Data: &intel.Fused{Parts: []intel.FusedPart{
				{Analyzer: "geoip", Data: &intel.GeoIPInfo{IP: "9.9.9.9"}},
				{Analyzer: "reputation", Data: &intel.ReputationInfo{Malicious: malicious, Engines: []string{"EngA", "EngB", "EngC", "EngD"}}},
			}},
		}
	}

	correlations, _ := c.Correlate([]*domain.Result{mk(1)})
	rec, found := findKind(correlations, domain.KindMalwareDetected)
	testutil.AssertTrue(t, found, "single verdict reported")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityHigh, "low count severity")

	correlations, _ = c.Correlate([]*domain.Result{mk(5)})
	rec, _ = findKind(correlations, domain.KindMalwareDetected)
	testutil.AssertEqual(t, rec.Severity, domain.SeverityCritical, "past threshold escalates")
}

func TestCorrelateIndividualSignals(t *testing.T) {
	c := NewCorrelator()

	disposable := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeEmail, "x@10minutemail.com"),
		Success: true,
		Data:    &intel.EmailInfo{Email: "x@10minutemail.com", Domain: "10minutemail.com", Disposable: true},
	}
	torIP := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeIP, "171.25.193.20"),
		Success: true,
		Data:    &intel.GeoIPInfo{IP: "171.25.193.20", Country: "Russia", ISP: "Tor Exit Node"},
	}

	profiles := make([]intel.Profile, 7)
	for i := range profiles {
		profiles[i] = intel.Profile{Site: "site", Status: intel.ProfileFound}
	}
	profiles[0].RealName = "Juan Pérez"
	profiles[1].RealName = "John Smith"
	exposed := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeUser, "ghost"),
		Success: true,
		Data:    &intel.UserInfo{Username: "ghost", Profiles: profiles},
	}

	correlations, _ := c.Correlate([]*domain.Result{disposable, torIP, exposed})

	rec, found := findKind(correlations, domain.KindDisposableEmail)
	testutil.AssertTrue(t, found, "disposable email flagged")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityHigh, "disposable severity")

	rec, found = findKind(correlations, domain.KindGeoRisk)
	testutil.AssertTrue(t, found, "hostile jurisdiction flagged")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityMedium, "geo risk severity")

	rec, found = findKind(correlations, domain.KindAnonymization)
	testutil.AssertTrue(t, found, "tor isp flagged")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityHigh, "anonymization severity")

	rec, found = findKind(correlations, domain.KindFootprint)
	testutil.AssertTrue(t, found, "extensive footprint flagged")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityInformational, "footprint severity")

	rec, found = findKind(correlations, domain.KindIdentityMismatch)
	testutil.AssertTrue(t, found, "inconsistent real names flagged")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityMedium, "mismatch severity")
}

func TestCorrelateFailedResultsSkippedIndividually(t *testing.T) {
	c := NewCorrelator()
	failed := domain.Failed(domain.NewEntity(domain.EntityTypeEmail, "x@y.com"), "timeout")
	correlations, _ := c.Correlate([]*domain.Result{failed})
	testutil.AssertEqual(t, len(correlations), 0, "failed results produce no insights")
}

func TestCorrelateGeoMatch(t *testing.T) {
	c := NewCorrelator()

	ip := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeIP, "83.56.0.1"),
		Success: true,
		Data:    &intel.GeoIPInfo{IP: "83.56.0.1", Country: "Spain"},
	}
	phone := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypePhone, "+34612345678"),
		Success: true,
		Data:    &intel.PhoneInfo{E164: "+34612345678", Country: "Spain", Valid: true},
	}

	correlations, _ := c.Correlate([]*domain.Result{ip, phone})
	rec, found := findKind(correlations, domain.KindGeoMatch)
	testutil.AssertTrue(t, found, "shared country detected")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityLow, "geo match severity")
	testutil.AssertContains(t, rec.Relation, "Spain", "country named in relation")
}

func TestCorrelatePersonalSite(t *testing.T) {
	c := NewCorrelator()

	dom := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeDomain, "ghostdev.com"),
		Success: true,
		Data:    &intel.DomainInfo{Domain: "ghostdev.com"},
	}
	user := &domain.Result{
		Entity:  domain.NewEntity(domain.EntityTypeUser, "ghost"),
		Success: true,
		Data:    &intel.UserInfo{Username: "ghost"},
	}

	correlations, _ := c.Correlate([]*domain.Result{dom, user})
	rec, found := findKind(correlations, domain.KindPersonalSite)
	testutil.AssertTrue(t, found, "username substring in domain")
	testutil.AssertEqual(t, rec.Severity, domain.SeverityHigh, "personal site severity")
}
