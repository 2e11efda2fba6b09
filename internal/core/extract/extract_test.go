// internal/core/extract/extract_test.go
package extract

import (
	"testing"

	"rastro/internal/core/domain"
	"rastro/internal/testutil"
)

func TestAllEmptyInput(t *testing.T) {
	testutil.AssertEqual(t, len(All("")), 0, "empty input yields nothing")
}

func TestAllMixedText(t *testing.T) {
	got := All("contact john@acme.com or @john_doe, ip 8.8.8.8")

	byType := make(map[domain.EntityType][]string)
	for _, e := range got {
		byType[e.Type] = append(byType[e.Type], e.Value)
	}

	testutil.AssertEqual(t, len(byType[domain.EntityTypeEmail]), 1, "one email")
	testutil.AssertEqual(t, byType[domain.EntityTypeEmail][0], "john@acme.com", "email value")

	testutil.AssertEqual(t, len(byType[domain.EntityTypeIP]), 1, "one ip")
	testutil.AssertEqual(t, byType[domain.EntityTypeIP][0], "8.8.8.8", "ip value")

	// acme.com es la cola del email ya extraído: no se re-emite como domain
	testutil.AssertEqual(t, len(byType[domain.EntityTypeDomain]), 0, "domain suppressed by email")

	testutil.AssertEqual(t, len(byType[domain.EntityTypeUser]), 1, "one handle")
	testutil.AssertEqual(t, byType[domain.EntityTypeUser][0], "john_doe", "handle value")
}

func TestAllDomainStandsAlone(t *testing.T) {
	got := All("check example.com and also sub.example.org")

	var domains []string
	for _, e := range got {
		if e.Type == domain.EntityTypeDomain {
			domains = append(domains, e.Value)
		}
	}
	testutil.AssertEqual(t, len(domains), 2, "two domains")
	testutil.AssertContains(t, domains, "example.com", "first domain")
	testutil.AssertContains(t, domains, "sub.example.org", "second domain")
}

func TestAllNumericDomainRejected(t *testing.T) {
	got := All("the address 10.0.0.1 appears twice: 10.0.0.1")

	testutil.AssertEqual(t, len(got), 1, "single identifier")
	testutil.AssertEqual(t, got[0].Type, domain.EntityTypeIP, "classified as ip, not domain")
}

func TestAllPhones(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
		hits int
	}{
		{"international", "llámame al +34 612 345 678", "+34612345678", 1},
		{"separators", "tel: 612-345-678", "612345678", 1},
		{"too short", "code 12 34", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var phones []string
			for _, e := range All(tc.text) {
				if e.Type == domain.EntityTypePhone {
					phones = append(phones, e.Value)
				}
			}
			testutil.AssertEqual(t, len(phones), tc.hits, "phone count")
			if tc.hits > 0 {
				testutil.AssertEqual(t, phones[0], tc.want, "normalized phone")
			}
		})
	}
}

func TestAllWallets(t *testing.T) {
	text := "funds moved to 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa and 0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	got := All(text)

	var wallets []string
	for _, e := range got {
		if e.Type == domain.EntityTypeWallet {
			wallets = append(wallets, e.Value)
		}
	}
	testutil.AssertEqual(t, len(wallets), 2, "btc and eth wallets")
}

func TestAllDiscordInvite(t *testing.T) {
	got := All("join https://discord.gg/abc123 now")

	var invites int
	for _, e := range got {
		if e.Type == domain.EntityTypeDiscord {
			invites++
		}
	}
	testutil.AssertEqual(t, invites, 1, "discord invite detected")
}

func TestAllNoDuplicates(t *testing.T) {
	texts := []string{
		"a@b.com a@b.com A@B.com",
		"8.8.8.8 8.8.8.8",
		"@dup @dup @DUP",
		"visit https://x.io https://x.io",
	}

	for _, text := range texts {
		got := All(text)
		seen := make(map[string]bool)
		for _, e := range got {
			key := e.Key()
			testutil.AssertFalse(t, seen[key], "duplicate pair "+key)
			seen[key] = true
		}
	}
}

func TestAllFallbackHandle(t *testing.T) {
	got := All("wintermute")
	testutil.AssertEqual(t, len(got), 1, "bare token emitted")
	testutil.AssertEqual(t, got[0].Type, domain.EntityTypeUser, "fallback type is user")
	testutil.AssertEqual(t, got[0].Value, "wintermute", "fallback value")

	// Con punto no hay fallback (ya habría sido dominio o no es handle)
	testutil.AssertEqual(t, len(All("build.v2")), 0, "dotted token without match yields nothing")
}

func TestAllLongTextNoFallback(t *testing.T) {
	got := All("three plain words here")
	testutil.AssertEqual(t, len(got), 0, ">=3 words never falls back to handle")
}

func TestAllFallbackRequiresHandleShape(t *testing.T) {
	testutil.AssertEqual(t, len(All("John Doe")), 0, "spaced text is not a handle")
	testutil.AssertEqual(t, len(All("c++")), 0, "symbols are not a handle")
	testutil.AssertEqual(t, len(All("ab")), 0, "too short for a handle")
}
