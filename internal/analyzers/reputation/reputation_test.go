// internal/analyzers/reputation/reputation_test.go
package reputation

import (
	"encoding/json"
	"testing"

	"rastro/internal/testutil"
)

func TestEndpointFor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"ip", "8.8.8.8", "/ip_addresses/8.8.8.8"},
		{"domain", "example.com", "/domains/example.com"},
		{"domain with www", "www.Example.COM", "/domains/example.com"},
		{"domain trailing dot", "example.com.", "/domains/example.com"},
		// base64url("http://evil.test/a") sin padding
		{"url", "http://evil.test/a", "/urls/aHR0cDovL2V2aWwudGVzdC9h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, endpointFor(tt.value), tt.want, "endpoint")
		})
	}
}

func TestIsIPShape(t *testing.T) {
	testutil.AssertTrue(t, isIPShape("192.168.1.1"), "plain IPv4")
	testutil.AssertFalse(t, isIPShape("example.com"), "domain")
	testutil.AssertFalse(t, isIPShape("1.2.3"), "too few octets")
	testutil.AssertFalse(t, isIPShape("1.2.3.4.5"), "too many octets")
}

func TestVTResponseToInfo(t *testing.T) {
	raw := `{"data":{"attributes":{
		"reputation":-12,
		"tags":["phishing"],
		"last_analysis_stats":{"malicious":5,"suspicious":1,"harmless":60},
		"last_analysis_results":{
			"Zeta":{"category":"malicious"},
			"Alpha":{"category":"malicious"},
			"Beta":{"category":"harmless"},
			"Gamma":{"category":"malicious"},
			"Delta":{"category":"malicious"}
		}
	}}}`

	var resp vtResponse
	testutil.AssertNoError(t, json.Unmarshal([]byte(raw), &resp), "unmarshal should succeed")

	info := resp.toInfo()
	testutil.AssertEqual(t, info.Malicious, 5, "malicious count")
	testutil.AssertEqual(t, info.Suspicious, 1, "suspicious count")
	testutil.AssertEqual(t, info.Reputation, -12, "reputation score")
	testutil.AssertEqual(t, len(info.Engines), 3, "engines capped")
	testutil.AssertEqual(t, info.Engines[0], "Alpha", "engines sorted alphabetically")
	testutil.AssertEqual(t, info.Engines[1], "Delta", "harmless engines excluded")
}

func TestVTResponseCleanResource(t *testing.T) {
	raw := `{"data":{"attributes":{"last_analysis_stats":{"malicious":0,"suspicious":0,"harmless":70}}}}`

	var resp vtResponse
	testutil.AssertNoError(t, json.Unmarshal([]byte(raw), &resp), "unmarshal should succeed")

	info := resp.toInfo()
	testutil.AssertEqual(t, info.Malicious, 0, "clean verdict")
	testutil.AssertEqual(t, len(info.Engines), 0, "no detecting engines")
}
