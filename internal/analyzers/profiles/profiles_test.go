// internal/analyzers/profiles/profiles_test.go
package profiles

import (
	"encoding/json"
	"sort"
	"testing"

	"rastro/internal/core/domain/intel"
	"rastro/internal/testutil"
)

func TestRankOrdersFoundFirst(t *testing.T) {
	profiles := []intel.Profile{
		{Site: "A", Status: intel.ProfileNotFound},
		{Site: "B", Status: intel.ProfileFound},
		{Site: "C", Status: intel.ProfileCheckManually},
		{Site: "D", Status: intel.ProfileFound},
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return rank(profiles[i].Status) < rank(profiles[j].Status)
	})

	testutil.AssertEqual(t, profiles[0].Site, "B", "found first, stable order")
	testutil.AssertEqual(t, profiles[1].Site, "D", "second found keeps relative order")
	testutil.AssertEqual(t, profiles[2].Site, "C", "check_manually after found")
	testutil.AssertEqual(t, profiles[3].Site, "A", "not_found last")
}

func TestSiteList(t *testing.T) {
	testutil.AssertEqual(t, len(sites), 5, "five probed platforms")
	testutil.AssertEqual(t, sites[1].Name, "GitHub", "github probed")
}

func TestIMResponseParsing(t *testing.T) {
	raw := `{"hits":[{"platform":"telegram","user_id":"12345","usernames":["ghost","gh0st"],"emails":["ghost@proton.me"]}]}`

	var resp imResponse
	testutil.AssertNoError(t, json.Unmarshal([]byte(raw), &resp), "unmarshal should succeed")
	testutil.AssertEqual(t, len(resp.Hits), 1, "one IM account")
	testutil.AssertEqual(t, resp.Hits[0].Platform, "telegram", "platform")
	testutil.AssertEqual(t, len(resp.Hits[0].Emails), 1, "pivot email present")
}
