// internal/analyzers/phone/phone_test.go
package phone

import (
	"context"
	"testing"

	"rastro/internal/core/domain/intel"
	"rastro/internal/platform/logx"
	"rastro/internal/testutil"
)

func newAnalyzer() *Phone {
	return &Phone{logger: logx.NewSilent()}
}

func TestAnalyzeValidSpanishMobile(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "+34612345678")

	testutil.AssertNoError(t, err, "analyze should not error")
	testutil.AssertTrue(t, finding.Success, "valid number succeeds")

	info, ok := intel.As[*intel.PhoneInfo](finding.Data)
	testutil.AssertTrue(t, ok, "payload is PhoneInfo")
	testutil.AssertEqual(t, info.E164, "+34612345678", "E164 format")
	testutil.AssertEqual(t, info.Country, "ES", "region code")
	testutil.AssertEqual(t, info.LineType, "mobile", "612 range is mobile")
	testutil.AssertTrue(t, info.Valid, "marked valid")
}

func TestAnalyzeValidUSNumber(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "+12125552368")

	testutil.AssertNoError(t, err, "analyze should not error")
	testutil.AssertTrue(t, finding.Success, "valid number succeeds")

	info, _ := intel.As[*intel.PhoneInfo](finding.Data)
	testutil.AssertEqual(t, info.Country, "US", "region code")
	testutil.AssertTrue(t, len(info.Timezones) > 0, "timezones populated")
}

func TestAnalyzeWithoutCountryPrefix(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "612345678")

	testutil.AssertNoError(t, err, "parse failure is a finding, not an error")
	testutil.AssertFalse(t, finding.Success, "numbers without prefix cannot be parsed")
}

func TestAnalyzeInvalidNumber(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "+3400000")

	testutil.AssertNoError(t, err, "invalid number is a finding, not an error")
	testutil.AssertFalse(t, finding.Success, "invalid for every region")
}
