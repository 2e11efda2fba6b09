// internal/analyzers/wallet/wallet_test.go
package wallet

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
	"rastro/internal/testutil"
)

func newAnalyzer() *Wallet {
	cfg := ports.DefaultAnalyzerConfig()
	cfg.Timeout = time.Second
	cfg.Retries = 0
	return New(cfg, logx.NewSilent()).(*Wallet)
}

func TestAnalyzeETHAddress(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	testutil.AssertNoError(t, err, "analyze should not error")
	testutil.AssertTrue(t, finding.Success, "classification succeeds")

	info, ok := intel.As[*intel.WalletInfo](finding.Data)
	testutil.AssertTrue(t, ok, "payload is WalletInfo")
	testutil.AssertEqual(t, info.Network, "ETH", "network")
	testutil.AssertTrue(t, info.Valid, "valid address")
	testutil.AssertContains(t, info.Explorer, "etherscan.io", "etherscan link")
}

func TestAnalyzeUnknownAddress(t *testing.T) {
	finding, err := newAnalyzer().Analyze(context.Background(), "not-a-wallet")

	testutil.AssertNoError(t, err, "analyze should not error")
	testutil.AssertTrue(t, finding.Success, "unknown network is still a finding")

	info, _ := intel.As[*intel.WalletInfo](finding.Data)
	testutil.AssertEqual(t, info.Network, "unknown", "network")
	testutil.AssertFalse(t, info.Valid, "not valid")
	testutil.AssertEqual(t, info.Explorer, "", "no explorer link")
}

func TestBTCResponseParsing(t *testing.T) {
	raw := `{"n_tx":1024,"total_received":5000000000,"final_balance":123456}`

	var resp btcAddrResponse
	testutil.AssertNoError(t, json.Unmarshal([]byte(raw), &resp), "unmarshal should succeed")
	testutil.AssertEqual(t, resp.NTx, int64(1024), "tx count")
	testutil.AssertEqual(t, resp.FinalBalance, int64(123456), "final balance in satoshis")
}
