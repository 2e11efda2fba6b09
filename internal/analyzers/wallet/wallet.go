// internal/analyzers/wallet/wallet.go
package wallet

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
	"rastro/internal/platform/validator"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"wallet",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "wallet",
			Description:  "Crypto address classification with explorer links and BTC on-chain summary",
			Types:        []domain.EntityType{domain.EntityTypeWallet},
			RequiresAuth: false,
			RateLimit:    0.5,
		},
	); err != nil {
		logx.New().Warn("failed to register wallet analyzer", "error", err.Error())
	}
}

const btcChainURL = "https://blockchain.info/rawaddr/"

// Wallet clasifica direcciones de criptomonedas por red y construye el
// enlace al explorador. Para BTC añade un resumen on-chain best-effort.
type Wallet struct {
	client *httpclient.Client
	logger logx.Logger
}

// New crea una instancia del analizador wallet.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 20 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &Wallet{
		client: httpclient.New(httpConfig, logger),
		logger: logger.With("analyzer", "wallet"),
	}
}

// Name retorna el nombre del analizador.
func (w *Wallet) Name() string { return "wallet" }

// Types retorna los tipos de entidad soportados.
func (w *Wallet) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeWallet}
}

// Analyze clasifica la dirección. Una red desconocida sigue siendo un
// resultado válido con Valid=false.
func (w *Wallet) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	network := validator.WalletNetwork(value)

	info := &intel.WalletInfo{
		Address: value,
		Network: network,
		Valid:   network != "",
	}
	if network == "" {
		info.Network = "unknown"
		return ports.OK(info), nil
	}

	switch network {
	case "BTC":
		info.Explorer = "https://www.blockchain.com/explorer/addresses/btc/" + value
		w.fetchBTCSummary(ctx, info)
	case "ETH":
		info.Explorer = "https://etherscan.io/address/" + value
	}

	w.logger.Debug("wallet classified", "address", value, "network", info.Network)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (w *Wallet) Close() error { return nil }

// btcAddrResponse es el subconjunto relevante de blockchain.info/rawaddr.
type btcAddrResponse struct {
	NTx           int64 `json:"n_tx"`
	TotalReceived int64 `json:"total_received"`
	FinalBalance  int64 `json:"final_balance"`
}

// fetchBTCSummary es best-effort: su fallo no degrada la clasificación.
func (w *Wallet) fetchBTCSummary(ctx context.Context, info *intel.WalletInfo) {
	u := btcChainURL + url.PathEscape(info.Address) + "?limit=0"
	body, err := w.client.FetchBody(ctx, u, nil)
	if err != nil {
		w.logger.Debug("btc on-chain lookup failed", "address", info.Address, "error", err.Error())
		return
	}

	var raw btcAddrResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return
	}

	info.TxCount = raw.NTx
	info.TotalReceived = raw.TotalReceived
	info.FinalBalance = raw.FinalBalance
}
