// internal/analyzers/phone/phone.go
package phone

import (
	"context"
	"fmt"

	"github.com/nyaruka/phonenumbers"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"phone",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "phone",
			Description:  "Offline phone number analysis: validity, country, carrier, line type",
			Types:        []domain.EntityType{domain.EntityTypePhone},
			RequiresAuth: false,
			RateLimit:    0, // sin red, sin límite
		},
	); err != nil {
		logx.New().Warn("failed to register phone analyzer", "error", err.Error())
	}
}

// descLang es el idioma de las descripciones de región y operadora.
const descLang = "es"

// Phone analiza números de teléfono sin tocar la red, con los metadatos
// embebidos de libphonenumber.
type Phone struct {
	logger logx.Logger
}

// New crea una instancia del analizador phone.
func New(logger logx.Logger) ports.Analyzer {
	return &Phone{logger: logger.With("analyzer", "phone")}
}

// Name retorna el nombre del analizador.
func (p *Phone) Name() string { return "phone" }

// Types retorna los tipos de entidad soportados.
func (p *Phone) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypePhone}
}

// Analyze parsea el número en formato internacional. Números sin prefijo
// de país no son parseables y fallan como entrada inválida.
func (p *Phone) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	parsed, err := phonenumbers.Parse(value, "")
	if err != nil {
		return ports.Fail(fmt.Sprintf("unparseable number: %v", err)), nil
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ports.Fail("number is not valid for any region"), nil
	}

	region, err := phonenumbers.GetGeocodingForNumber(parsed, descLang)
	if err != nil {
		region = ""
	}
	carrier, err := phonenumbers.GetCarrierForNumber(parsed, descLang)
	if err != nil {
		carrier = ""
	}
	tzs, err := phonenumbers.GetTimezonesForNumber(parsed)
	if err != nil {
		tzs = nil
	}

	info := &intel.PhoneInfo{
		E164:          phonenumbers.Format(parsed, phonenumbers.E164),
		International: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		Country:       phonenumbers.GetRegionCodeForNumber(parsed),
		Region:        region,
		Carrier:       carrier,
		LineType:      lineType(phonenumbers.GetNumberType(parsed)),
		Timezones:     tzs,
		Valid:         true,
	}

	p.logger.Debug("phone analyzed", "e164", info.E164, "country", info.Country)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (p *Phone) Close() error { return nil }

func lineType(t phonenumbers.PhoneNumberType) string {
	switch t {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE:
		return "fixed"
	case phonenumbers.VOIP:
		return "voip"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.PREMIUM_RATE:
		return "premium_rate"
	default:
		return "unknown"
	}
}
