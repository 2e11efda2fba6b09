// internal/platform/validator/validator.go
package validator

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Domain validators

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,63}$`)

// IsDomain verifica si un string es un dominio válido (con TLD).
func IsDomain(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}
	if !domainRegex.MatchString(domain) {
		return false
	}
	// Una IP no es un dominio
	return net.ParseIP(domain) == nil
}

// NormalizeDomain normaliza un dominio a su forma canónica.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// RegistrableDomain retorna el dominio registrable (eTLD+1) de un host,
// usando la public suffix list. Cae al host original si no se puede derivar.
func RegistrableDomain(host string) string {
	host = NormalizeDomain(host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// IP validators

// IsIPv4 verifica si un string es una dirección IPv4.
func IsIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// Email validators

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsEmail valida formato de email (RFC 5322 simplificado).
func IsEmail(email string) bool {
	if len(email) == 0 || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// SplitEmail separa un email en parte local y dominio (ambos en minúsculas).
func SplitEmail(email string) (local, domain string, ok bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

// URL validators

// IsURL verifica si un string es una URL http(s) absoluta.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Handle validators

var handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// IsHandle verifica si un string es un nombre de usuario plausible.
func IsHandle(s string) bool {
	return handleRegex.MatchString(strings.TrimPrefix(s, "@"))
}

// Wallet validators

var (
	btcRegex = regexp.MustCompile(`^(bc1|[13])[a-zA-HJ-NP-Z0-9]{25,39}$`)
	ethRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// WalletNetwork clasifica una dirección de wallet por su formato.
// Retorna "BTC", "ETH" o "" si no coincide con ninguna red conocida.
func WalletNetwork(address string) string {
	address = strings.TrimSpace(address)
	switch {
	case btcRegex.MatchString(address):
		return "BTC"
	case ethRegex.MatchString(address):
		return "ETH"
	default:
		return ""
	}
}

// Phone validators

// HasPhoneShape verifica que, tras eliminar separadores, quedan al menos 7
// caracteres de dígito/prefijo. Filtra falsos positivos del extractor.
func HasPhoneShape(stripped string) bool {
	return len(stripped) >= 7
}
