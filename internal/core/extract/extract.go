// internal/core/extract/extract.go
package extract

import (
	"regexp"
	"strings"

	"rastro/internal/core/domain"
	"rastro/internal/platform/validator"
)

// Batería ordenada de patrones. El orden importa: un valor reclamado por un
// tipo de mayor prioridad (ej: el dominio que es cola de un email) no se
// re-emite como tipo de menor prioridad.
var (
	emailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ipv4Re    = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
	domainRe  = regexp.MustCompile(`\b(?:xn--)?[a-z0-9]+(?:-[a-z0-9]+)*(?:\.(?:xn--)?[a-z0-9]+(?:-[a-z0-9]+)*)*\.[a-z]{2,63}\b`)
	urlRe     = regexp.MustCompile(`https?://(?:[-\w.]|%[\da-fA-F]{2})+`)
	phoneRe   = regexp.MustCompile(`\+?\d{1,3}[-. ]?\(?\d{2,4}\)?[-. ]?\d{3,4}[-. ]?\d{3,4}`)
	btcRe     = regexp.MustCompile(`\b(?:bc1|[13])[a-zA-HJ-NP-Z0-9]{25,39}\b`)
	ethRe     = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)
	discordRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:discord\.gg|discord\.com/invite)/[a-zA-Z0-9]+`)
	handleRe  = regexp.MustCompile(`(?:^|\s)@([a-zA-Z0-9_]{3,20})`)
)

// All escanea texto libre y retorna los identificadores tipados detectados,
// en orden de primera aparición por tipo, sin duplicados dentro de la
// llamada. Función pura, síncrona y total: con entrada malformada retorna
// lista vacía, nunca falla.
func All(text string) []domain.Entity {
	if text == "" {
		return nil
	}

	var found []domain.Entity
	seen := make(map[string]bool)

	add := func(t domain.EntityType, value, dedupKey string) {
		if seen[dedupKey] {
			return
		}
		seen[dedupKey] = true
		found = append(found, domain.Entity{Type: t, Value: value})
	}

	// Emails
	var emails []string
	for _, m := range emailRe.FindAllString(text, -1) {
		val := strings.ToLower(m)
		if !validator.IsEmail(val) {
			continue
		}
		add(domain.EntityTypeEmail, val, val)
		emails = append(emails, val)
	}

	// IPs
	for _, m := range ipv4Re.FindAllString(text, -1) {
		if !validator.IsIPv4(m) {
			continue
		}
		add(domain.EntityTypeIP, m, m)
	}

	// URLs
	for _, m := range urlRe.FindAllString(text, -1) {
		if !validator.IsURL(m) {
			continue
		}
		add(domain.EntityTypeURL, m, m)
	}

	// Dominios: el validador descarta candidatos inválidos (TLD numérico,
	// labels malformados, IPs literales); además se suprimen los que ya
	// fueron reclamados como parte de un email.
	for _, m := range domainRe.FindAllString(strings.ToLower(text), -1) {
		if !validator.IsDomain(m) {
			continue
		}
		if partOfEmail(m, emails) {
			continue
		}
		add(domain.EntityTypeDomain, m, m)
	}

	// Teléfonos: solo candidatos que conservan forma de teléfono tras
	// limpiar separadores.
	for _, m := range phoneRe.FindAllString(text, -1) {
		clean := stripPhone(strings.TrimSpace(m))
		if !validator.HasPhoneShape(clean) {
			continue
		}
		add(domain.EntityTypePhone, clean, clean)
	}

	// Wallets
	for _, m := range btcRe.FindAllString(text, -1) {
		add(domain.EntityTypeWallet, m, m)
	}
	for _, m := range ethRe.FindAllString(text, -1) {
		add(domain.EntityTypeWallet, m, strings.ToLower(m))
	}

	// Invitaciones de Discord
	for _, m := range discordRe.FindAllString(text, -1) {
		add(domain.EntityTypeDiscord, m, m)
	}

	// Handles de usuario
	for _, m := range handleRe.FindAllStringSubmatch(text, -1) {
		h := m[1]
		if !validator.IsHandle(h) {
			continue
		}
		add(domain.EntityTypeUser, h, strings.ToLower(h))
	}

	// Fallback: un token suelto con forma de handle se interpreta como
	// usuario. Asume que texto libre de menos de 3 palabras es un usuario;
	// los llamadores deben tolerar falsos positivos.
	if len(found) == 0 && len(strings.Fields(text)) < 3 {
		clean := strings.TrimSpace(text)
		if clean != "" && !strings.Contains(clean, ".") && validator.IsHandle(clean) {
			found = append(found, domain.Entity{Type: domain.EntityTypeUser, Value: clean})
		}
	}

	return found
}

func partOfEmail(dom string, emails []string) bool {
	for _, e := range emails {
		if strings.Contains(e, dom) {
			return true
		}
	}
	return false
}

func stripPhone(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
