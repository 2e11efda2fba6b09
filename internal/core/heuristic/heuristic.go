// internal/core/heuristic/heuristic.go

// Package heuristic contiene los motores de inferencia sin red: deducción
// de identidad a partir de la estructura de un identificador y evaluación
// de si un identificador pertenece a un actor de amenazas conocido.
package heuristic

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
)

// geoKeywords mapea tokens habituales en handles a ubicaciones probables.
var geoKeywords = map[string]string{
	"madrid":    "Madrid, España",
	"bcn":       "Barcelona, España",
	"barcelona": "Barcelona, España",
	"mex":       "México",
	"df":        "Ciudad de México",
	"arg":       "Argentina",
	"ba":        "Buenos Aires, Argentina",
	"bogota":    "Bogotá, Colombia",
	"col":       "Colombia",
	"santiago":  "Santiago, Chile",
	"cl":        "Chile",
	"lima":      "Lima, Perú",
	"pe":        "Perú",
	"valencia":  "Valencia, España",
	"sevilla":   "Sevilla, España",
	"uk":        "Reino Unido",
	"london":    "Londres, UK",
	"ny":        "New York, USA",
	"usa":       "Estados Unidos",
	"fr":        "Francia",
	"paris":     "París, Francia",
}

// commonNames son nombres de pila frecuentes en identificadores.
var commonNames = map[string]bool{
	"juan": true, "jose": true, "maria": true, "ana": true, "carlos": true,
	"david": true, "luis": true, "pedro": true, "manuel": true, "javier": true,
	"antonio": true, "francisco": true, "jorge": true, "alberto": true,
	"daniel": true, "miguel": true, "rafael": true, "fernando": true,
	"pablo": true, "alejo": true, "santiago": true, "diego": true,
	"sergio": true, "andres": true, "roberto": true, "ricardo": true,
	"laura": true, "carmen": true, "elena": true, "isabel": true,
	"lucia": true, "marta": true, "cristina": true, "sara": true, "paula": true,
}

var (
	splitRe = regexp.MustCompile(`[._\-]`)
	yearRe  = regexp.MustCompile(`^(19|20)\d{2}$`)
	camelRe = regexp.MustCompile(`[A-Z][a-z]+`)

	foldT = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// fold elimina diacríticos y pasa a minúsculas para comparar tokens.
func fold(s string) string {
	out, _, err := transform.String(foldT, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// InferIdentity analiza un identificador (usuario, parte local de email o
// dominio) y deduce nombres, ubicaciones y años probables. Inferencia pura
// sobre la estructura del string; nunca confirma nada.
func InferIdentity(identifier string, entityType domain.EntityType) *intel.IdentityHints {
	hints := &intel.IdentityHints{Confidence: "low"}
	if identifier == "" {
		return hints
	}

	raw := identifier
	switch entityType {
	case domain.EntityTypeEmail:
		if at := strings.Index(raw, "@"); at >= 0 {
			raw = raw[:at]
		}
	case domain.EntityTypeUser:
		raw = strings.TrimPrefix(raw, "@")
	case domain.EntityTypeDomain:
		for _, tld := range []string{".com", ".net", ".org", ".es", ".io", ".co"} {
			if strings.HasSuffix(raw, tld) {
				raw = strings.TrimSuffix(raw, tld)
				break
			}
		}
	}

	parts := nonEmpty(splitRe.Split(raw, -1))

	score := 0
	var names []string

	for _, p := range parts {
		pn := fold(p)

		if commonNames[pn] {
			names = append(names, capitalize(p))
			score += 30
		}
		if loc, ok := geoKeywords[pn]; ok {
			if !contains(hints.ProbableLocations, loc) {
				hints.ProbableLocations = append(hints.ProbableLocations, loc)
			}
			score += 40
		}
		if yearRe.MatchString(p) {
			hints.ProbableYears = append(hints.ProbableYears, p)
			score += 20
		}
	}

	// Reconstrucción de nombre completo: si hay al menos un nombre conocido
	// entre varias partes, las partes no numéricas y no geográficas forman
	// el candidato principal.
	if len(parts) >= 2 && len(names) > 0 {
		var composite []string
		for _, p := range parts {
			if isDigits(p) {
				continue
			}
			if _, geo := geoKeywords[fold(p)]; geo {
				continue
			}
			composite = append(composite, capitalize(p))
		}
		if full := strings.Join(composite, " "); full != "" {
			hints.ProbableNames = append(hints.ProbableNames, full)
			score += 20
		}
	}
	for _, n := range names {
		if !containedInAny(n, hints.ProbableNames) {
			hints.ProbableNames = append(hints.ProbableNames, n)
		}
	}

	switch {
	case score >= 60:
		hints.Confidence = "high"
	case score >= 30:
		hints.Confidence = "medium"
	}

	// CamelCase: un token único tipo "JuanPerez" se reintenta separado.
	if len(parts) == 1 && len(names) == 0 {
		if camel := camelRe.FindAllString(raw, -1); len(camel) > 1 {
			if rec := InferIdentity(strings.Join(camel, "."), entityType); rec.Confidence != "low" {
				return rec
			}
		}
	}

	return hints
}

// Grupos de ransomware y actores conocidos; coincidencia exacta dispara la
// probabilidad máxima.
var threatGroups = []string{
	"lockbit", "blackcat", "alphv", "cl0p", "play", "akira", "8base",
	"bianlian", "medusa", "lockfile", "revil", "conti", "lapsus",
	"scattered spider", "darkside", "hive", "royal", "blackbasta",
}

// Jerga de roles en operaciones cibercriminales.
var criminalRoles = []string{
	"support", "admin", "recruitment", "decrypt", "recovery", "sales",
	"hacked", "pwned", "leak", "onion", "tox", "jabber",
}

// EvaluateThreatActor estima la probabilidad de que el identificador
// pertenezca a un agente malicioso. Scoring aditivo con techo en 100.
func EvaluateThreatActor(value string) *intel.ThreatActorInfo {
	info := &intel.ThreatActorInfo{RiskTier: "none"}

	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return info
	}

	prob := 0

	for _, group := range threatGroups {
		if group == v {
			prob = 90
			info.Reasons = append(info.Reasons,
				"el identificador coincide exactamente con el grupo criminal "+strings.ToUpper(group))
			break
		}
		if strings.Contains(v, group) {
			prob += 40
			info.Reasons = append(info.Reasons,
				"el identificador contiene el nombre del grupo criminal "+strings.ToUpper(group))
		}
	}

	for _, role := range criminalRoles {
		if strings.Contains(v, role) {
			prob += 15
			info.Reasons = append(info.Reasons,
				"contiene término asociado a operaciones cibercriminales: '"+role+"'")
		}
	}

	if strings.Contains(v, "onion") || strings.Contains(v, "proton") || strings.Contains(v, "tutanota") {
		prob += 10
		info.Reasons = append(info.Reasons,
			"usa proveedores o terminologías favorecidos por actores de amenazas")
	}

	if prob > 100 {
		prob = 100
	}
	info.Probability = prob
	info.PotentialActor = prob > 0

	switch {
	case prob > 75:
		info.RiskTier = "critical"
	case prob > 50:
		info.RiskTier = "high"
	case prob > 25:
		info.RiskTier = "medium"
	case prob > 0:
		info.RiskTier = "low"
	}

	return info
}

// helpers

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containedInAny(s string, list []string) bool {
	for _, v := range list {
		if strings.Contains(v, s) {
			return true
		}
	}
	return false
}
