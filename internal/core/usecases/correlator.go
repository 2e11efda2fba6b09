// internal/core/usecases/correlator.go
package usecases

import (
	"fmt"
	"strings"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
)

// Correlator deriva relaciones y señales de riesgo del conjunto completo
// de resultados de un run. Función pura del input: se regenera entera en
// cada pasada y nunca muta los resultados; los writes cruzados se retornan
// como parches para que el caller los aplique.
type Correlator struct{}

// NewCorrelator crea un correlador.
func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Correlate ejecuta las dos pasadas: insights individuales por resultado y
// cruce todos-contra-todos O(n²), visitando cada par no ordenado una sola
// vez. El orden de los registros sigue el orden de iteración del input y
// no está garantizado como estable entre versiones.
func (c *Correlator) Correlate(results []*domain.Result) ([]domain.Correlation, []domain.Patch) {
	var correlations []domain.Correlation
	var patches []domain.Patch

	if len(results) == 0 {
		return nil, nil
	}

	for _, res := range results {
		correlations = c.individual(res, correlations)
	}

	// Clave canónica por par de valores para no procesar (a,b) y (b,a).
	seen := make(map[string]bool)
	for i, a := range results {
		for _, b := range results[i+1:] {
			// Dos resultados sobre la misma entidad no son un cruce.
			if a.Entity.Key() == b.Entity.Key() {
				continue
			}
			key := pairKey(a.Entity.Value, b.Entity.Value)
			if seen[key] {
				continue
			}
			seen[key] = true

			correlations, patches = c.cross(a, b, correlations, patches)
		}
	}

	return correlations, patches
}

// individual aplica las reglas por elemento.
func (c *Correlator) individual(res *domain.Result, out []domain.Correlation) []domain.Correlation {
	if !res.Success {
		return out
	}
	t := res.Entity.Type
	value := res.Entity.Value

	// Veredictos de reputación multi-motor.
	if rep, ok := intel.As[*intel.ReputationInfo](res.Data); ok && rep.Malicious > 0 {
		sev := domain.SeverityHigh
		if rep.Malicious > 2 {
			sev = domain.SeverityCritical
		}
		engines := rep.Engines
		if len(engines) > 3 {
			engines = engines[:3]
		}
		out = append(out, domain.Correlation{
			Kind:     domain.KindMalwareDetected,
			Relation: fmt.Sprintf("VirusTotal (%d hits)", rep.Malicious),
			Description: fmt.Sprintf("el identificador '%s' fue marcado como malicioso por %d motores antivirus (%s)",
				value, rep.Malicious, strings.Join(engines, ", ")),
			Severity: sev,
		})
	}

	// Menciones en índices de dark web con leaks asociados.
	if dw, ok := intel.As[*intel.DarkWebInfo](res.Data); ok {
		for _, hit := range dw.Hits {
			if hit.Leak {
				out = append(out, domain.Correlation{
					Kind:        domain.KindThreatListed,
					Relation:    fmt.Sprintf("identificador comprometido (%s)", strings.ToUpper(string(t))),
					Description: fmt.Sprintf("el objetivo '%s' aparece en filtraciones indexadas en la dark web", value),
					Severity:    domain.SeverityCritical,
				})
				break
			}
		}
	}

	switch t {
	case domain.EntityTypeIP:
		if geo, ok := intel.As[*intel.GeoIPInfo](res.Data); ok {
			if isHostileJurisdiction(geo.Country) {
				out = append(out, domain.Correlation{
					Kind:        domain.KindGeoRisk,
					Relation:    "jurisdicción hostil",
					Description: fmt.Sprintf("la IP %s está ubicada en %s, zona de alto riesgo", geo.IP, geo.Country),
					Severity:    domain.SeverityMedium,
				})
			}
			isp := strings.ToLower(geo.ISP)
			if strings.Contains(isp, "tor") || strings.Contains(isp, "vpn") {
				out = append(out, domain.Correlation{
					Kind:        domain.KindAnonymization,
					Relation:    "uso de proxy/VPN",
					Description: fmt.Sprintf("el ISP (%s) sugiere el uso de redes de anonimización", geo.ISP),
					Severity:    domain.SeverityHigh,
				})
			}
		}

	case domain.EntityTypePhone:
		if ph, ok := intel.As[*intel.PhoneInfo](res.Data); ok && isHostileJurisdiction(ph.Country) {
			out = append(out, domain.Correlation{
				Kind:        domain.KindGeoRisk,
				Relation:    "jurisdicción hostil",
				Description: fmt.Sprintf("el número %s está registrado en %s, zona de alto riesgo", value, ph.Country),
				Severity:    domain.SeverityMedium,
			})
		}

	case domain.EntityTypeEmail:
		if em, ok := intel.As[*intel.EmailInfo](res.Data); ok && em.Disposable {
			out = append(out, domain.Correlation{
				Kind:        domain.KindDisposableEmail,
				Relation:    "email temporal",
				Description: fmt.Sprintf("correo desechable detectado: %s", value),
				Severity:    domain.SeverityHigh,
			})
		}

	case domain.EntityTypeUser:
		if u, ok := intel.As[*intel.UserInfo](res.Data); ok {
			found := u.FoundProfiles()
			if len(found) > 5 {
				out = append(out, domain.Correlation{
					Kind:     domain.KindFootprint,
					Relation: "presencia extensa",
					Description: fmt.Sprintf("se han localizado %d perfiles activos para '%s', lo que facilita un perfilado exhaustivo",
						len(found), value),
					Severity: domain.SeverityInformational,
				})
			}

			names := make(map[string]bool)
			for _, p := range found {
				if p.RealName != "" {
					names[p.RealName] = true
				}
			}
			if len(names) > 1 {
				var list []string
				for n := range names {
					list = append(list, n)
					if len(list) == 3 {
						break
					}
				}
				out = append(out, domain.Correlation{
					Kind:     domain.KindIdentityMismatch,
					Relation: "nombres inconsistentes",
					Description: fmt.Sprintf("el usuario '%s' utiliza distintos nombres reales en sus redes (%s); posible uso de alias",
						value, strings.Join(list, ", ")),
					Severity: domain.SeverityMedium,
				})
			}
		}
	}

	return out
}

// infraDomains es el allowlist de proveedores de infraestructura conocidos:
// un email bajo uno de estos dominios no implica personal del objetivo.
var infraDomains = []string{
	"cloudflare.com", "akamaitechnologies.com", "google.com",
	"amazon.com", "azure.com", "godaddy.com",
}

// cross evalúa el catálogo de relaciones para un par de resultados. El par
// se normaliza por orden lexicográfico de tipo para que la comparación sea
// independiente del orden de entrada.
func (c *Correlator) cross(a, b *domain.Result, out []domain.Correlation, patches []domain.Patch) ([]domain.Correlation, []domain.Patch) {
	if a.Entity.Type > b.Entity.Type {
		a, b = b, a
	}

	ta, va := a.Entity.Type, a.Entity.Value
	tb, vb := b.Entity.Type, b.Entity.Value

	// Email vs Email: mismo dominio de correo.
	if ta == domain.EntityTypeEmail && tb == domain.EntityTypeEmail {
		ea, okA := intel.As[*intel.EmailInfo](a.Data)
		eb, okB := intel.As[*intel.EmailInfo](b.Data)
		if okA && okB && ea.Domain != "" && ea.Domain == eb.Domain {
			out = append(out, domain.Correlation{
				Kind:     domain.KindOrgLink,
				Relation: "mismo dominio de correo",
				Description: fmt.Sprintf("ambos correos (%s y %s) operan bajo la misma entidad '%s', lo que indica una relación laboral o institucional",
					va, vb, ea.Domain),
				Severity: domain.SeverityLow,
			})
		}
	}

	// Domain vs Email: pertenencia del correo al dominio.
	if ta == domain.EntityTypeDomain && tb == domain.EntityTypeEmail {
		emailDom := ""
		if eb, ok := intel.As[*intel.EmailInfo](b.Data); ok {
			emailDom = eb.Domain
		}
		if emailDom != "" && (emailDom == va || strings.HasSuffix(emailDom, "."+va)) {
			if isInfraProvider(va) {
				out = append(out, domain.Correlation{
					Kind:     domain.KindThirdPartyInfra,
					Relation: "servicio de terceros",
					Description: fmt.Sprintf("el correo %s (%s) indica el uso de servicios gestionados por proveedores externos, no necesariamente personal del objetivo",
						vb, va),
					Severity: domain.SeverityInformational,
				})
			} else {
				out = append(out, domain.Correlation{
					Kind:     domain.KindCorporateEmail,
					Relation: "email corporativo",
					Description: fmt.Sprintf("el correo %s utiliza el dominio %s, lo que confirma que es una dirección oficial de dicha organización",
						vb, va),
					Severity: domain.SeverityHigh,
				})
			}
		}
	}

	// Domain vs IP: resolución del dominio a la IP.
	if ta == domain.EntityTypeDomain && tb == domain.EntityTypeIP {
		if d, ok := intel.As[*intel.DomainInfo](a.Data); ok && d.ResolvedIP != "" && d.ResolvedIP == vb {
			switch {
			case d.WAFDetected && d.WAFBypassed:
				out = append(out, domain.Correlation{
					Kind:     domain.KindInfraBypass,
					Relation: "bypass de WAF exitoso",
					Description: fmt.Sprintf("se ha descubierto la IP real (%s) oculta detrás de %s; esto permite atacar directamente al servidor origen",
						vb, wafName(d)),
					Severity: domain.SeverityCritical,
				})
			case d.WAFDetected:
				out = append(out, domain.Correlation{
					Kind:     domain.KindInfraProtected,
					Relation: fmt.Sprintf("protección detectada (%s)", wafName(d)),
					Description: fmt.Sprintf("el sitio utiliza %s; la IP %s es solo una máscara de seguridad y no el servidor real",
						wafName(d), vb),
					Severity: domain.SeverityInformational,
				})
			default:
				out = append(out, domain.Correlation{
					Kind:        domain.KindInfraHosting,
					Relation:    "alojamiento detectado",
					Description: fmt.Sprintf("el sitio web %s está alojado en el servidor con IP %s", va, vb),
					Severity:    domain.SeverityHigh,
				})
			}
		}
	}

	// User vs User: alias idéntico en búsquedas separadas.
	if ta == domain.EntityTypeUser && tb == domain.EntityTypeUser {
		if strings.EqualFold(va, vb) {
			out = append(out, domain.Correlation{
				Kind:     domain.KindIdentityReuse,
				Relation: "alias reutilizado",
				Description: fmt.Sprintf("el alias '%s' aparece en múltiples plataformas; al ser idéntico, es altamente probable que pertenezca a la misma persona",
					va),
				Severity: domain.SeverityMedium,
			})
		}
	}

	// Email vs User: la parte local del correo coincide con el usuario.
	if ta == domain.EntityTypeEmail && tb == domain.EntityTypeUser {
		if ea, ok := intel.As[*intel.EmailInfo](a.Data); ok && ea.LocalPart != "" && strings.EqualFold(ea.LocalPart, vb) {
			out = append(out, domain.Correlation{
				Kind:     domain.KindAliasPattern,
				Relation: "patrón de usuario",
				Description: fmt.Sprintf("la parte local del correo (%s) coincide exactamente con el usuario buscado (%s); es común usar el nick habitual en correos personales",
					ea.LocalPart, vb),
				Severity: domain.SeverityMedium,
			})

			// Propagación de exposición: si el email está filtrado, el
			// resultado del usuario hereda el flag como riesgo derivado.
			// Es el único write cruzado del pipeline y se emite como parche.
			if ea.Breach != nil && ea.Breach.Found {
				patches = append(patches, domain.Patch{
					TargetKey: b.Entity.Key(),
					BreachVia: va,
				})
			}
		}
	}

	// Domain vs User: el dominio contiene el nombre del usuario (o al revés).
	if ta == domain.EntityTypeDomain && tb == domain.EntityTypeUser {
		userClean := strings.ReplaceAll(strings.ToLower(vb), " ", "")
		domLower := strings.ToLower(va)
		if userClean != "" && (strings.Contains(domLower, userClean) || strings.Contains(userClean, domLower)) {
			out = append(out, domain.Correlation{
				Kind:     domain.KindPersonalSite,
				Relation: "posible sitio personal/oficial",
				Description: fmt.Sprintf("el dominio %s contiene el nombre del usuario %s, sugiriendo que podría ser su página personal o de su empresa",
					va, vb),
				Severity: domain.SeverityHigh,
			})
		}
	}

	// Coincidencia geográfica general (cualquier par de tipos).
	countryA := extractCountry(a)
	countryB := extractCountry(b)
	if countryA != "" && countryA == countryB {
		out = append(out, domain.Correlation{
			Kind:     domain.KindGeoMatch,
			Relation: fmt.Sprintf("coincidencia geográfica (%s)", countryA),
			Description: fmt.Sprintf("tanto %s (%s) como %s (%s) parecen operar desde %s, lo que refuerza una relación local",
				va, ta, vb, tb, countryA),
			Severity: domain.SeverityLow,
		})
	}

	return out, patches
}

// hostileJurisdictions es la lista fija de países de alto riesgo.
var hostileJurisdictions = []string{"russia", "china", "north korea", "iran"}

func isHostileJurisdiction(country string) bool {
	c := strings.ToLower(country)
	for _, h := range hostileJurisdictions {
		if c == h {
			return true
		}
	}
	return false
}

func isInfraProvider(dom string) bool {
	d := strings.ToLower(dom)
	for _, infra := range infraDomains {
		if strings.Contains(d, infra) {
			return true
		}
	}
	return false
}

func wafName(d *intel.DomainInfo) string {
	if d.WAFProvider != "" {
		return d.WAFProvider
	}
	return "WAF"
}

// extractCountry saca un país best-effort de un resultado según su tipo:
// geolocalización para IPs, prefijo para teléfonos y ubicaciones declaradas
// en perfiles para usuarios.
func extractCountry(res *domain.Result) string {
	switch res.Entity.Type {
	case domain.EntityTypeIP:
		if geo, ok := intel.As[*intel.GeoIPInfo](res.Data); ok {
			return geo.Country
		}
	case domain.EntityTypePhone:
		if ph, ok := intel.As[*intel.PhoneInfo](res.Data); ok {
			return ph.Country
		}
	case domain.EntityTypeUser:
		if u, ok := intel.As[*intel.UserInfo](res.Data); ok {
			for _, p := range u.FoundProfiles() {
				if c := countryFromLocation(p.Location); c != "" {
					return c
				}
			}
		}
	}
	return ""
}

// countryFromLocation normaliza ubicaciones declaradas en texto libre a un
// país canónico. Cobertura deliberadamente parcial.
func countryFromLocation(loc string) string {
	l := strings.ToLower(loc)
	if l == "" {
		return ""
	}
	switch {
	case strings.Contains(l, "spain") || strings.Contains(l, "españa"):
		return "Spain"
	case strings.Contains(l, "usa") || strings.Contains(l, "united states") || strings.Contains(l, "eeuu"):
		return "United States"
	case strings.Contains(l, "uk") || strings.Contains(l, "united kingdom"):
		return "United Kingdom"
	case strings.Contains(l, "france") || strings.Contains(l, "francia"):
		return "France"
	case strings.Contains(l, "germany") || strings.Contains(l, "alemania"):
		return "Germany"
	case strings.Contains(l, "russia") || strings.Contains(l, "rusia"):
		return "Russia"
	case strings.Contains(l, "china"):
		return "China"
	case strings.Contains(l, "brazil") || strings.Contains(l, "brasil"):
		return "Brazil"
	}
	return ""
}

// pairKey construye la clave canónica (independiente del orden) de un par.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
