// internal/core/domain/correlation.go
package domain

// Severity clasifica la gravedad de una correlación. Cada regla del
// correlador asigna una severidad fija; no hay scoring continuo.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityLow           Severity = "low"
	SeverityMedium        Severity = "medium"
	SeverityHigh          Severity = "high"
	SeverityCritical      Severity = "critical"
)

// Level retorna la severidad como entero ordenable (mayor = más grave).
func (s Severity) Level() int {
	switch s {
	case SeverityInformational:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// IsValid verifica si la severidad es válida.
func (s Severity) IsValid() bool {
	return s.Level() >= 0
}

// String retorna la representación string de la severidad.
func (s Severity) String() string {
	return string(s)
}

// CorrelationKind es la taxonomía cerrada de señales que emite el correlador.
type CorrelationKind string

const (
	// Señales individuales.
	KindMalwareDetected  CorrelationKind = "MALWARE_DETECTED"
	KindThreatListed     CorrelationKind = "THREAT_LISTED"
	KindGeoRisk          CorrelationKind = "GEO_RISK"
	KindAnonymization    CorrelationKind = "ANONYMIZATION"
	KindDisposableEmail  CorrelationKind = "DISPOSABLE_EMAIL"
	KindFootprint        CorrelationKind = "DIGITAL_FOOTPRINT"
	KindIdentityMismatch CorrelationKind = "IDENTITY_MISMATCH"

	// Señales entre pares.
	KindOrgLink         CorrelationKind = "ORG_LINK"
	KindThirdPartyInfra CorrelationKind = "THIRD_PARTY_INFRA"
	KindCorporateEmail  CorrelationKind = "CORPORATE_HIERARCHY"
	KindInfraBypass     CorrelationKind = "INFRA_BYPASS"
	KindInfraProtected  CorrelationKind = "INFRA_PROTECTED"
	KindInfraHosting    CorrelationKind = "INFRA_HOSTING"
	KindIdentityReuse   CorrelationKind = "IDENTITY_REUSE"
	KindAliasPattern    CorrelationKind = "ALIAS_PATTERN"
	KindPersonalSite    CorrelationKind = "PERSONAL_SITE"
	KindGeoMatch        CorrelationKind = "GEO_MATCH"
)

// Correlation es una relación o señal de riesgo derivada del conjunto de
// resultados. Se regenera completa en cada pasada de correlación; nunca se
// muta incrementalmente.
type Correlation struct {
	Kind        CorrelationKind `json:"kind"`
	Relation    string          `json:"relation"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
}
