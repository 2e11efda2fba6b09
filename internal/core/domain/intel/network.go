// internal/core/domain/intel/network.go
package intel

// GeoIPInfo es el resultado de geolocalizar una dirección IP.
type GeoIPInfo struct {
	IP        string  `json:"ip"`
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"region,omitempty"`
	City      string  `json:"city,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
	ISP       string  `json:"isp,omitempty"`
	Org       string  `json:"org,omitempty"`
	ASN       string  `json:"asn,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	// Abuse es la reputación reportada por AbuseIPDB, si hay API key.
	Abuse *AbuseInfo `json:"abuse,omitempty"`
}

// Kind implementa Payload.
func (g *GeoIPInfo) Kind() string { return "geoip" }

// AbuseInfo resume la consulta a AbuseIPDB para una IP.
type AbuseInfo struct {
	ConfidenceScore int    `json:"confidence_score"`
	TotalReports    int    `json:"total_reports"`
	Whitelisted     bool   `json:"whitelisted"`
	LastReportedAt  string `json:"last_reported_at,omitempty"`
	UsageType       string `json:"usage_type,omitempty"`
	Domain          string `json:"domain,omitempty"`
	CountryCode     string `json:"country_code,omitempty"`
}

// ReputationInfo es el veredicto de un servicio de reputación multi-motor
// (VirusTotal) sobre una IP, dominio o URL.
type ReputationInfo struct {
	Malicious  int      `json:"malicious"`
	Suspicious int      `json:"suspicious"`
	Harmless   int      `json:"harmless"`
	Reputation int      `json:"reputation"`
	Tags       []string `json:"tags,omitempty"`

	// Engines lista los primeros motores que marcaron el recurso.
	Engines []string `json:"engines,omitempty"`
}

// Kind implementa Payload.
func (r *ReputationInfo) Kind() string { return "reputation" }

// DomainInfo agrega todo lo descubierto sobre un dominio: transparencia de
// certificados, scraping del homepage, registro RDAP y detección de capas
// de protección (CDN/WAF).
type DomainInfo struct {
	Domain        string   `json:"domain"`
	Subdomains    []string `json:"subdomains,omitempty"`
	RelatedEmails []string `json:"related_emails,omitempty"`
	RelatedPhones []string `json:"related_phones,omitempty"`
	PageTitle     string   `json:"page_title,omitempty"`
	WebStatus     string   `json:"web_status,omitempty"`
	RegisteredAt  string   `json:"registered_at,omitempty"`
	Registrar     string   `json:"registrar,omitempty"`
	ResolvedIP    string   `json:"resolved_ip,omitempty"`
	NameServers   []string `json:"name_servers,omitempty"`

	// Capa de protección delante del origen.
	WAFDetected bool   `json:"waf_detected"`
	WAFProvider string `json:"waf_provider,omitempty"`
	WAFBypassed bool   `json:"waf_bypassed"`
	OriginIP    string `json:"origin_ip,omitempty"`

	// SourceErrors acumula fallos parciales de las fuentes consultadas.
	SourceErrors []string `json:"source_errors,omitempty"`
}

// Kind implementa Payload.
func (d *DomainInfo) Kind() string { return "domain" }

// URLScanInfo resume el análisis de una URL en urlscan.io.
type URLScanInfo struct {
	URL        string   `json:"url"`
	ScanID     string   `json:"scan_id,omitempty"`
	Verdict    string   `json:"verdict,omitempty"`
	Score      int      `json:"score"`
	PageDomain string   `json:"page_domain,omitempty"`
	PageIP     string   `json:"page_ip,omitempty"`
	PageASN    string   `json:"page_asn,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Kind implementa Payload.
func (u *URLScanInfo) Kind() string { return "urlscan" }
