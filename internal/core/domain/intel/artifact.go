// internal/core/domain/intel/artifact.go
package intel

// ImageInfo es el análisis de una imagen adjunta o referenciada por URL.
type ImageInfo struct {
	Source string `json:"source"`

	// EXIF extraído del fichero, si existe.
	CameraMake  string  `json:"camera_make,omitempty"`
	CameraModel string  `json:"camera_model,omitempty"`
	Software    string  `json:"software,omitempty"`
	TakenAt     string  `json:"taken_at,omitempty"`
	HasGPS      bool    `json:"has_gps"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`

	// Insight es el análisis visual asistido por IA, si está habilitada.
	Insight *AIInsight `json:"insight,omitempty"`
}

// Kind implementa Payload.
func (i *ImageInfo) Kind() string { return "image" }

// DocumentInfo es el análisis de metadatos de un documento adjunto.
type DocumentInfo struct {
	Path         string `json:"path"`
	Format       string `json:"format,omitempty"` // docx, pdf, txt...
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Company      string `json:"company,omitempty"`
	Created      string `json:"created,omitempty"`
	Modified     string `json:"modified,omitempty"`
	LastEditedBy string `json:"last_edited_by,omitempty"`

	Insight *AIInsight `json:"insight,omitempty"`
}

// Kind implementa Payload.
func (d *DocumentInfo) Kind() string { return "document" }

// AIInsight es la deducción de un analista IA sobre una entidad. El cliente
// que lo produce pasa por el rate limiter compartido del proceso.
type AIInsight struct {
	Summary     string `json:"summary,omitempty"`
	Context     string `json:"context,omitempty"`
	Geolocation string `json:"geolocation,omitempty"`
	Entities    string `json:"entities,omitempty"`
	RiskLevel   string `json:"risk_level,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Kind implementa Payload.
func (a *AIInsight) Kind() string { return "ai" }

// DarkWebInfo resume la búsqueda del objetivo en índices de dark web.
type DarkWebInfo struct {
	Query string       `json:"query"`
	Hits  []DarkWebHit `json:"hits,omitempty"`
	Total int          `json:"total"`
}

// DarkWebHit es una página o leak que menciona al objetivo.
type DarkWebHit struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Date  string `json:"date,omitempty"`
	Leak  bool   `json:"leak,omitempty"`
}

// Kind implementa Payload.
func (d *DarkWebInfo) Kind() string { return "darkweb" }

// ThreatActorInfo es la evaluación heurística de si un identificador
// pertenece a un actor malicioso conocido.
type ThreatActorInfo struct {
	PotentialActor bool     `json:"potential_actor"`
	Probability    int      `json:"probability"` // 0-100
	RiskTier       string   `json:"risk_tier"`
	Reasons        []string `json:"reasons,omitempty"`
}

// Kind implementa Payload.
func (t *ThreatActorInfo) Kind() string { return "threat_actor" }
