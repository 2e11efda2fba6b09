// internal/core/domain/intel/identity.go
package intel

// BreachInfo resume la consulta a una base de datos de filtraciones (HIBP)
// para una cuenta (email o handle).
type BreachInfo struct {
	Found    bool     `json:"found"`
	Count    int      `json:"count"`
	Breaches []string `json:"breaches,omitempty"`

	// DerivedRisk marca que la exposición no se consultó directamente sino
	// que se propagó desde otro resultado durante la correlación (el único
	// write cruzado del pipeline; ver Correlator).
	DerivedRisk bool   `json:"derived_risk,omitempty"`
	DerivedVia  string `json:"derived_via,omitempty"`
}

// EmailInfo es el análisis de una dirección de correo.
type EmailInfo struct {
	Email      string   `json:"email"`
	LocalPart  string   `json:"local_part"`
	Domain     string   `json:"domain"`
	MXRecords  []string `json:"mx_records,omitempty"`
	SPF        string   `json:"spf,omitempty"`
	DMARC      string   `json:"dmarc,omitempty"`
	Disposable bool     `json:"disposable"`

	Breach *BreachInfo `json:"breach,omitempty"`

	// Identity son las deducciones heurísticas sobre la parte local.
	Identity *IdentityHints `json:"identity,omitempty"`
}

// Kind implementa Payload.
func (e *EmailInfo) Kind() string { return "email" }

// Profile es una cuenta encontrada (o descartada) en una plataforma social.
type Profile struct {
	Site     string `json:"site"`
	URL      string `json:"url"`
	Status   string `json:"status"` // found, not_found, check_manually
	RealName string `json:"real_name,omitempty"`
	Location string `json:"location,omitempty"`
}

// ProfileStatus values.
const (
	ProfileFound         = "found"
	ProfileNotFound      = "not_found"
	ProfileCheckManually = "check_manually"
)

// IMProfile es un perfil de mensajería descubierto en índices de dark web.
// Los emails asociados alimentan el pivoting user -> email.
type IMProfile struct {
	Platform  string   `json:"platform"`
	UserID    string   `json:"user_id,omitempty"`
	Usernames []string `json:"usernames,omitempty"`
	Emails    []string `json:"emails,omitempty"`
}

// UserInfo es el análisis de un nombre de usuario.
type UserInfo struct {
	Username   string         `json:"username"`
	Profiles   []Profile      `json:"profiles,omitempty"`
	IMProfiles []IMProfile    `json:"im_profiles,omitempty"`
	Breach     *BreachInfo    `json:"breach,omitempty"`
	Identity   *IdentityHints `json:"identity,omitempty"`
}

// Kind implementa Payload.
func (u *UserInfo) Kind() string { return "user" }

// FoundProfiles retorna los perfiles confirmados o pendientes de verificar.
func (u *UserInfo) FoundProfiles() []Profile {
	var out []Profile
	for _, p := range u.Profiles {
		if p.Status == ProfileFound || p.Status == ProfileCheckManually {
			out = append(out, p)
		}
	}
	return out
}

// IdentityHints son deducciones heurísticas (no confirmadas) extraídas de la
// estructura de un identificador: nombres probables, ubicaciones y años.
type IdentityHints struct {
	ProbableNames     []string `json:"probable_names,omitempty"`
	ProbableLocations []string `json:"probable_locations,omitempty"`
	ProbableYears     []string `json:"probable_years,omitempty"`
	Confidence        string   `json:"confidence"` // low, medium, high
}

// PhoneInfo es el análisis offline de un número de teléfono.
type PhoneInfo struct {
	E164          string   `json:"e164"`
	International string   `json:"international,omitempty"`
	Country       string   `json:"country,omitempty"`
	Region        string   `json:"region,omitempty"`
	Carrier       string   `json:"carrier,omitempty"`
	LineType      string   `json:"line_type,omitempty"`
	Timezones     []string `json:"timezones,omitempty"`
	Valid         bool     `json:"valid"`
}

// Kind implementa Payload.
func (p *PhoneInfo) Kind() string { return "phone" }

// DiscordInfo es el análisis de un identificador de Discord: una invitación,
// un snowflake numérico o un username.
type DiscordInfo struct {
	Subject string `json:"subject"` // invite, user_id, username

	// Servidor (invitaciones).
	GuildName    string `json:"guild_name,omitempty"`
	GuildID      string `json:"guild_id,omitempty"`
	MemberCount  int    `json:"member_count,omitempty"`
	OnlineCount  int    `json:"online_count,omitempty"`
	InviterName  string `json:"inviter_name,omitempty"`

	// Usuario (snowflakes).
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	GlobalName string `json:"global_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	Bot        bool   `json:"bot,omitempty"`

	// Dorks de búsqueda cuando no hay API disponible.
	SearchURLs []string `json:"search_urls,omitempty"`
}

// Kind implementa Payload.
func (d *DiscordInfo) Kind() string { return "discord" }

// WalletInfo es la clasificación de una dirección de criptomonedas.
type WalletInfo struct {
	Address  string `json:"address"`
	Network  string `json:"network"` // BTC, ETH, unknown
	Valid    bool   `json:"valid"`
	Explorer string `json:"explorer,omitempty"`

	// Resumen on-chain (solo BTC, best effort).
	TxCount       int64 `json:"tx_count,omitempty"`
	TotalReceived int64 `json:"total_received,omitempty"`
	FinalBalance  int64 `json:"final_balance,omitempty"`
}

// Kind implementa Payload.
func (w *WalletInfo) Kind() string { return "wallet" }
