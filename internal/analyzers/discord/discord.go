// internal/analyzers/discord/discord.go
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"discord",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "discord",
			Description:  "Discord invites, snowflake user IDs and username search dorks",
			Types:        []domain.EntityType{domain.EntityTypeDiscord},
			RequiresAuth: false, // bot token opcional
			RateLimit:    1.0,
		},
	); err != nil {
		logx.New().Warn("failed to register discord analyzer", "error", err.Error())
	}
}

const apiBase = "https://discord.com/api/v10"

// discordEpoch es el epoch de los snowflakes de Discord (2015-01-01 UTC),
// en milisegundos Unix.
const discordEpoch = 1420070400000

var inviteRe = regexp.MustCompile(`discord(?:\.gg|app\.com/invite)/([a-zA-Z0-9-]+)`)

// Discord despacha según la forma del identificador: enlaces de
// invitación, snowflakes numéricos o usernames planos.
type Discord struct {
	client   *httpclient.Client
	logger   logx.Logger
	botToken string
}

// New crea una instancia del analizador discord.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       "rastro/1.0",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &Discord{
		client:   httpclient.New(httpConfig, logger),
		logger:   logger.With("analyzer", "discord"),
		botToken: cfg.APIKey,
	}
}

// Name retorna el nombre del analizador.
func (d *Discord) Name() string { return "discord" }

// Types retorna los tipos de entidad soportados.
func (d *Discord) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeDiscord}
}

// Analyze clasifica el identificador y delega en el camino adecuado.
func (d *Discord) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	if m := inviteRe.FindStringSubmatch(value); m != nil {
		return d.analyzeInvite(ctx, m[1])
	}
	if isSnowflake(value) {
		return d.analyzeUserID(ctx, value)
	}
	return d.analyzeUsername(value), nil
}

// Close implementa ports.Analyzer.
func (d *Discord) Close() error { return nil }

func (d *Discord) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if d.botToken != "" {
		h["Authorization"] = "Bot " + d.botToken
	}
	return h
}

// inviteResponse es la respuesta de GET /invites/{code}.
type inviteResponse struct {
	Guild struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	} `json:"guild"`
	ApproximateMemberCount   int `json:"approximate_member_count"`
	ApproximatePresenceCount int `json:"approximate_presence_count"`
	Inviter                  struct {
		Username string `json:"username"`
	} `json:"inviter"`
}

func (d *Discord) analyzeInvite(ctx context.Context, code string) (*ports.Finding, error) {
	u := fmt.Sprintf("%s/invites/%s?with_counts=true", apiBase, url.PathEscape(code))
	body, err := d.client.FetchBody(ctx, u, d.headers())
	if err != nil {
		return ports.Fail(fmt.Sprintf("invite lookup failed: %v", err)), err
	}

	var raw inviteResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return ports.Fail(fmt.Sprintf("invite invalid response: %v", err)), err
	}

	return ports.OK(&intel.DiscordInfo{
		Subject:     "invite",
		GuildName:   raw.Guild.Name,
		GuildID:     raw.Guild.ID,
		MemberCount: raw.ApproximateMemberCount,
		OnlineCount: raw.ApproximatePresenceCount,
		InviterName: raw.Inviter.Username,
	}), nil
}

// userResponse es la respuesta de GET /users/{id}.
type userResponse struct {
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Bot        bool   `json:"bot"`
}

// analyzeUserID siempre produce la fecha de creación derivada del
// snowflake; la API solo añade detalle si hay bot token.
func (d *Discord) analyzeUserID(ctx context.Context, id string) (*ports.Finding, error) {
	info := &intel.DiscordInfo{
		Subject:   "user_id",
		UserID:    id,
		CreatedAt: snowflakeTime(id).UTC().Format("2006-01-02 15:04:05"),
	}

	if d.botToken != "" {
		body, err := d.client.FetchBody(ctx, apiBase+"/users/"+url.PathEscape(id), d.headers())
		if err == nil {
			var raw userResponse
			if json.Unmarshal(body, &raw) == nil {
				info.Username = raw.Username
				info.GlobalName = raw.GlobalName
				info.Bot = raw.Bot
				if raw.Avatar != "" {
					info.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id, raw.Avatar)
				}
			}
		} else {
			d.logger.Warn("discord user lookup failed", "id", id, "error", err.Error())
		}
	}

	return ports.OK(info), nil
}

// analyzeUsername no tiene API de búsqueda disponible: produce dorks.
func (d *Discord) analyzeUsername(username string) *ports.Finding {
	q := url.QueryEscape(username)
	return ports.OK(&intel.DiscordInfo{
		Subject:  "username",
		Username: username,
		SearchURLs: []string{
			fmt.Sprintf("https://www.google.com/search?q=%%22%s%%22+site:discord.com", q),
			"https://breachdirectory.org/search?query=" + q,
		},
	})
}

func isSnowflake(s string) bool {
	if len(s) < 15 || len(s) > 20 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// snowflakeTime deriva el instante de creación codificado en los 42 bits
// altos de un snowflake.
func snowflakeTime(id string) time.Time {
	n, _ := strconv.ParseUint(id, 10, 64)
	ms := int64(n>>22) + discordEpoch
	return time.UnixMilli(ms)
}
