// internal/analyzers/domainintel/domainintel.go
package domainintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
	"rastro/internal/platform/validator"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"domainintel",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(cfg, deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "domainintel",
			Description:  "Domain recon: CT logs, homepage scraping, RDAP and WAF detection",
			Types:        []domain.EntityType{domain.EntityTypeDomain},
			RequiresAuth: false,
			RateLimit:    2.0,
		},
	); err != nil {
		logx.New().Warn("failed to register domainintel analyzer", "error", err.Error())
	}
}

// DomainIntel agrega varias fuentes pasivas sobre un dominio. Cada fuente
// es best-effort: sus fallos se acumulan en SourceErrors sin tumbar el
// análisis completo.
type DomainIntel struct {
	client   *httpclient.Client
	resolver *net.Resolver
	logger   logx.Logger
}

// New crea una instancia del analizador domainintel.
func New(cfg ports.AnalyzerConfig, logger logx.Logger) ports.Analyzer {
	httpConfig := httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.Retries,
		RetryBackoff:    2 * time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       "Mozilla/5.0 (compatible; rastro/1.0)",
		ProxyURL:        cfg.ProxyURL,
		RateLimit:       cfg.RateLimit,
		RateLimitBurst:  1,
	}

	return &DomainIntel{
		client:   httpclient.New(httpConfig, logger),
		resolver: net.DefaultResolver,
		logger:   logger.With("analyzer", "domainintel"),
	}
}

// Name retorna el nombre del analizador.
func (d *DomainIntel) Name() string { return "domainintel" }

// Types retorna los tipos de entidad soportados.
func (d *DomainIntel) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeDomain}
}

// Analyze consulta todas las fuentes en paralelo y fusiona sus hallazgos.
// El analizador solo falla si ninguna fuente aportó nada.
func (d *DomainIntel) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	info := &intel.DomainInfo{Domain: value}

	var (
		ct   *ctFindings
		home *homepageFindings
		reg  *rdapFindings
	)

	// Cada goroutine escribe solo en su propia variable. Los errores no
	// abortan el grupo: se recogen como errores de fuente.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ct, err = d.queryCT(gctx, value); err != nil {
			ct = &ctFindings{errs: []string{fmt.Sprintf("crt.sh: %v", err)}}
		}
		return nil
	})
	g.Go(func() error {
		home = d.scrapeHomepage(gctx, value)
		return nil
	})
	g.Go(func() error {
		var err error
		if reg, err = d.queryRDAP(gctx, value); err != nil {
			reg = &rdapFindings{errs: []string{fmt.Sprintf("rdap: %v", err)}}
		}
		return nil
	})
	g.Go(func() error {
		d.resolveDNS(gctx, value, info)
		return nil
	})
	_ = g.Wait()

	seenEmails := make(map[string]bool)
	addEmail := func(e string) {
		e = strings.ToLower(e)
		if !seenEmails[e] {
			seenEmails[e] = true
			info.RelatedEmails = append(info.RelatedEmails, e)
		}
	}

	info.Subdomains = ct.subdomains
	info.SourceErrors = append(info.SourceErrors, ct.errs...)
	for _, e := range ct.emails {
		addEmail(e)
	}

	info.WebStatus = home.status
	info.PageTitle = home.title
	info.RelatedPhones = home.phones
	for _, e := range home.emails {
		addEmail(e)
	}

	info.RegisteredAt = reg.registeredAt
	info.Registrar = reg.registrar
	if len(reg.nameServers) > 0 {
		info.NameServers = reg.nameServers
	}
	info.SourceErrors = append(info.SourceErrors, reg.errs...)

	d.detectWAF(ctx, info)

	if info.ResolvedIP == "" && len(info.Subdomains) == 0 && info.WebStatus == statusOffline {
		return ports.Fail("domain did not resolve and no passive source had records"), nil
	}

	d.logger.Info("domain analyzed",
		"domain", value,
		"subdomains", len(info.Subdomains),
		"emails", len(info.RelatedEmails),
		"waf", info.WAFProvider,
	)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (d *DomainIntel) Close() error { return nil }

// --- crt.sh ---

type ctFindings struct {
	subdomains []string
	emails     []string
	errs       []string
}

type certRecord struct {
	NameValue string `json:"name_value"`
}

func (d *DomainIntel) queryCT(ctx context.Context, dom string) (*ctFindings, error) {
	u := fmt.Sprintf("https://crt.sh/?q=%s&output=json", url.QueryEscape(dom))
	body, err := d.client.FetchBody(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var records []certRecord
	if err := json.Unmarshal(body, &records); err != nil {
		// crt.sh a veces responde HTML bajo carga
		return nil, fmt.Errorf("unparseable response: %w", err)
	}

	return classifyCertNames(records), nil
}

// classifyCertNames separa los name_value de los certificados en hosts y
// direcciones de correo, deduplicando.
func classifyCertNames(records []certRecord) *ctFindings {
	out := &ctFindings{}
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, name := range strings.Split(rec.NameValue, "\n") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if strings.Contains(name, "@") {
				out.emails = append(out.emails, name)
			} else {
				out.subdomains = append(out.subdomains, name)
			}
		}
	}
	sort.Strings(out.subdomains)
	return out
}

// --- homepage ---

const (
	statusOnline  = "ONLINE"
	statusOffline = "OFFLINE"
)

type homepageFindings struct {
	status string
	title  string
	emails []string
	phones []string
}

func (d *DomainIntel) scrapeHomepage(ctx context.Context, dom string) *homepageFindings {
	out := &homepageFindings{status: statusOffline}

	resp, err := d.client.Get(ctx, "http://"+dom, nil)
	if err != nil {
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		out.status = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return out
	}
	out.status = statusOnline

	body := make([]byte, 0, 64*1024)
	buf := make([]byte, 8*1024)
	for len(body) < cap(body) {
		n, rerr := resp.Body.Read(buf)
		body = append(body, buf[:n]...)
		if rerr != nil {
			break
		}
	}
	text := string(body)

	if m := titleRe.FindStringSubmatch(text); m != nil {
		out.title = strings.TrimSpace(m[1])
	}
	out.emails = dedupe(pageEmailRe.FindAllString(text, 20))
	out.phones = dedupe(pagePhoneRe.FindAllString(text, 20))
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// --- RDAP ---

type rdapFindings struct {
	registeredAt string
	registrar    string
	nameServers  []string
	errs         []string
}

type rdapResponse struct {
	Events []struct {
		Action string `json:"eventAction"`
		Date   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string        `json:"roles"`
		VCardArray json.RawMessage `json:"vcardArray"`
	} `json:"entities"`
	Nameservers []struct {
		LDHName string `json:"ldhName"`
	} `json:"nameservers"`
}

func (d *DomainIntel) queryRDAP(ctx context.Context, dom string) (*rdapFindings, error) {
	body, err := d.client.FetchBody(ctx, "https://rdap.org/domain/"+url.PathEscape(dom), nil)
	if err != nil {
		return nil, err
	}

	var raw rdapResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	out := &rdapFindings{}
	for _, ev := range raw.Events {
		if ev.Action == "registration" {
			out.registeredAt = ev.Date
			break
		}
	}
	for _, ent := range raw.Entities {
		for _, role := range ent.Roles {
			if role == "registrar" {
				out.registrar = vcardFullName(ent.VCardArray)
			}
		}
	}
	for _, ns := range raw.Nameservers {
		if ns.LDHName != "" {
			out.nameServers = append(out.nameServers, strings.ToLower(ns.LDHName))
		}
	}
	return out, nil
}

// vcardFullName extrae el campo "fn" de un vcardArray jCard. El formato es
// ["vcard", [["fn", {}, "text", "Nombre"], ...]].
func vcardFullName(raw json.RawMessage) string {
	var card []json.RawMessage
	if json.Unmarshal(raw, &card) != nil || len(card) < 2 {
		return ""
	}
	var props [][]json.RawMessage
	if json.Unmarshal(card[1], &props) != nil {
		return ""
	}
	for _, prop := range props {
		if len(prop) < 4 {
			continue
		}
		var key, val string
		if json.Unmarshal(prop[0], &key) != nil || key != "fn" {
			continue
		}
		if json.Unmarshal(prop[3], &val) == nil {
			return val
		}
	}
	return ""
}

// --- DNS y WAF ---

func (d *DomainIntel) resolveDNS(ctx context.Context, dom string, info *intel.DomainInfo) {
	if addrs, err := d.resolver.LookupHost(ctx, dom); err == nil {
		for _, a := range addrs {
			if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
				info.ResolvedIP = a
				break
			}
		}
	}
	if len(info.NameServers) == 0 {
		if nss, err := d.resolver.LookupNS(ctx, dom); err == nil {
			for _, ns := range nss {
				info.NameServers = append(info.NameServers, strings.TrimSuffix(ns.Host, "."))
			}
		}
	}
}

// cloudflareNets son los rangos publicados por Cloudflare para su edge.
var cloudflareNets = mustParseCIDRs(
	"173.245.48.0/20", "103.21.244.0/22", "103.22.200.0/22", "103.31.4.0/22",
	"141.101.64.0/18", "108.162.192.0/18", "190.93.240.0/20", "188.114.96.0/20",
	"197.234.240.0/22", "198.41.128.0/17", "162.158.0.0/15", "104.16.0.0/13",
	"104.24.0.0/14", "172.64.0.0/13", "131.0.72.0/22",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("invalid builtin CIDR %s: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}

func isCloudflareIP(ip net.IP) bool {
	for _, n := range cloudflareNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// maxBypassProbes limita cuántos subdominios se resuelven buscando el
// origen detrás del WAF.
const maxBypassProbes = 25

// detectWAF marca el dominio como protegido si su IP pertenece al edge de
// Cloudflare, e intenta localizar el origen resolviendo los subdominios
// descubiertos: el primero que apunte fuera del edge delata la IP real.
func (d *DomainIntel) detectWAF(ctx context.Context, info *intel.DomainInfo) {
	ip := net.ParseIP(info.ResolvedIP)
	if ip == nil || !isCloudflareIP(ip) {
		return
	}

	info.WAFDetected = true
	info.WAFProvider = "Cloudflare"

	probes := info.Subdomains
	if len(probes) > maxBypassProbes {
		probes = probes[:maxBypassProbes]
	}
	// Los certificados compartidos cuelan SANs de terceros en el CT log;
	// solo se sondean hosts bajo el dominio registrable del objetivo.
	scope := validator.RegistrableDomain(info.Domain)
	for _, sub := range probes {
		if strings.HasPrefix(sub, "*.") || sub == info.Domain {
			continue
		}
		if validator.RegistrableDomain(sub) != scope {
			continue
		}
		addrs, err := d.resolver.LookupHost(ctx, sub)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			sip := net.ParseIP(a)
			if sip == nil || sip.To4() == nil || isCloudflareIP(sip) {
				continue
			}
			info.WAFBypassed = true
			info.OriginIP = a
			d.logger.Info("waf bypass candidate", "domain", info.Domain, "origin", a, "via", sub)
			return
		}
	}
}
