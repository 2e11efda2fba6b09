// internal/core/usecases/graph_service.go
package usecases

import (
	"fmt"
	"strings"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
)

// BuildGraph ensambla la vista nodo/arista del run a partir del mapa de
// resultados por tipo. Los nodos y aristas son solo aditivos: las
// colisiones de ID las resuelve la capa de rendering del consumidor.
func BuildGraph(report *domain.RunReport) *domain.Graph {
	g := &domain.Graph{}

	rootID := "root:" + report.Seed.Value
	g.AddNode(rootID, report.Seed.Value, domain.ColorSeed)

	if res, ok := report.Primary[domain.EntityTypeUser]; ok {
		addUserNodes(g, rootID, res)
	}
	if res, ok := report.Primary[domain.EntityTypeDomain]; ok {
		addDomainNodes(g, rootID, res)
	}
	if res, ok := report.Primary[domain.EntityTypeIP]; ok {
		if geo, found := intel.As[*intel.GeoIPInfo](res.Data); found && geo.IP != "" {
			ipID := "ip:" + geo.IP
			g.AddNode(ipID, geo.IP, domain.ColorIP)
			g.AddEdge(rootID, ipID, "ip")
		}
	}
	if res, ok := report.Primary[domain.EntityTypeEmail]; ok {
		addEmailNode(g, rootID, res)
	}
	for _, res := range report.Derived[domain.EntityTypeEmail] {
		addEmailNode(g, rootID, res)
	}
	if report.DarkWeb != nil {
		addDarkWebNodes(g, rootID, report.DarkWeb)
	}

	return g
}

func addUserNodes(g *domain.Graph, rootID string, res *domain.Result) {
	u, ok := intel.As[*intel.UserInfo](res.Data)
	if !ok || u.Username == "" {
		return
	}

	userID := "user:" + u.Username
	g.AddNode(userID, u.Username, domain.ColorUser)
	g.AddEdge(rootID, userID, "usuario")

	for _, p := range u.FoundProfiles() {
		if p.Site == "" {
			continue
		}
		accountID := fmt.Sprintf("account:%s:%s", p.Site, u.Username)
		g.AddNode(accountID, p.Site, domain.ColorAccount)
		label := p.URL
		if label == "" {
			label = "cuenta"
		}
		g.AddEdge(userID, accountID, label)
	}

	for _, im := range u.IMProfiles {
		platform := im.Platform
		if platform == "" {
			platform = "IM"
		}
		imID := fmt.Sprintf("im:%s:%s", platform, im.UserID)
		label := strings.TrimSpace(platform + " " + strings.Join(im.Usernames, ","))
		g.AddNode(imID, label, domain.ColorIM)
		g.AddEdge(userID, imID, "perfil IM")
	}
}

func addDomainNodes(g *domain.Graph, rootID string, res *domain.Result) {
	d, ok := intel.As[*intel.DomainInfo](res.Data)
	if !ok || d.Domain == "" {
		return
	}

	domID := "domain:" + d.Domain
	g.AddNode(domID, d.Domain, domain.ColorDomain)
	g.AddEdge(rootID, domID, "dominio")

	for _, s := range d.Subdomains {
		subID := "sub:" + s
		g.AddNode(subID, s, domain.ColorSubdom)
		g.AddEdge(domID, subID, "sub")
	}
	for _, e := range d.RelatedEmails {
		emailID := "email:" + e
		g.AddNode(emailID, e, domain.ColorEmail)
		g.AddEdge(domID, emailID, "email")
	}
	if d.ResolvedIP != "" {
		ipID := "ip:" + d.ResolvedIP
		g.AddNode(ipID, d.ResolvedIP, domain.ColorIP)
		g.AddEdge(domID, ipID, "ip")
	}
}

func addEmailNode(g *domain.Graph, rootID string, res *domain.Result) {
	e, ok := intel.As[*intel.EmailInfo](res.Data)
	if !ok || e.Email == "" {
		return
	}
	emailID := "email:" + e.Email
	g.AddNode(emailID, e.Email, domain.ColorEmail)
	g.AddEdge(rootID, emailID, "email")
}

func addDarkWebNodes(g *domain.Graph, rootID string, res *domain.Result) {
	dw, ok := intel.As[*intel.DarkWebInfo](res.Data)
	if !ok {
		return
	}

	for i, hit := range dw.Hits {
		if hit.Leak {
			leakID := fmt.Sprintf("leak:%d", i)
			label := hit.Title
			if label == "" {
				label = "Leak"
			}
			g.AddNode(leakID, label, domain.ColorLeak)
			g.AddEdge(rootID, leakID, "leak")
			continue
		}

		hitID := fmt.Sprintf("darkweb:web:%d", i)
		label := hit.Title
		if label == "" {
			label = "Resultado"
		}
		g.AddNode(hitID, label, domain.ColorDarkWeb)
		edgeLabel := hit.URL
		if edgeLabel == "" {
			edgeLabel = "darkweb"
		}
		g.AddEdge(rootID, hitID, edgeLabel)
	}
}
