// internal/core/domain/graph.go
package domain

// Graph es la vista nodo/arista del run, lista para renderizar por el
// consumidor. Nodos y aristas son aditivos: no se deduplican aquí más allá
// de la colisión natural de IDs en la capa de rendering.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode es un nodo renderizable.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// GraphEdge es una arista renderizable.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// AddNode añade un nodo.
func (g *Graph) AddNode(id, label, color string) {
	g.Nodes = append(g.Nodes, GraphNode{ID: id, Label: label, Color: color})
}

// AddEdge añade una arista.
func (g *Graph) AddEdge(from, to, label string) {
	g.Edges = append(g.Edges, GraphEdge{From: from, To: to, Label: label})
}

// Paleta de colores por clase de entidad (alineada con el frontend).
const (
	ColorSeed    = "#00f7ff"
	ColorUser    = "#3b82f6"
	ColorAccount = "#1e40af"
	ColorIM      = "#0ea5e9"
	ColorDomain  = "#10b981"
	ColorSubdom  = "#34d399"
	ColorEmail   = "#6366f1"
	ColorIP      = "#ef4444"
	ColorDarkWeb = "#8b5cf6"
	ColorLeak    = "#7f1d1d"
)
