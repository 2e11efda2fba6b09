// internal/core/domain/entity.go
package domain

import (
	"strings"
)

// EntityType clasifica los identificadores que el motor sabe analizar.
// Es una enumeración cerrada: cualquier otro valor es inválido.
type EntityType string

const (
	EntityTypeIP       EntityType = "ip"
	EntityTypeDomain   EntityType = "domain"
	EntityTypeEmail    EntityType = "email"
	EntityTypeURL      EntityType = "url"
	EntityTypePhone    EntityType = "phone"
	EntityTypeWallet   EntityType = "wallet"
	EntityTypeUser     EntityType = "user"
	EntityTypeDiscord  EntityType = "discord"
	EntityTypeImage    EntityType = "image"
	EntityTypeDocument EntityType = "document"
)

// AllEntityTypes retorna todos los tipos válidos en orden estable.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTypeIP,
		EntityTypeDomain,
		EntityTypeEmail,
		EntityTypeURL,
		EntityTypePhone,
		EntityTypeWallet,
		EntityTypeUser,
		EntityTypeDiscord,
		EntityTypeImage,
		EntityTypeDocument,
	}
}

// IsValid verifica si el tipo de entidad es válido.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeIP, EntityTypeDomain, EntityTypeEmail, EntityTypeURL,
		EntityTypePhone, EntityTypeWallet, EntityTypeUser, EntityTypeDiscord,
		EntityTypeImage, EntityTypeDocument:
		return true
	default:
		return false
	}
}

// String retorna la representación string del tipo.
func (t EntityType) String() string {
	return string(t)
}

// Entity representa un identificador tipado bajo análisis.
// Es la unidad de trabajo del orquestador: todo lo que entra en la cola
// de pivoting es una Entity.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// NewEntity crea una entidad ya normalizada.
func NewEntity(entityType EntityType, value string) Entity {
	e := Entity{Type: entityType, Value: value}
	e.Normalize()
	return e
}

// Normalize normaliza el valor según su tipo.
// Dominios, emails y usuarios se comparan en minúsculas; los teléfonos
// se reducen a dígitos (más el prefijo '+').
func (e *Entity) Normalize() {
	e.Value = strings.TrimSpace(e.Value)

	switch e.Type {
	case EntityTypeDomain:
		e.Value = strings.TrimSuffix(strings.ToLower(e.Value), ".")
	case EntityTypeEmail, EntityTypeUser:
		e.Value = strings.ToLower(strings.TrimPrefix(e.Value, "@"))
	case EntityTypePhone:
		e.Value = stripPhone(e.Value)
	}
}

// Key retorna la clave de identidad "type:normalized(value)".
// Es la clave usada por el visited set del orquestador: dos descubrimientos
// del mismo identificador colisionan aquí, sin importar el camino de pivoting.
func (e Entity) Key() string {
	n := e
	n.Normalize()
	return string(n.Type) + ":" + n.Value
}

// stripPhone elimina todo lo que no sea dígito o '+' inicial.
func stripPhone(v string) string {
	var b strings.Builder
	for i, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueueItem es un elemento de la cola BFS del orquestador.
// Vive exclusivamente dentro de una ejecución; nunca se comparte entre runs.
type QueueItem struct {
	Entity Entity

	// Depth es la distancia BFS desde la semilla (0 = semilla o adjunto).
	Depth int

	// Origin describe de dónde salió el item ("user_input", "uploaded_file",
	// "pivot_from_<type>").
	Origin string

	// Artifact marca entidades derivadas de ficheros subidos por el caller.
	Artifact bool
}
