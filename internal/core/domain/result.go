// internal/core/domain/result.go
package domain

import (
	"rastro/internal/core/domain/intel"
)

// Result es el sobre de resultado de analizar una entidad. Se produce
// exactamente una vez por clave de entidad dentro de un run (lo garantiza el
// visited set del orquestador) y es inmutable una vez registrado, con una
// única excepción documentada: los parches de correlación (ver Patch).
type Result struct {
	Entity  Entity        `json:"entity"`
	Success bool          `json:"success"`
	Data    intel.Payload `json:"data,omitempty"`

	// Err registra el primer error no vacío de los sub-analizadores. Puede
	// convivir con Success=true cuando la fusión tuvo éxito parcial.
	Err string `json:"error,omitempty"`

	// Artifact marca resultados de ficheros adjuntos por el caller.
	Artifact bool `json:"artifact,omitempty"`
}

// Failed construye un sobre de fallo con el error descriptivo dado.
// Ningún fallo de analizador escapa como error del run; todos terminan aquí.
func Failed(entity Entity, errMsg string) *Result {
	return &Result{Entity: entity, Success: false, Err: errMsg}
}

// Patch es un write dirigido entre dos entradas de la colección de
// resultados, producido por la pasada de correlación. Es el único caso en
// que un resultado se modifica después de registrarse: la exposición en
// filtraciones de un email se propaga al resultado del username que
// comparte alias. Se modela como dato (no como mutación in situ durante la
// iteración) para que el orquestador lo aplique en un punto controlado.
type Patch struct {
	// TargetKey es la clave de entidad del resultado a parchear.
	TargetKey string

	// BreachVia es el valor del email cuya filtración se propaga.
	BreachVia string
}

// Apply aplica el parche sobre el resultado destino. Solo sabe escribir el
// flag de breach derivado de un UserInfo; cualquier otro destino se ignora.
func (p Patch) Apply(target *Result) bool {
	if target == nil {
		return false
	}
	u, ok := intel.As[*intel.UserInfo](target.Data)
	if !ok {
		return false
	}
	if u.Breach == nil {
		u.Breach = &intel.BreachInfo{}
	}
	u.Breach.Found = true
	u.Breach.DerivedRisk = true
	u.Breach.DerivedVia = p.BreachVia
	return true
}
