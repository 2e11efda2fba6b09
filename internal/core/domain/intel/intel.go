// internal/core/domain/intel/intel.go

// Package intel define los payloads tipados que producen los analizadores.
// Cada analizador emite exactamente un tipo concreto de Payload; el motor
// nunca inspecciona mapas sin tipar. Cuando varios analizadores cubren el
// mismo tipo de entidad, sus payloads se fusionan en un Fused y se accede a
// ellos con As.
package intel

// Payload es la unión etiquetada de todos los datos de análisis.
type Payload interface {
	// Kind retorna la etiqueta del payload (única por tipo concreto).
	Kind() string
}

// Fused agrupa los payloads de varios analizadores para una misma entidad.
// La política de fusión vive en el orquestador; aquí solo se almacena el
// compuesto indexado por nombre de analizador.
type Fused struct {
	Parts []FusedPart `json:"parts"`
}

// FusedPart es la contribución de un analizador al compuesto.
type FusedPart struct {
	Analyzer string  `json:"analyzer"`
	Data     Payload `json:"data,omitempty"`
}

// Kind implementa Payload.
func (f *Fused) Kind() string { return "fused" }

// Part retorna la contribución de un analizador por nombre.
func (f *Fused) Part(analyzer string) (Payload, bool) {
	for _, p := range f.Parts {
		if p.Analyzer == analyzer && p.Data != nil {
			return p.Data, true
		}
	}
	return nil, false
}

// As extrae un payload concreto de p, mirando dentro de un Fused si hace
// falta. Retorna el primer match; ok=false si p no contiene ese tipo.
func As[T Payload](p Payload) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	if f, ok := p.(*Fused); ok {
		for _, part := range f.Parts {
			if v, ok := part.Data.(T); ok {
				return v, true
			}
		}
	}
	return zero, false
}
