// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"io"

	"rastro/internal/core/domain"
)

// JSONWriter vuelca el reporte completo como JSON indentado. Es el único
// formato sin pérdida: serializa el agregado entero.
type JSONWriter struct {
	out io.Writer
}

// NewJSONWriter crea un writer JSON sobre el destino dado.
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{out: out}
}

// Write implementa Writer.
func (w *JSONWriter) Write(report *domain.RunReport) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
