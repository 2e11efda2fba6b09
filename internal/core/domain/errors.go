// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio.
var (
	// ErrEmptySeed indica que la semilla está vacía.
	ErrEmptySeed = errors.New("seed entity is empty")

	// ErrInvalidEntityType indica un tipo de entidad fuera de la enumeración.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrNoAnalyzers indica que no hay analizadores registrados para un run.
	ErrNoAnalyzers = errors.New("no analyzers available")
)
