// internal/testutil/mocks.go
package testutil

import (
	"context"
	"sync"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
)

// MockAnalyzer es un analizador configurable para tests del orquestador.
// Registra cada valor despachado para poder verificar invariantes de
// deduplicación y orden.
type MockAnalyzer struct {
	mu sync.Mutex

	NameVal  string
	TypesVal []domain.EntityType

	// AnalyzeFunc permite inyectar comportamiento por valor. Si es nil se
	// retorna un Finding exitoso sin payload.
	AnalyzeFunc func(ctx context.Context, value string) (*ports.Finding, error)

	calls []string
}

func NewMockAnalyzer(name string, types ...domain.EntityType) *MockAnalyzer {
	return &MockAnalyzer{NameVal: name, TypesVal: types}
}

func (m *MockAnalyzer) Name() string               { return m.NameVal }
func (m *MockAnalyzer) Types() []domain.EntityType { return m.TypesVal }
func (m *MockAnalyzer) Close() error               { return nil }

func (m *MockAnalyzer) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	m.mu.Lock()
	m.calls = append(m.calls, value)
	m.mu.Unlock()

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, value)
	}
	return ports.OK(nil), nil
}

// Calls retorna una copia de los valores despachados, en orden.
func (m *MockAnalyzer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount retorna cuántas veces se despachó un valor concreto.
func (m *MockAnalyzer) CallCount(value string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == value {
			n++
		}
	}
	return n
}

// MockEnricher es un enriquecimiento global configurable para tests.
type MockEnricher struct {
	NameVal    string
	EnrichFunc func(ctx context.Context, seed domain.Entity) (*ports.Finding, error)
	CallsN     int
}

func (m *MockEnricher) Name() string { return m.NameVal }

func (m *MockEnricher) Enrich(ctx context.Context, seed domain.Entity) (*ports.Finding, error) {
	m.CallsN++
	if m.EnrichFunc != nil {
		return m.EnrichFunc(ctx, seed)
	}
	return ports.OK(nil), nil
}

// DomainFinding construye un Finding de dominio con emails relacionados,
// útil para tests de pivoting.
func DomainFinding(resolvedIP string, relatedEmails ...string) *ports.Finding {
	return ports.OK(&intel.DomainInfo{
		ResolvedIP:    resolvedIP,
		RelatedEmails: relatedEmails,
	})
}
