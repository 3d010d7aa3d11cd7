package collector

import (
	"fmt"

	"github.com/teranos/apiroll/entity"
)

// Warning is a recoverable consistency finding routed to a declaration (or to
// the module surface as a whole when Decl is entity.NoDecl). Warnings never
// abort generation; the review report prints them under the owning
// declaration and rollup generation proceeds best-effort.
type Warning struct {
	Decl    entity.DeclID
	Message string
}

// Sink accumulates warnings during resolution and rendering. It is not safe
// for concurrent use; each invocation of the analyzer owns its own sink.
type Sink struct {
	warnings []Warning
}

func NewSink() *Sink {
	return &Sink{}
}

// Add records a warning for decl (entity.NoDecl for surface-level findings).
func (s *Sink) Add(decl entity.DeclID, message string) {
	s.warnings = append(s.warnings, Warning{Decl: decl, Message: message})
}

// Addf records a formatted warning.
func (s *Sink) Addf(decl entity.DeclID, format string, args ...any) {
	s.Add(decl, fmt.Sprintf(format, args...))
}

// ForDecl returns the warnings routed to one declaration, in insertion order.
func (s *Sink) ForDecl(decl entity.DeclID) []Warning {
	var out []Warning
	for _, w := range s.warnings {
		if w.Decl == decl {
			out = append(out, w)
		}
	}
	return out
}

// All returns every warning in insertion order.
func (s *Sink) All() []Warning {
	return s.warnings
}

// Len returns the number of recorded warnings.
func (s *Sink) Len() int { return len(s.warnings) }
