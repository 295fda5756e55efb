package proj

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/shpjson/internal/epsg"
	"github.com/woozymasta/shpjson/internal/wkt"

	"github.com/paulmach/orb"
)

// ErrNoBuilder is the degradation reason when no projection builder is configured.
var ErrNoBuilder = errors.New("proj: no projection builder configured")

// Parser extracts the declared name from a CRS description.
type Parser interface {
	Parse(text string) (wkt.CRS, error)
}

// Registry looks up EPSG codes by name and definitions by code.
type Registry interface {
	Code(name string) (int, bool)
	Definition(code int) (string, bool)
}

// Builder constructs a forward transform from src to dst. An empty dst means
// geographic WGS84 longitude/latitude in degrees.
type Builder interface {
	Build(src, dst string) (orb.Projection, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(src, dst string) (orb.Projection, error)

// Build calls f(src, dst).
func (f BuilderFunc) Build(src, dst string) (orb.Projection, error) {
	return f(src, dst)
}

// Resolver turns .prj text and an optional target EPSG code into a Projection.
type Resolver struct {
	Parser   Parser
	Registry Registry
	Builder  Builder
}

// NewResolver returns a resolver using the WKT parser and the embedded EPSG
// registry. A nil builder makes every resolution degrade to Absent.
func NewResolver(b Builder) *Resolver {
	return &Resolver{
		Parser:   wkt.Parser{},
		Registry: epsg.Default(),
		Builder:  b,
	}
}

// Resolve never fails: malformed or unsupported metadata yields an absent
// projection whose Reason describes the failure.
func (r *Resolver) Resolve(source string, targetEPSG int) (p Projection) {
	source = strings.TrimPrefix(strings.TrimSpace(source), "\ufeff")
	if source == "" {
		return Absent()
	}

	defer func() {
		if rec := recover(); rec != nil {
			p = degraded(fmt.Errorf("proj: resolve panicked: %v", rec))
		}
	}()

	if r.Builder == nil {
		return degraded(ErrNoBuilder)
	}

	parser, registry := r.Parser, r.Registry
	if parser == nil {
		parser = wkt.Parser{}
	}
	if registry == nil {
		registry = epsg.Default()
	}

	crs, err := parser.Parse(source)
	if err != nil {
		return degraded(fmt.Errorf("parse source crs: %w", err))
	}

	from := source
	if code, ok := registry.Code(crs.Name); ok {
		if def, ok := registry.Definition(code); ok {
			from = def
		}
	}

	var to string
	if targetEPSG > 0 {
		if def, ok := registry.Definition(targetEPSG); ok {
			to = def
		}
	}

	t, err := r.Builder.Build(from, to)
	if err != nil {
		return degraded(fmt.Errorf("build transform for %q: %w", crs.Name, err))
	}
	if t == nil {
		return degraded(fmt.Errorf("build transform for %q: nil transform", crs.Name))
	}

	return Resolved(t)
}
