// Package proj resolves the coordinate reference system of a shapefile layer
// into a forward transform applied to its geometries.
package proj

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Projection is either absent, in which case coordinates pass through
// unchanged, or resolved to a transform. The zero value is absent.
// A Projection is never modified after it is built.
type Projection struct {
	transform orb.Projection
	reason    error
}

// Absent returns a projection that leaves coordinates untouched.
func Absent() Projection {
	return Projection{}
}

// Resolved wraps a forward transform. A nil transform yields an absent projection.
func Resolved(t orb.Projection) Projection {
	return Projection{transform: t}
}

func degraded(err error) Projection {
	return Projection{reason: err}
}

// IsAbsent reports whether the projection leaves coordinates untouched.
func (p Projection) IsAbsent() bool {
	return p.transform == nil
}

// Transform returns the forward transform, or nil when absent.
func (p Projection) Transform() orb.Projection {
	return p.transform
}

// Reason explains why resolution fell back to an absent projection.
// It is nil for resolved projections and for layers without CRS metadata.
func (p Projection) Reason() error {
	return p.reason
}

// Apply transforms every coordinate of g, at any nesting depth, in place.
func (p Projection) Apply(g orb.Geometry) orb.Geometry {
	if p.transform == nil || g == nil {
		return g
	}
	return project.Geometry(g, p.transform)
}

// Identity is a resolved projection that returns every point unchanged.
func Identity() Projection {
	return Resolved(func(p orb.Point) orb.Point { return p })
}
