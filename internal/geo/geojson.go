// Package geo holds the GeoJSON output model and combines decoded shapes
// with their attribute records.
package geo

import (
	"maps"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	typeFeatureCollection = "FeatureCollection"
	typeFeature           = "Feature"
)

// FeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure plus the source file name.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	FileName string    `json:"fileName,omitempty"`
}

// Feature represents a single geographic feature with geometry and properties.
// A nil Geometry encodes as null.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Combine pairs geometry i with attribute record i. The collection always has
// exactly len(geoms) features; missing or nil records become empty properties
// and surplus records are dropped.
func Combine(geoms []orb.Geometry, attrs []map[string]interface{}) FeatureCollection {
	fc := FeatureCollection{
		Type:     typeFeatureCollection,
		Features: make([]Feature, len(geoms)),
	}

	for i, g := range geoms {
		props := map[string]interface{}{}
		if i < len(attrs) && attrs[i] != nil {
			props = attrs[i]
		}

		f := Feature{Type: typeFeature, Properties: props}
		if g != nil {
			f.Geometry = geojson.NewGeometry(g)
		}
		fc.Features[i] = f
	}

	return fc
}

// Clone returns a deep copy of fc. Property values are scalars and are
// copied with their maps.
func (fc FeatureCollection) Clone() FeatureCollection {
	if fc.Features == nil {
		return fc
	}

	features := make([]Feature, len(fc.Features))
	for i, f := range fc.Features {
		features[i] = Feature{
			Type:       f.Type,
			Geometry:   cloneGeometry(f.Geometry),
			Properties: maps.Clone(f.Properties),
		}
	}
	fc.Features = features
	return fc
}

func cloneGeometry(g *geojson.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}

	c := *g
	if g.Coordinates != nil {
		c.Coordinates = orb.Clone(g.Coordinates)
	}
	if g.Geometries != nil {
		c.Geometries = make([]*geojson.Geometry, len(g.Geometries))
		for i, child := range g.Geometries {
			c.Geometries[i] = cloneGeometry(child)
		}
	}
	return &c
}
