// Package archive turns the members of a zip bundle into output layers.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/woozymasta/shpjson/internal/geo"
	"github.com/woozymasta/shpjson/internal/proj"

	"github.com/rs/zerolog"
)

// ErrNoLayersFound is returned when a bundle holds neither a .shp member nor
// a pass-through member.
var ErrNoLayersFound = errors.New("archive: no layers found")

// Resolver turns .prj text into a projection.
type Resolver interface {
	Resolve(source string, epsg int) proj.Projection
}

// Classifier groups bundle members by layer and decodes each layer.
type Classifier struct {
	Resolver Resolver
	Logger   zerolog.Logger
}

type layerRef struct {
	name        string
	passThrough bool
}

// key canonicalizes a member name: the extension is lower-cased, the rest
// keeps its casing.
func key(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + strings.ToLower(ext)
}

// Classify returns one layer per .shp or pass-through member, in archive order.
func (c *Classifier) Classify(ctx context.Context, entries []Entry, opts Options) ([]geo.Layer, error) {
	var (
		refs     []layerRef
		seen     = make(map[string]bool)
		members  = make(map[string][]byte)
		prjs     = make(map[string]proj.Projection)
		prjTexts = make(map[string]string)
	)

	add := func(ref layerRef) {
		if seen[ref.name] {
			return
		}
		seen[ref.name] = true
		refs = append(refs, ref)
	}

	for _, e := range entries {
		switch Classify(e.Name, opts.AllowList) {
		case Geometry:
			add(layerRef{name: stem(e.Name)})
			members[key(e.Name)] = e.Data
		case Projection:
			prjTexts[stem(e.Name)] = string(e.Data)
		case PassThrough:
			add(layerRef{name: key(e.Name), passThrough: true})
			members[key(e.Name)] = e.Data
		case Attribute, Encoding:
			members[key(e.Name)] = e.Data
		default:
			c.Logger.Trace().Str("member", e.Name).Msg("ignored")
		}
	}

	if len(refs) == 0 {
		return nil, ErrNoLayersFound
	}

	for name, text := range prjTexts {
		prjs[name] = c.resolve(name, text, opts.EPSG)
	}

	layers := make([]geo.Layer, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l, err := c.layer(ref, members, prjs, opts)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", ref.name, err)
		}
		layers = append(layers, l)
	}

	return layers, nil
}

func (c *Classifier) resolve(name, text string, epsg int) proj.Projection {
	if c.Resolver == nil {
		return proj.Absent()
	}

	p := c.Resolver.Resolve(text, epsg)
	if err := p.Reason(); err != nil {
		c.Logger.Debug().Err(err).Str("layer", name).Msg("projection unavailable, coordinates kept")
	}
	return p
}

func (c *Classifier) layer(ref layerRef, members map[string][]byte, prjs map[string]proj.Projection, opts Options) (geo.Layer, error) {
	if ref.passThrough {
		data := members[ref.name]
		if isJSON(ref.name) {
			return geo.DocumentLayer(stem(ref.name), data)
		}
		return geo.TextLayer(ref.name, string(data)), nil
	}

	m := Members{SHP: members[ref.name+".shp"]}
	if data, ok := members[ref.name+".dbf"]; ok {
		m.DBF = data
		m.CPG = string(members[ref.name+".cpg"])
	}

	logger := c.Logger.With().Str("layer", ref.name).Logger()
	fc, err := Assemble(m, prjs[ref.name], opts, logger)
	if err != nil {
		return geo.Layer{}, err
	}

	return geo.FeatureLayer(ref.name, fc), nil
}
