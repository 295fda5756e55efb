package converter

import (
	"context"
	"fmt"
	"io"

	"github.com/woozymasta/shpjson/internal/archive"
	"github.com/woozymasta/shpjson/internal/buffer"
	"github.com/woozymasta/shpjson/internal/dbf"
	"github.com/woozymasta/shpjson/internal/geo"
	"github.com/woozymasta/shpjson/internal/proj"
	"github.com/woozymasta/shpjson/internal/shp"

	"github.com/paulmach/orb"
)

// Readers are caller supplied shapefile members. SHP is required, the
// others may be nil.
type Readers struct {
	SHP io.Reader
	DBF io.Reader
	PRJ io.Reader
	CPG io.Reader
}

func (r Readers) reader(ext string) io.Reader {
	switch ext {
	case "shp":
		return r.SHP
	case "dbf":
		return r.DBF
	case "prj":
		return r.PRJ
	case "cpg":
		return r.CPG
	}
	return nil
}

// ConvertReaders converts members read from r with the same tolerance as
// Convert: a failing .dbf, .prj or .cpg reader is treated as absent.
// The result carries no file name and is never cached.
func (c *Converter) ConvertReaders(ctx context.Context, r Readers, opts Options) (geo.Result, error) {
	m, err := gather(ctx, func(ctx context.Context, ext string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := r.reader(ext)
		if src == nil {
			if ext == "shp" {
				return nil, buffer.ErrMissingBuffer
			}
			return nil, fmt.Errorf("no %s reader", ext)
		}
		return buffer.Normalize(src)
	})
	if err != nil {
		return geo.Result{}, err
	}

	return c.assemble(m, "", opts, c.logger)
}

// ParseSHP decodes a geometry member. prj may be nil, a proj.Projection, or
// .prj text as string or bytes, which is resolved without a target code.
func (c *Converter) ParseSHP(data any, prj any) ([]orb.Geometry, error) {
	raw, err := buffer.Normalize(data)
	if err != nil {
		return nil, err
	}

	p := proj.Absent()
	switch v := prj.(type) {
	case nil:
	case proj.Projection:
		p = v
	case string:
		p = c.resolveText(v)
	case []byte:
		p = c.resolveText(string(v))
	default:
		return nil, fmt.Errorf("unsupported projection type %T", prj)
	}

	return shp.Decode(raw, p.Transform())
}

func (c *Converter) resolveText(text string) proj.Projection {
	if c.resolver == nil {
		return proj.Absent()
	}

	p := c.resolver.Resolve(text, 0)
	if err := p.Reason(); err != nil {
		c.logger.Debug().Err(err).Msg("projection unavailable, coordinates kept")
	}
	return p
}

// ParseDBF decodes an attribute member. An empty cpg selects the legacy
// default encoding.
func ParseDBF(data any, cpg string) ([]map[string]interface{}, error) {
	raw, err := buffer.Normalize(data)
	if err != nil {
		return nil, err
	}
	return dbf.Decode(raw, archive.ResolveEncoding("", cpg))
}
