package archive

import (
	"strings"

	"github.com/woozymasta/shpjson/internal/dbf"
	"github.com/woozymasta/shpjson/internal/geo"
	"github.com/woozymasta/shpjson/internal/proj"
	"github.com/woozymasta/shpjson/internal/shp"

	"github.com/rs/zerolog"
)

// Options control how a bundle is converted.
type Options struct {
	// EPSG is the target coordinate system; zero keeps the default WGS84 output.
	EPSG int
	// CPG overrides the attribute encoding declared by the bundle.
	CPG string
	// AllowList names extra extensions carried through as-is.
	AllowList []string
}

// Members are the raw artifacts of one shapefile layer. A nil DBF means the
// layer has no attributes.
type Members struct {
	SHP []byte
	DBF []byte
	CPG string
}

// ResolveEncoding picks the attribute encoding: the caller override, then the
// bundle's .cpg text, then the legacy default.
func ResolveEncoding(override, cpg string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	if s := strings.TrimSpace(cpg); s != "" {
		return s
	}
	return dbf.DefaultEncoding
}

// Assemble decodes the geometry member with p applied and pairs it with the
// attribute records. Geometry errors are returned; attribute errors are
// logged and leave every feature with empty properties.
func Assemble(m Members, p proj.Projection, opts Options, logger zerolog.Logger) (geo.FeatureCollection, error) {
	var attrs []map[string]interface{}
	if m.DBF != nil {
		enc := ResolveEncoding(opts.CPG, m.CPG)
		records, err := dbf.Decode(m.DBF, enc)
		if err != nil {
			logger.Warn().Err(err).Str("encoding", enc).Msg("attributes skipped")
		}
		attrs = records
	}

	geoms, err := shp.Decode(m.SHP, p.Transform())
	if err != nil {
		return geo.FeatureCollection{}, err
	}

	return geo.Combine(geoms, attrs), nil
}
