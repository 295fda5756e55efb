// Package libproj builds coordinate transforms with the PROJ library.
package libproj

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/pebbe/proj/v5"
	"github.com/rs/zerolog"
)

// WGS84 is the target used when no destination definition is given.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// Builder creates PROJ transformations. Each built transform owns its own
// PROJ context, so transforms may be used from different goroutines.
type Builder struct {
	Logger zerolog.Logger
}

// New returns a PROJ backed builder that reports failed points to logger.
func New(logger zerolog.Logger) *Builder {
	return &Builder{Logger: logger}
}

// Build returns a transform from src to dst (WGS84 when dst is empty).
// Definitions may be proj strings, WKT or authority codes.
func (b *Builder) Build(src, dst string) (orb.Projection, error) {
	if dst == "" {
		dst = WGS84
	}

	ctx := proj.NewContext()
	pj, err := ctx.CreateCRS2CRS(crsDefinition(src), crsDefinition(dst))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("create transformation: %w", err)
	}

	trans := func(x, y float64) (float64, float64, error) {
		u, v, _, _, err := pj.Trans(proj.Fwd, x, y, 0, 0)
		return u, v, err
	}

	logger := b.Logger.With().Str("dst", dst).Logger()
	return transform(trans, logger), nil
}

// crsDefinition marks bare proj strings as CRS definitions, which
// proj_create_crs_to_crs requires.
func crsDefinition(def string) string {
	def = strings.TrimSpace(def)
	if strings.HasPrefix(def, "+") && !strings.Contains(def, "+type=crs") {
		return def + " +type=crs"
	}
	return def
}

// transform serializes calls to trans, since a PROJ context must not be used
// concurrently. A point trans rejects comes back as NaN so it never passes
// for a projected coordinate; the first rejection is logged.
func transform(trans func(x, y float64) (float64, float64, error), logger zerolog.Logger) orb.Projection {
	var (
		mu     sync.Mutex
		failed bool
	)

	return func(p orb.Point) orb.Point {
		mu.Lock()
		defer mu.Unlock()

		x, y, err := trans(p[0], p[1])
		if err != nil {
			if !failed {
				failed = true
				logger.Warn().
					Err(err).
					Float64("x", p[0]).
					Float64("y", p[1]).
					Msg("Point transform failed")
			}
			return orb.Point{math.NaN(), math.NaN()}
		}
		return orb.Point{x, y}
	}
}
