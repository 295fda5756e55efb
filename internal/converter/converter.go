// Package converter assembles shapefile bundles from remote or local sources
// into GeoJSON results.
package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/woozymasta/shpjson/internal/archive"
	"github.com/woozymasta/shpjson/internal/buffer"
	"github.com/woozymasta/shpjson/internal/cache"
	"github.com/woozymasta/shpjson/internal/fetch"
	"github.com/woozymasta/shpjson/internal/geo"
	"github.com/woozymasta/shpjson/internal/proj"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrEmptySource is returned by Convert for a blank reference.
var ErrEmptySource = errors.New("converter: empty source")

// FetchError reports that a mandatory member could not be loaded.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options control a single conversion.
type Options = archive.Options

// Converter turns shapefile references into GeoJSON results.
// It is safe for concurrent use.
type Converter struct {
	fetcher    fetch.Fetcher
	resolver   archive.Resolver
	cache      *cache.Cache
	logger     zerolog.Logger
	classifier *archive.Classifier
}

// Option configures a Converter.
type Option func(*Converter)

// WithCache replaces the default result cache.
func WithCache(c *cache.Cache) Option {
	return func(cv *Converter) { cv.cache = c }
}

// WithResolver sets the projection resolver. Without one, .prj members are
// ignored and coordinates are emitted as stored.
func WithResolver(r archive.Resolver) Option {
	return func(cv *Converter) { cv.resolver = r }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(cv *Converter) { cv.logger = l }
}

// New returns a converter reading sources through f.
func New(f fetch.Fetcher, opts ...Option) (*Converter, error) {
	c := &Converter{
		fetcher: f,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.cache == nil {
		rc, err := cache.New(cache.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		c.cache = rc
	}

	c.classifier = &archive.Classifier{Resolver: c.resolver, Logger: c.logger}
	return c, nil
}

// Convert resolves a string reference. A reference whose path ends in .zip
// is fetched whole and unpacked; any other reference names the base of the
// .shp, .dbf, .prj and .cpg siblings, with a trailing .shp ignored.
// Results are cached under the reference exactly as given.
func (c *Converter) Convert(ctx context.Context, base string, opts Options) (geo.Result, error) {
	if strings.TrimSpace(base) == "" {
		return geo.Result{}, ErrEmptySource
	}

	if r, ok := c.cache.Get(base); ok {
		c.logger.Debug().Str("src", base).Msg("cache hit")
		return r, nil
	}

	ref := fetch.StripShp(base)

	var (
		res geo.Result
		err error
	)
	if fetch.IsZip(ref) {
		res, err = c.convertRemoteZip(ctx, ref, opts)
	} else {
		res, err = c.convertSiblings(ctx, ref, opts)
	}
	if err != nil {
		return geo.Result{}, err
	}

	c.cache.Set(base, res)
	return res, nil
}

func (c *Converter) convertRemoteZip(ctx context.Context, ref string, opts Options) (geo.Result, error) {
	data, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return geo.Result{}, &FetchError{Ref: ref, Err: err}
	}
	return c.ConvertZip(ctx, data, opts)
}

// ConvertZip converts an in-memory zip archive. Any value accepted by
// buffer.Normalize may be passed. Results are never cached.
func (c *Converter) ConvertZip(ctx context.Context, data any, opts Options) (geo.Result, error) {
	raw, err := buffer.Normalize(data)
	if err != nil {
		return geo.Result{}, err
	}

	entries, err := archive.Unzip(raw)
	if err != nil {
		return geo.Result{}, err
	}

	layers, err := c.classifier.Classify(ctx, entries, opts)
	if err != nil {
		return geo.Result{}, err
	}

	return geo.NewResult(layers...), nil
}

// members holds the artifacts gathered for one shapefile layer. skipped
// collects the optional loads that failed.
type members struct {
	shp, dbf, prj, cpg []byte
	skipped            error
}

// gather runs the mandatory geometry load and the optional loads
// concurrently. Only the geometry load can fail the group; optional
// failures leave their member nil.
func gather(ctx context.Context, load func(ctx context.Context, ext string) ([]byte, error)) (members, error) {
	var (
		m        members
		mu       sync.Mutex
		optional *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := load(gctx, "shp")
		if err != nil {
			return fmt.Errorf("shp: %w", err)
		}
		m.shp = data
		return nil
	})

	for ext, dst := range map[string]*[]byte{"dbf": &m.dbf, "prj": &m.prj, "cpg": &m.cpg} {
		g.Go(func() error {
			data, err := load(gctx, ext)
			if err != nil {
				mu.Lock()
				optional = multierror.Append(optional, fmt.Errorf("%s: %w", ext, err))
				mu.Unlock()
				return nil
			}
			*dst = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return members{}, err
	}
	m.skipped = optional.ErrorOrNil()
	return m, nil
}

func (c *Converter) convertSiblings(ctx context.Context, ref string, opts Options) (geo.Result, error) {
	m, err := gather(ctx, func(ctx context.Context, ext string) ([]byte, error) {
		return c.fetcher.Fetch(ctx, fetch.Sibling(ref, ext))
	})
	if err != nil {
		return geo.Result{}, &FetchError{Ref: ref, Err: err}
	}

	name := fetch.Basename(ref)
	logger := c.logger.With().Str("layer", name).Logger()
	return c.assemble(m, name, opts, logger)
}

func (c *Converter) assemble(m members, name string, opts Options, logger zerolog.Logger) (geo.Result, error) {
	if m.skipped != nil {
		logger.Debug().Err(m.skipped).Msg("optional members unavailable")
	}

	p := proj.Absent()
	if m.prj != nil && c.resolver != nil {
		p = c.resolver.Resolve(string(m.prj), opts.EPSG)
		if err := p.Reason(); err != nil {
			logger.Debug().Err(err).Msg("projection unavailable, coordinates kept")
		}
	}

	fc, err := archive.Assemble(archive.Members{SHP: m.shp, DBF: m.dbf, CPG: string(m.cpg)}, p, opts, logger)
	if err != nil {
		return geo.Result{}, err
	}

	return geo.NewResult(geo.FeatureLayer(name, fc)), nil
}
