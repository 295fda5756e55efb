package server

import (
	"regexp"

	"github.com/woozymasta/shpjson/internal/config"
	"github.com/woozymasta/shpjson/internal/converter"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	jsonmin "github.com/tdewolff/minify/v2/json"
)

const mediaGeoJSON = "application/geo+json"

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Converter *converter.Converter
	Minifier  *minify.M
}

// NewServerContext wires the converter and, when enabled, the response minifier.
func NewServerContext(cfg *config.Config, conv *converter.Converter) *ServerContext {
	s := &ServerContext{
		Config:    cfg,
		Converter: conv,
	}

	if cfg.Minify {
		m := minify.New()
		m.AddFuncRegexp(regexp.MustCompile(`[/+]json$`), jsonmin.Minify)
		s.Minifier = m
	}

	log.Info().
		Int("cache_size", cfg.CacheSize).
		Int("default_epsg", cfg.EPSG).
		Bool("minify", cfg.Minify).
		Bool("allow_local", cfg.AllowLocal).
		Msg("Server context initialized")

	return s
}
