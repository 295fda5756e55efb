// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/shpjson/internal/archive"
	"github.com/woozymasta/shpjson/internal/buffer"
	"github.com/woozymasta/shpjson/internal/converter"
	"github.com/woozymasta/shpjson/internal/dbf"
	"github.com/woozymasta/shpjson/internal/fetch"
	"github.com/woozymasta/shpjson/internal/geo"
	"github.com/woozymasta/shpjson/internal/shp"

	"github.com/rs/zerolog/log"
)

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// HandleConvert converts the shapefile referenced by ?src= (GET) or the zip
// archive sent as the request body (POST).
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var res geo.Result
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		src := r.URL.Query().Get("src")
		if src == "" {
			s.writeError(w, fmt.Errorf("%w: missing src", errBadRequest))
			return
		}
		if !fetch.IsRemote(src) && !s.Config.AllowLocal {
			s.writeError(w, fmt.Errorf("%w: src must be an http(s) URL", errBadRequest))
			return
		}
		res, err = s.Converter.Convert(r.Context(), src, opts)

	case http.MethodPost:
		body := http.MaxBytesReader(w, r.Body, s.maxBody())
		res, err = s.Converter.ConvertZip(r.Context(), body, opts)

	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeResult(w, res)
}

func (s *ServerContext) maxBody() int64 {
	if s.Config.MaxBody > 0 {
		return s.Config.MaxBody
	}
	return 64 << 20
}

// options overlays query parameters on the configured defaults.
func (s *ServerContext) options(r *http.Request) (converter.Options, error) {
	opts := s.Config.Options()
	q := r.URL.Query()

	if v := q.Get("epsg"); v != "" {
		code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(v), "EPSG:"))
		if err != nil || code < 0 {
			return opts, fmt.Errorf("%w: invalid epsg %q", errBadRequest, v)
		}
		opts.EPSG = code
	}
	if v := q.Get("cpg"); v != "" {
		opts.CPG = v
	}
	if v := q.Get("allow"); v != "" {
		opts.AllowList = strings.Split(v, ",")
	}

	return opts, nil
}

func (s *ServerContext) writeResult(w http.ResponseWriter, res geo.Result) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.Minifier != nil {
		if out, err := s.Minifier.Bytes(mediaGeoJSON, data); err == nil {
			data = out
		} else {
			log.Warn().Err(err).Msg("Minify failed, sending original")
		}
	}

	w.Header().Set("Content-Type", mediaGeoJSON)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// statusFor maps conversion errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		fetchErr    *converter.FetchError
		unsupported *shp.ErrUnsupportedShape
		tooLarge    *http.MaxBytesError
		badValue    *json.UnsupportedValueError
	)

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, buffer.ErrMissingBuffer),
		errors.Is(err, converter.ErrEmptySource),
		errors.Is(err, fetch.ErrLocalDisabled):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, archive.ErrNoLayersFound),
		errors.Is(err, archive.ErrInvalidArchive),
		errors.Is(err, geo.ErrInvalidDocument),
		errors.Is(err, shp.ErrInvalidHeader),
		errors.Is(err, shp.ErrTruncated),
		errors.Is(err, dbf.ErrInvalidHeader),
		errors.As(err, &unsupported),
		errors.As(err, &badValue):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *ServerContext) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("Conversion failed")
	} else {
		log.Debug().Err(err).Int("status", code).Msg("Conversion rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
