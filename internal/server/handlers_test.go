package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/woozymasta/shpjson/internal/config"
	"github.com/woozymasta/shpjson/internal/converter"
	"github.com/woozymasta/shpjson/internal/fetch"
	"github.com/woozymasta/shpjson/internal/shptest"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nameField = []shptest.Field{{Name: "NAME", Type: 'C', Size: 10}}

func newTestServer(t *testing.T, cfg *config.Config, files map[string][]byte) *ServerContext {
	t.Helper()

	f := fetch.Func(func(_ context.Context, ref string) ([]byte, error) {
		if data, ok := files[ref]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("%s: %w", ref, fetch.ErrNotFound)
	})

	conv, err := converter.New(f)
	require.NoError(t, err)
	return NewServerContext(cfg, conv)
}

func serve(s *ServerContext, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", s.HandleConvert)
	mux.HandleFunc("/healthz", s.HandleHealth)

	rec := httptest.NewRecorder()
	RequestLogger(mux).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.Default(), nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestConvertGet(t *testing.T) {
	files := map[string][]byte{
		"http://data.test/roads.shp": shptest.SHP(orb.Point{1, 2}),
		"http://data.test/roads.dbf": shptest.DBF(nameField, []string{"main"}),
	}
	s := newTestServer(t, config.Default(), files)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/convert?src=http://data.test/roads.shp&cpg=UTF-8", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"type": "FeatureCollection",
		"fileName": "roads",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"NAME": "main"}}
		]
	}`, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "\n", "indented without minify")
}

func TestConvertPostZip(t *testing.T) {
	cfg := config.Default()
	cfg.Minify = true
	s := newTestServer(t, cfg, nil)

	bundle := shptest.Zip(
		shptest.Entry{Name: "a.shp", Data: shptest.SHP(orb.Point{1, 1})},
		shptest.Entry{Name: "notes.txt", Data: []byte("hi")},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/convert?allow=txt", bytes.NewReader(bundle))
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var layers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layers))
	require.Len(t, layers, 2)
	assert.Equal(t, "a", layers[0]["fileName"])
	assert.Equal(t, "notes.txt", layers[1]["fileName"])
	assert.Equal(t, "hi", layers[1]["content"])
	assert.NotContains(t, rec.Body.String(), "\n", "minified")
}

func TestConvertErrors(t *testing.T) {
	files := map[string][]byte{
		"http://data.test/empty.zip": shptest.Zip(shptest.Entry{Name: "a.dbf", Data: shptest.DBF(nameField)}),
	}

	tests := []struct {
		name   string
		method string
		target string
		body   []byte
		want   int
	}{
		{"missing src", http.MethodGet, "/api/convert", nil, http.StatusBadRequest},
		{"local path", http.MethodGet, "/api/convert?src=/etc/passwd", nil, http.StatusBadRequest},
		{"bad epsg", http.MethodGet, "/api/convert?src=http://data.test/a&epsg=abc", nil, http.StatusBadRequest},
		{"missing shp", http.MethodGet, "/api/convert?src=http://data.test/gone", nil, http.StatusBadGateway},
		{"no layers", http.MethodGet, "/api/convert?src=http://data.test/empty.zip", nil, http.StatusUnprocessableEntity},
		{"empty body", http.MethodPost, "/api/convert", nil, http.StatusBadRequest},
		{"not a zip", http.MethodPost, "/api/convert", []byte("garbage"), http.StatusUnprocessableEntity},
		{"method", http.MethodPut, "/api/convert", nil, http.StatusMethodNotAllowed},
	}

	s := newTestServer(t, config.Default(), files)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewReader(tt.body))
			rec := serve(s, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusForUnencodableCoordinates(t *testing.T) {
	_, err := json.Marshal(orb.Point{math.NaN(), math.NaN()})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(err))
}

func TestConvertLocalAllowed(t *testing.T) {
	cfg := config.Default()
	cfg.AllowLocal = true
	s := newTestServer(t, cfg, map[string][]byte{
		"/srv/a.shp": shptest.SHP(orb.Point{0, 0}),
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/convert?src=/srv/a&epsg=EPSG:4326", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.Contains(rec.Body.String(), `"fileName": "a"`))
}

func TestConvertBodyTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBody = 8
	s := newTestServer(t, cfg, nil)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestLoggerCounts(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriterWrapper{ResponseWriter: rec, statusCode: http.StatusOK}

	ww.WriteHeader(http.StatusTeapot)
	n, err := ww.Write([]byte("short"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, 5, ww.written)
	assert.Equal(t, http.StatusTeapot, ww.statusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
