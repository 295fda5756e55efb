package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/data/roads.shp", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("shape bytes"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetch(t *testing.T) {
	srv := newServer(t)
	h := NewHTTP(5*time.Second, zerolog.Nop())
	ctx := context.Background()

	data, err := h.Fetch(ctx, srv.URL+"/data/roads.shp")
	require.NoError(t, err)
	assert.Equal(t, "shape bytes", string(data))

	_, err = h.Fetch(ctx, srv.URL+"/data/roads.dbf")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = h.Fetch(ctx, srv.URL+"/broken")
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusInternalServerError, status.Code)
}

func TestHTTPFetchCanceled(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTP(0, zerolog.Nop()).Fetch(ctx, srv.URL+"/data/roads.shp")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalFetch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "roads.prj")
	require.NoError(t, os.WriteFile(file, []byte("GEOGCS[]"), 0o600))

	data, err := Local{}.Fetch(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "GEOGCS[]", string(data))

	_, err = Local{}.Fetch(context.Background(), filepath.Join(dir, "missing.prj"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAutoRoutes(t *testing.T) {
	var got []string
	record := func(tag string) Func {
		return func(_ context.Context, ref string) ([]byte, error) {
			got = append(got, tag+":"+ref)
			return nil, nil
		}
	}

	a := Auto{Remote: record("remote"), Local: record("local")}
	ctx := context.Background()

	_, _ = a.Fetch(ctx, "HTTPS://example.com/a.zip")
	_, _ = a.Fetch(ctx, "http://example.com/b.shp")
	_, _ = a.Fetch(ctx, "/srv/data/c.shp")

	assert.Equal(t, []string{
		"remote:HTTPS://example.com/a.zip",
		"remote:http://example.com/b.shp",
		"local:/srv/data/c.shp",
	}, got)

	_, err := Auto{Remote: record("remote")}.Fetch(ctx, "c.shp")
	assert.True(t, errors.Is(err, ErrLocalDisabled))
}
