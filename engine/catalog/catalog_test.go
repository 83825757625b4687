package catalog

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `{
  "versions": [
    {"id": "a1.1.2_01", "name": "Alpha 1.1.2_01", "type": "alpha", "releaseTime": "2010-09-23T00:00:00Z"},
    {"id": "b1.7.3", "name": "Beta 1.7.3", "type": "beta", "releaseTime": "2011-07-08T00:00:00Z", "changelog": "Pistons"},
    {"id": "c0.30", "type": "classic", "releaseTime": "2009-11-10T00:00:00Z"}
  ]
}`

func TestParse(t *testing.T) {
	t.Run("Should parse entries newest first", func(t *testing.T) {
		versions, err := Parse([]byte(manifest))
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, "b1.7.3", versions[0].ID)
		assert.Equal(t, "Pistons", versions[0].Changelog)
		assert.Equal(t, "beta", versions[0].ReleaseType)
		assert.Equal(t, "a1.1.2_01", versions[1].ID)
		assert.Equal(t, "c0.30", versions[2].ID)
		assert.Equal(t, "c0.30", versions[2].Name())
		require.NotNil(t, versions[2].ReleaseTime)
		assert.Equal(t, 2009, versions[2].ReleaseTime.Year())
	})

	t.Run("Should keep manifest order without release times", func(t *testing.T) {
		versions, err := Parse([]byte(`["b1.7.3", {"id": "a1.1.2_01"}]`))
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, "b1.7.3", versions[0].ID)
		assert.Equal(t, "a1.1.2_01", versions[1].ID)
	})

	t.Run("Should reject malformed manifests", func(t *testing.T) {
		cases := map[string]string{
			"invalid json":   `{"versions": [`,
			"no versions":    `{"latest": "b1.7.3"}`,
			"missing id":     `{"versions": [{"name": "nameless"}]}`,
			"duplicate id":   `["b1.7.3", "b1.7.3"]`,
			"bad time":       `[{"id": "x", "releaseTime": "yesterday"}]`,
			"unexpected num": `[42]`,
		}
		for name, data := range cases {
			_, err := Parse([]byte(data))
			assert.Error(t, err, name)
		}
	})
}

func TestCatalog_FileSource(t *testing.T) {
	t.Run("Should list and look up versions from a file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "conf/versions.json", []byte(manifest), 0o644))
		cat := New(NewFileSource(fs, "conf/versions.json"))

		versions, err := cat.List(t.Context())
		require.NoError(t, err)
		assert.Len(t, versions, 3)

		v, err := cat.Lookup(t.Context(), "a1.1.2_01")
		require.NoError(t, err)
		assert.Equal(t, "Alpha 1.1.2_01", v.DisplayName)

		_, err = cat.Lookup(t.Context(), "r1.0")
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})

	t.Run("Should treat a missing file as no catalog", func(t *testing.T) {
		cat := New(NewFileSource(afero.NewMemMapFs(), "missing.json"))
		_, err := cat.List(t.Context())
		assert.ErrorContains(t, err, "missing.json")
		assert.ErrorIs(t, err, ErrNoSource)
	})

	t.Run("Should fail without a source", func(t *testing.T) {
		_, err := New(nil).List(t.Context())
		assert.ErrorIs(t, err, ErrNoSource)
	})
}

func TestCatalog_HTTPSource(t *testing.T) {
	t.Run("Should fetch the manifest over HTTP", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(manifest))
		}))
		defer srv.Close()

		v, err := New(NewHTTPSource(srv.URL, time.Second)).Lookup(t.Context(), "b1.7.3")
		require.NoError(t, err)
		assert.Equal(t, "Beta 1.7.3", v.Name())
	})

	t.Run("Should retry server errors", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(manifest))
		}))
		defer srv.Close()

		versions, err := New(NewHTTPSource(srv.URL, time.Second)).List(t.Context())
		require.NoError(t, err)
		assert.Len(t, versions, 3)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("Should report client errors", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := New(NewHTTPSource(srv.URL, time.Second)).List(t.Context())
		assert.ErrorContains(t, err, "404")
	})
}

func TestNewSource(t *testing.T) {
	t.Run("Should prefer the URL over the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		assert.IsType(t, &HTTPSource{}, NewSource(fs, "http://example.invalid/v.json", "v.json", 0))
		assert.IsType(t, &FileSource{}, NewSource(fs, "", "v.json", 0))
		assert.Nil(t, NewSource(fs, "", "", 0))
	})
}
