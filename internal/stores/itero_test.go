package stores

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/bundle"
)

func TestItero_Submit(t *testing.T) {
	path := makeBundle(t)
	digest, err := bundle.Digest(path)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/submit", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer itero-token", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, digest, r.FormValue("hash"))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	srv, _ := fakeStore(t, mux)

	ok, err := NewItero(testConfig(srv)).Submit(context.Background(),
		browser.Options{"zip": path, "token": "itero-token"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItero_Declined(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/submit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"build already submitted"}`)
	})
	srv, _ := fakeStore(t, mux)
	log, lines := testLogger(t, browser.Itero)

	ok, err := NewItero(testConfig(srv)).Submit(context.Background(),
		browser.Options{"zip": makeBundle(t), "token": "itero-token"}, log)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, (*lines)[len(*lines)-1], "build already submitted")
}
