package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprintf(w, `{"liteservers":[{"ip":1592601963,"port":13833,"id":{"@type":"pub.ed25519","key":%q}}]}`, testKey)
	}))
	defer srv.Close()

	dir, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 1, dir.Len())
	assert.Equal(t, "94.237.45.107:13833", dir.At(0).Addr())
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.Client(), srv.URL)
	assert.ErrorIs(t, err, ErrFetchStatus)
}

func TestFetchInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), nil, srv.URL)
	assert.ErrorIs(t, err, ErrInvalidDirectory)
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, nil, "http://127.0.0.1:1/config.json")
	assert.Error(t, err)
}
