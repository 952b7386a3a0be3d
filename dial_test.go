package liteclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opd-ai/liteclient/adnl/adnltest"
	"github.com/opd-ai/liteclient/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configServer(t *testing.T, servers ...*adnltest.Server) *httptest.Server {
	t.Helper()
	body := `{"@type":"config.global","liteservers":[`
	for i, s := range servers {
		if i > 0 {
			body += ","
		}
		desc := s.Descriptor()
		body += fmt.Sprintf(`{"ip":%d,"port":%d,"id":{"@type":"pub.ed25519","key":%q}}`,
			int32(desc.Address), desc.Port, base64.StdEncoding.EncodeToString(desc.PublicKey))
	}
	body += `]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDial(t *testing.T) {
	lite := startServer(t, adnltest.Accept)
	cfg := configServer(t, lite)

	options := testOptions()
	options.HTTPClient = cfg.Client()

	m, session, err := Dial(context.Background(), cfg.URL, options)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, StateEstablished, m.State())
	assert.Equal(t, lite.PublicKey(), m.Current().PublicKey)
}

func TestDialInvalidConfig(t *testing.T) {
	cfg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"liteservers":[{"ip":1,"port":0}]}`)
	}))
	defer cfg.Close()

	m, session, err := Dial(context.Background(), cfg.URL, nil)
	assert.ErrorIs(t, err, directory.ErrInvalidDirectory)
	assert.Nil(t, m)
	assert.Nil(t, session)
}

func TestDialEmptyConfig(t *testing.T) {
	cfg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"liteservers":[]}`)
	}))
	defer cfg.Close()

	_, _, err := Dial(context.Background(), cfg.URL, nil)
	assert.ErrorIs(t, err, directory.ErrEmptyDirectory)
}
