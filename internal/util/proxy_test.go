package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy, err := NewProxyFunc("http://plain:3128", "http://secure:3128")
	require.NoError(t, err)

	httpReq, _ := http.NewRequest(http.MethodPost, "http://localhost:8000/parse", nil)
	u, err := proxy(httpReq)
	require.NoError(t, err)
	assert.Equal(t, "plain:3128", u.Host)

	httpsReq, _ := http.NewRequest(http.MethodPost, "https://duckling.example/parse", nil)
	u, err = proxy(httpsReq)
	require.NoError(t, err)
	assert.Equal(t, "secure:3128", u.Host)
}

func TestNewProxyFunc_HTTPOnlyCoversHTTPS(t *testing.T) {
	proxy, err := NewProxyFunc("http://plain:3128", "")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "https://duckling.example/parse", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "plain:3128", u.Host)
}

func TestNewProxyFunc_Invalid(t *testing.T) {
	_, err := NewProxyFunc("not a url", "")
	assert.Error(t, err)
}
