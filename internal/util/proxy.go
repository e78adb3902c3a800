package util

import (
	"fmt"
	"net/http"
	"net/url"
)

// NewProxyFunc builds the transport's proxy selector. Explicit proxies win;
// with neither set the standard HTTP_PROXY / HTTPS_PROXY / NO_PROXY variables apply.
func NewProxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	parse := func(raw string) (*url.URL, error) {
		if raw == "" {
			return nil, nil
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", raw)
		}
		return u, nil
	}
	plain, err := parse(httpProxy)
	if err != nil {
		return nil, err
	}
	secure, err := parse(httpsProxy)
	if err != nil {
		return nil, err
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && secure != nil {
			return secure, nil
		}
		if plain != nil {
			return plain, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}
