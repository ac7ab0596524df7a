package customHttpClient

import (
	"net/http"

	"github.com/akolanti/DriveRAG/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// GetPooledClient returns an http client on the shared pooled transport, for
// providers that take a custom client.
func GetPooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
