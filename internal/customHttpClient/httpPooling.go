package customHttpClient

import (
	"net/http"

	"github.com/dkurup/agenticrag/internal/config"
)

// Pooled keeps connections to the LLM endpoints warm; the generation calls
// are long-latency and re-dialing per request adds up.
func Pooled() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.MaxIdleConns,
			MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
			IdleConnTimeout:     config.IdleConnTimeout,
		},
	}
}
