package ports

import "net/http"

// HTTPClient is the interface gateway adapters make HTTPS calls through.
// It allows mocking gateway traffic in tests and swapping transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
