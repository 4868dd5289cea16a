package sender

import "net/http"

// HTTPClient abstracts HTTP request execution for the default sender.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
