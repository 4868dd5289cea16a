package ports

import "github.com/bft-labs/logship/pkg/sender"

// HTTPClient executes the POST of a batch. It is the client interface
// accepted by logship.WithHTTPClient, so any *http.Client or test double
// given there reaches the transport unchanged.
type HTTPClient = sender.HTTPClient
