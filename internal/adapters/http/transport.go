package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/hyp3rd/ewrap"
	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Request headers.
const (
	ContentType        = "application/json; charset=UTF-8"
	HeaderAddIP        = "X-Logmatic-Add-IP"
	HeaderAddUserAgent = "X-Logmatic-Add-UserAgent"
	HeaderBatchID      = "X-Logship-Batch-Id"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 1024

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	// URL is the full ingestion URL, API key included.
	URL string

	// IPTracking names the attribute the backend fills with the client IP.
	// Empty disables the header.
	IPTracking string

	// UserAgentTracking names the attribute the backend fills with the
	// client user agent. Empty disables the header.
	UserAgentTracking string

	// Compress gzips the request body.
	Compress bool

	// UserAgent overrides the User-Agent header when set.
	UserAgent string
}

// Transport implements ports.Transport with one JSON POST per batch.
type Transport struct {
	client ports.HTTPClient
	config TransportConfig
	logger ports.Logger
}

// NewTransport creates a new HTTP transport.
func NewTransport(client ports.HTTPClient, config TransportConfig, logger ports.Logger) *Transport {
	return &Transport{
		client: client,
		config: config,
		logger: logger,
	}
}

// Send posts payload and reports the response status. A request that never
// got a response yields StatusNetworkError; a non-2xx response carries an
// error with the start of the response body.
func (t *Transport) Send(ctx context.Context, payload []byte) domain.Outcome {
	body := payload
	if t.config.Compress {
		var err error
		if body, err = gzipBody(payload); err != nil {
			return domain.Failure(ewrap.Wrap(err, "compress payload"))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.URL, bytes.NewReader(body))
	if err != nil {
		return domain.Failure(ewrap.Wrap(err, "create request").WithMetadata("url", t.config.URL))
	}

	batchID := uuid.NewString()
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(HeaderBatchID, batchID)
	if t.config.Compress {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if t.config.IPTracking != "" {
		req.Header.Set(HeaderAddIP, t.config.IPTracking)
	}
	if t.config.UserAgentTracking != "" {
		req.Header.Set(HeaderAddUserAgent, t.config.UserAgentTracking)
	}
	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Failure(ewrap.Wrap(err, "send request").WithMetadata("batch_id", batchID))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		t.logger.Debug("batch accepted",
			ports.String("batch_id", batchID),
			ports.Status(resp.StatusCode),
			ports.Bytes(len(body)),
		)
		return domain.Outcome{StatusCode: resp.StatusCode}
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return domain.Outcome{
		StatusCode: resp.StatusCode,
		Err: ewrap.Newf("server returned %d", resp.StatusCode).
			WithMetadata("batch_id", batchID).
			WithMetadata("body", string(respBody)),
	}
}

func gzipBody(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
