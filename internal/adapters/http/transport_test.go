package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/pkg/log"
)

const payload = `[{"message":"a"},{"message":"b"}]`

type captured struct {
	header http.Header
	body   string
	method string
	path   string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.header = r.Header.Clone()
		got.method = r.Method
		got.path = r.URL.Path

		var reader io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				t.Errorf("gzip reader: %v", err)
				return
			}
			defer zr.Close()
			reader = zr
		}
		b, _ := io.ReadAll(reader)
		got.body = string(b)

		w.WriteHeader(status)
		_, _ = w.Write([]byte("backend says no"))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestTransport_Send(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	tr := NewTransport(srv.Client(), TransportConfig{
		URL:               srv.URL + "/v1/input/key123",
		IPTracking:        "client_ip",
		UserAgentTracking: "client_ua",
		UserAgent:         "logship-test",
	}, log.NewNoopLogger())

	out := tr.Send(context.Background(), []byte(payload))

	if !out.Success() {
		t.Fatalf("Send() = %+v, want success", out)
	}
	if got.method != http.MethodPost || got.path != "/v1/input/key123" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	if got.body != payload {
		t.Errorf("body = %q, want %q", got.body, payload)
	}

	wantHeaders := map[string]string{
		"Content-Type":     ContentType,
		HeaderAddIP:        "client_ip",
		HeaderAddUserAgent: "client_ua",
		"User-Agent":       "logship-test",
	}
	for k, v := range wantHeaders {
		if got.header.Get(k) != v {
			t.Errorf("header %s = %q, want %q", k, got.header.Get(k), v)
		}
	}
	if _, err := uuid.Parse(got.header.Get(HeaderBatchID)); err != nil {
		t.Errorf("batch id %q is not a uuid: %v", got.header.Get(HeaderBatchID), err)
	}
}

func TestTransport_OmitsEmptyTrackingHeaders(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent)
	tr := NewTransport(srv.Client(), TransportConfig{URL: srv.URL}, log.NewNoopLogger())

	if out := tr.Send(context.Background(), []byte(payload)); !out.Success() {
		t.Fatalf("Send() = %+v, want success", out)
	}
	for _, h := range []string{HeaderAddIP, HeaderAddUserAgent, "Content-Encoding"} {
		if v := got.header.Get(h); v != "" {
			t.Errorf("header %s = %q, want empty", h, v)
		}
	}
}

func TestTransport_Gzip(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	tr := NewTransport(srv.Client(), TransportConfig{URL: srv.URL, Compress: true}, log.NewNoopLogger())

	if out := tr.Send(context.Background(), []byte(payload)); !out.Success() {
		t.Fatalf("Send() = %+v, want success", out)
	}
	if got.header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got.header.Get("Content-Encoding"))
	}
	if got.body != payload {
		t.Errorf("decompressed body = %q, want %q", got.body, payload)
	}
}

func TestTransport_StatusCodes(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{http.StatusOK, true},
		{http.StatusAccepted, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, _ := newServer(t, tt.status)
			tr := NewTransport(srv.Client(), TransportConfig{URL: srv.URL}, log.NewNoopLogger())

			out := tr.Send(context.Background(), []byte(payload))
			if out.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.status)
			}
			if out.Success() != tt.success {
				t.Errorf("Success() = %v, want %v", out.Success(), tt.success)
			}
			if !tt.success && (out.Err == nil || !strings.Contains(out.Err.Error(), "server returned")) {
				t.Errorf("Err = %v, want server error", out.Err)
			}
		})
	}
}

func TestTransport_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := NewTransport(http.DefaultClient, TransportConfig{URL: url}, log.NewNoopLogger())
	out := tr.Send(context.Background(), []byte(payload))

	if out.StatusCode != domain.StatusNetworkError {
		t.Errorf("StatusCode = %d, want %d", out.StatusCode, domain.StatusNetworkError)
	}
	if out.Err == nil || out.Success() {
		t.Errorf("Send() = %+v, want failure with error", out)
	}
}

func TestTransport_InvalidURL(t *testing.T) {
	tr := NewTransport(http.DefaultClient, TransportConfig{URL: "://bad"}, log.NewNoopLogger())
	if out := tr.Send(context.Background(), []byte(payload)); out.Success() {
		t.Errorf("Send() to invalid URL succeeded")
	}
}
