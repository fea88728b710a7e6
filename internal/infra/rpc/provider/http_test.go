package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPProviderCall(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotMethod = req.Method
		if req.JSONRPC != "2.0" {
			t.Errorf("jsonrpc = %q, want 2.0", req.JSONRPC)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1b4"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("test", server.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_blockNumber", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if gotMethod != "eth_blockNumber" {
		t.Errorf("method = %q", gotMethod)
	}
	if string(result) != `"0x1b4"` {
		t.Errorf("result = %s", result)
	}
	if h := p.GetHealth(); !h.Available || h.ErrorRate != 0 {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestHTTPProviderRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"query returned more than 10000 results"}}`))
	}))
	defer server.Close()

	p := NewHTTPProvider("test", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_getLogs", []any{map[string]any{}})

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != -32005 || !strings.Contains(rpcErr.Message, "more than") {
		t.Errorf("unexpected rpc error %+v", rpcErr)
	}
}

func TestHTTPProviderRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider("test", server.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_blockNumber", nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if p.Monitor.GetStats().ThrottleCount429 != 1 {
		t.Error("expected throttle to be recorded")
	}
}
