package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPChecker_ServedFile(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL + "/hbase-site.xml").Check(context.Background())

	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
	if method != http.MethodHead {
		t.Errorf("Expected HEAD request, got %s", method)
	}
	if result.Duration <= 0 {
		t.Error("Expected positive duration")
	}
}

func TestHTTPChecker_MissingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	result := NewHTTPChecker(server.URL + "/hbase-site.xml").Check(context.Background())

	if result.Healthy {
		t.Errorf("Expected unhealthy, got healthy: %s", result.Message)
	}
}

func TestHTTPChecker_RedirectIsNotServed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	result := NewHTTPChecker(server.URL).Check(context.Background())

	if result.Healthy {
		t.Errorf("Expected unhealthy for 304, got healthy: %s", result.Message)
	}
}

func TestHTTPChecker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL)
	checker.Client.Timeout = 50 * time.Millisecond

	if result := checker.Check(context.Background()); result.Healthy {
		t.Errorf("Expected unhealthy due to timeout, got healthy: %s", result.Message)
	}
}

func TestHTTPChecker_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if result := NewHTTPChecker(server.URL).Check(ctx); result.Healthy {
		t.Errorf("Expected unhealthy due to cancelled context, got healthy: %s", result.Message)
	}
}

func TestTCPChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()

	if result := NewTCPChecker(addr).Check(context.Background()); !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}

	ln.Close()
	if result := NewTCPChecker(addr).Check(context.Background()); result.Healthy {
		t.Errorf("Expected unhealthy after close, got healthy: %s", result.Message)
	}
}

func TestCheckerTypes(t *testing.T) {
	if NewHTTPChecker("http://example.com").Type() != CheckTypeHTTP {
		t.Errorf("Expected type %s", CheckTypeHTTP)
	}
	if NewTCPChecker("example.com:5050").Type() != CheckTypeTCP {
		t.Errorf("Expected type %s", CheckTypeTCP)
	}
}
