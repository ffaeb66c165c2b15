package rpc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

/**
 * Test HTTP client with mock server functionality
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Creates mock HTTP server emulating daemon endpoints
 * - Supports GET, POST, PUT, DELETE HTTP methods
 * - Validates response status codes and body content
 * @example
 * // Run this test with: go test -v -run TestHTTPClientWithMockServer
 */
func TestHTTPClientWithMockServer(t *testing.T) {
	// 创建模拟HTTP服务器
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 根据请求方法和路径返回不同的响应
		switch r.Method {
		case "GET":
			if r.URL.Path == "/lodestone/api/v1/instances" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`[{"uuid": "abc", "name": "survival", "state": "Stopped"}]`))
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case "POST":
			if r.URL.Path == "/lodestone/api/v1/instances/abc/start" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"uuid": "abc", "state": "Starting"}`))
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case "PUT":
			if r.URL.Path == "/lodestone/api/v1/instances/abc/backup/period" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status": "success"}`))
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case "DELETE":
			if r.URL.Path == "/lodestone/api/v1/instances/abc" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status": "success"}`))
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer server.Close()

	cfg := &HTTPConfig{
		Address: strings.TrimPrefix(server.URL, "http://"),
		Network: "tcp",
		Timeout: 5 * time.Second,
		BaseURL: server.URL,
	}
	client := NewHTTPClient(cfg)
	defer client.Close()

	t.Run("Get", func(t *testing.T) {
		resp, err := client.Get("/lodestone/api/v1/instances", nil)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if !strings.Contains(string(resp.Body), "survival") {
			t.Errorf("unexpected body: %s", resp.Body)
		}
	})

	t.Run("Post", func(t *testing.T) {
		resp, err := client.Post("/lodestone/api/v1/instances/abc/start", nil)
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if !strings.Contains(string(resp.Body), "Starting") {
			t.Errorf("unexpected body: %s", resp.Body)
		}
	})

	t.Run("Put", func(t *testing.T) {
		resp, err := client.Put("/lodestone/api/v1/instances/abc/backup/period", map[string]interface{}{"period": 3600})
		if err != nil {
			t.Fatalf("PUT failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		resp, err := client.Delete("/lodestone/api/v1/instances/abc", nil)
		if err != nil {
			t.Fatalf("DELETE failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		resp, err := client.Get("/lodestone/api/v1/nothing", nil)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", resp.StatusCode)
		}
		if resp.Error == "" {
			t.Error("expected error text for non-2xx response")
		}
	})
}

/**
 * Test query parameter encoding of different value types
 * @param {*testing.T} t - Testing framework instance
 */
func TestBuildURLQueryParams(t *testing.T) {
	url, err := buildURL("http://localhost", "/lodestone/api/v1/events", map[string]interface{}{
		"instance_uuid": "abc",
		"limit":         10,
		"follow":        true,
	})
	if err != nil {
		t.Fatalf("buildURL failed: %v", err)
	}
	for _, want := range []string{"instance_uuid=abc", "limit=10", "follow=true"} {
		if !strings.Contains(url, want) {
			t.Errorf("url %s missing %s", url, want)
		}
	}
}

/**
 * Test that a missing unix socket is reported before any request is sent
 * @param {*testing.T} t - Testing framework instance
 */
func TestUnixSocketMissing(t *testing.T) {
	cfg := &HTTPConfig{
		Address: "/nonexistent/lodestone.sock",
		Network: "unix",
		Timeout: time.Second,
		BaseURL: "http://localhost",
	}
	client := NewHTTPClient(cfg)
	defer client.Close()

	if _, err := client.Get("/healthz", nil); err == nil {
		t.Error("expected error for missing socket file")
	}
}
