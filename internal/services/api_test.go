package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/vibe/internal/shared"
	tu "github.com/desertthunder/vibe/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient, 0)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
			if srv.limiter != nil {
				t.Error("expected no limiter for rps 0")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, 0)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("With Rate Limit", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, 2.5)

			if srv.limiter == nil {
				t.Fatal("expected limiter to be created")
			}
			if float64(srv.limiter.Limit()) != 2.5 {
				t.Errorf("expected limit 2.5, got %v", srv.limiter.Limit())
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("q"); got != "a b" {
					t.Errorf("expected query 'a b', got %q", got)
				}
				if r.Header.Get("User-Agent") != userAgent {
					t.Errorf("expected user agent %q, got %q", userAgent, r.Header.Get("User-Agent"))
				}

				w.Header().Set("X-Custom-Header", "test-value")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status":"success"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, 0)
			resp, err := srv.Get(context.Background(), "/test", url.Values{"q": {"a b"}})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if string(resp.Body) != `{"status":"success"}` {
				t.Errorf("unexpected body %s", string(resp.Body))
			}
			if resp.Headers.Get("X-Custom-Header") != "test-value" {
				t.Errorf("expected custom header 'test-value', got %s", resp.Headers.Get("X-Custom-Header"))
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, 0)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "status 503") {
				t.Errorf("expected status in error, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, 0)
			_, err := srv.Get(context.Background(), "/test\x00invalid", nil)

			if err == nil {
				t.Fatal("expected error for invalid URL")
			}
			if !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client, 0)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewAPIService("http://example.com", client, 0)
			_, err := srv.Get(context.Background(), "/test", nil)

			if err == nil {
				t.Fatal("expected error for failed body read")
			}
			if !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			t.Run("Without Limiter", func(t *testing.T) {
				srv := NewAPIService(server.URL, nil, 0)
				if _, err := srv.Get(ctx, "/test", nil); err == nil {
					t.Error("expected error for canceled context")
				}
			})

			t.Run("With Limiter", func(t *testing.T) {
				srv := NewAPIService(server.URL, nil, 1)
				_, err := srv.Get(ctx, "/test", nil)
				if err == nil || !strings.Contains(err.Error(), "rate limiter") {
					t.Errorf("expected rate limiter error, got %v", err)
				}
			})
		})
	})
}

func TestUpgradeArtwork(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"Known Token", "https://is1.mzstatic.com/a/100x100bb.jpg", "https://is1.mzstatic.com/a/600x600bb.jpg"},
		{"Missing Token", "https://is1.mzstatic.com/a/art.jpg", "https://is1.mzstatic.com/a/art.jpg"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upgradeArtwork(tt.url, "100x100", "600x600"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
