package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func safeBrowsingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want none", r.URL.RawQuery)
		}
		var req sbRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.ThreatInfo.ThreatTypes) != 4 {
			t.Errorf("threat types = %v", req.ThreatInfo.ThreatTypes)
		}
		if len(req.ThreatInfo.ThreatEntries) != 1 || req.ThreatInfo.ThreatEntries[0].URL != "http://evil.example/" {
			t.Errorf("threat entries = %v", req.ThreatInfo.ThreatEntries)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return srv, hits
}

func TestSafeBrowsingFlagged(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"match", http.StatusOK, `{"matches":[{"threatType":"SOCIAL_ENGINEERING"}]}`, true},
		{"noMatch", http.StatusOK, `{}`, false},
		{"serverError", http.StatusInternalServerError, `oops`, false},
		{"malformed", http.StatusOK, `{"matches":`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := safeBrowsingServer(t, tt.status, tt.body)
			defer srv.Close()

			sb := NewSafeBrowsing("test-key", time.Second, 0, quietLogger())
			sb.Endpoint = srv.URL
			if got := sb.Flagged(context.Background(), "http://evil.example/"); got != tt.want {
				t.Fatalf("Flagged() = %v, want %v", got, tt.want)
			}
			if hits.Load() != 1 {
				t.Fatalf("server hit %d times, want 1", hits.Load())
			}
		})
	}
}

func TestSafeBrowsingWithoutKey(t *testing.T) {
	srv, hits := safeBrowsingServer(t, http.StatusOK, `{"matches":[{}]}`)
	defer srv.Close()

	sb := NewSafeBrowsing("", time.Second, 5, quietLogger())
	sb.Endpoint = srv.URL
	if sb.Flagged(context.Background(), "http://evil.example/") {
		t.Fatal("lookup without a key must answer false")
	}
	if hits.Load() != 0 {
		t.Fatalf("server hit %d times without a key", hits.Load())
	}
}

func TestSafeBrowsingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	sb := NewSafeBrowsing("test-key", time.Second, 0, quietLogger())
	sb.Endpoint = addr
	if sb.Flagged(context.Background(), "http://evil.example/") {
		t.Fatal("unreachable service must answer false")
	}
}

func TestSafeBrowsingKeyNotLogged(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	var buf bytes.Buffer
	log := quietLogger()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	sb := NewSafeBrowsing("SECRET-API-KEY", time.Second, 0, log)
	sb.Endpoint = addr
	if sb.Flagged(context.Background(), "http://evil.example/") {
		t.Fatal("unreachable service must answer false")
	}
	if !strings.Contains(buf.String(), "check failed") {
		t.Fatalf("transport failure not logged: %q", buf.String())
	}
	if strings.Contains(buf.String(), "SECRET-API-KEY") {
		t.Fatalf("api key leaked into logs: %q", buf.String())
	}
}

func TestNewSafeBrowsingLimiter(t *testing.T) {
	if sb := NewSafeBrowsing("k", time.Second, 0, nil); sb.Limiter != nil {
		t.Fatal("rps 0 must disable throttling")
	}
	if sb := NewSafeBrowsing("k", time.Second, 2, nil); sb.Limiter == nil {
		t.Fatal("rps 2 must install a limiter")
	}
}
