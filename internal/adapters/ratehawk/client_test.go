package ratehawk_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nrenier/ratehawk-connector/internal/adapters/ratehawk"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

func newTestClient(t *testing.T, base string) *ratehawk.Client {
	t.Helper()
	cl, err := ratehawk.NewClient(base, "test-key", "5412", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_GetHotel_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "42", "name": "Hotel Alpha"})
		}
	}))
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.GetHotel(ctx, "42")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["name"] != "Hotel Alpha" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetHotel_404IsSentinel(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetHotel(ctx, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_401And403Sentinels(t *testing.T) {
	for status, want := range map[int]error{
		401: domain.ErrUnauthorized,
		403: domain.ErrForbidden,
	} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		cl := newTestClient(t, ts.URL)
		_, err := cl.GetHotel(context.Background(), "x")
		ts.Close()
		if !errors.Is(err, want) {
			t.Fatalf("status %d: expected %v, got %v", status, want, err)
		}
	}
}

func TestClient_AuthSchemes(t *testing.T) {
	var apiKeyHeader, basicUser, basicPass string
	var sawBasic bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b2b/v3/region/dump/" {
			basicUser, basicPass, sawBasic = r.BasicAuth()
		} else {
			apiKeyHeader = r.Header.Get("X-API-KEY")
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	ctx := context.Background()

	if _, err := cl.SearchHotels(ctx, map[string]string{"adults": "2"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if apiKeyHeader != "test-key" {
		t.Fatalf("X-API-KEY = %q", apiKeyHeader)
	}

	if _, err := cl.RegionDumpInfo(ctx, map[string]any{"language": "en"}); err != nil {
		t.Fatalf("dump info: %v", err)
	}
	if !sawBasic || basicUser != "5412" || basicPass != "test-key" {
		t.Fatalf("basic auth = (%q, %q, %v)", basicUser, basicPass, sawBasic)
	}
}

func TestClient_RetryAfterHonored(t *testing.T) {
	var hits int32
	var gap time.Duration
	var first time.Time
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			first = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(429)
			return
		}
		gap = time.Since(first)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	if _, err := cl.GetHotel(context.Background(), "42"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if gap < 900*time.Millisecond {
		t.Fatalf("second attempt after %v, want >= ~1s per Retry-After", gap)
	}
}

func TestClient_PricesDecodeAsNumbers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"total_price": 123.45}`))
	}))
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	got, err := cl.GetBooking(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	n, ok := got["total_price"].(json.Number)
	if !ok {
		t.Fatalf("total_price decoded as %T, want json.Number", got["total_price"])
	}
	if n.String() != "123.45" {
		t.Fatalf("total_price = %s", n)
	}
}

func TestClient_Download(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("line1\nline2\n"))
	}))
	defer ts.Close()

	cl := newTestClient(t, ts.URL)
	var buf bytes.Buffer
	if err := cl.Download(context.Background(), ts.URL+"/dump.jsonl", &buf); err != nil {
		t.Fatalf("err: %v", err)
	}
	if buf.String() != "line1\nline2\n" {
		t.Fatalf("body = %q", buf.String())
	}
}
