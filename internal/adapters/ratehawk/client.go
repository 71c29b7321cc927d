package ratehawk

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nrenier/ratehawk-connector/internal/adapters/observability"
	"github.com/nrenier/ratehawk-connector/internal/domain"
)

// authScheme selects how a request authenticates. Most endpoints take the
// API key as a header; the bulk dump endpoints require HTTP Basic with the
// key-id/secret pair.
type authScheme int

const (
	authAPIKey authScheme = iota
	authBasic
)

// Client performs raw Ratehawk/WorldOta HTTP calls and returns parsed JSON.
// It never transforms; normalization belongs to the transformer. Safe for
// concurrent use.
type Client struct {
	base  string
	hc    *http.Client
	key   string
	keyID string
	rl    *rate.Limiter
}

func NewClient(base, key, keyID string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("ratehawk: API key is required")
	}
	if keyID == "" {
		keyID = "5412"
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 30 * time.Second},
		key:   key,
		keyID: keyID,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

/* ---- endpoint methods ---- */

func (c *Client) SearchHotels(ctx context.Context, query map[string]string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/hotels/search", query, nil, authAPIKey, &out)
}

func (c *Client) GetHotel(ctx context.Context, sourceID string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/hotels/"+url.PathEscape(sourceID), nil, nil, authAPIKey, &out)
}

func (c *Client) SearchRates(ctx context.Context, query map[string]string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/hotels/rates", query, nil, authAPIKey, &out)
}

func (c *Client) CreateBooking(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodPost, "/bookings", nil, body, authAPIKey, &out)
}

func (c *Client) GetBooking(ctx context.Context, sourceID string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(sourceID), nil, nil, authAPIKey, &out)
}

func (c *Client) DeleteBooking(ctx context.Context, sourceID string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(sourceID), nil, nil, authAPIKey, &out)
}

// SearchByRegion lists hotels of one region, paginated via page and
// hotels_count query values.
func (c *Client) SearchByRegion(ctx context.Context, query map[string]string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/b2b/v3/search/region/", query, nil, authAPIKey, &out)
}

// Multicomplete resolves free-text hotel/region names.
func (c *Client) Multicomplete(ctx context.Context, query map[string]string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/b2b/v3/search/multicomplete/", query, nil, authAPIKey, &out)
}

// RegionDumpInfo asks for the region dump descriptor; the response carries
// the URL of a JSONL.zst file. Basic auth per the bulk API contract.
func (c *Client) RegionDumpInfo(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodPost, "/b2b/v3/region/dump/", nil, body, authBasic, &out)
}

// HotelIncrementalDump returns yesterday-relative hotel changes.
func (c *Client) HotelIncrementalDump(ctx context.Context, query map[string]string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/b2b/v3/hotel/info/incremental_dump/", query, nil, authAPIKey, &out)
}

// Download streams an absolute URL (the dump file location) to w. No auth:
// dump URLs are pre-signed.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return &domain.VendorError{Op: "download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &domain.VendorError{Op: "download", Status: resp.StatusCode}
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

/* ---- transport ---- */

// do performs one logical call: client-side rate limiting, up to 4 attempts
// on 429/transient 5xx honoring Retry-After, JSON decode with UseNumber so
// prices never pass through a float64.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body map[string]any, scheme authScheme, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	u := c.base + path
	if len(query) > 0 {
		vals := url.Values{}
		for k, v := range query {
			vals.Set(k, v)
		}
		u += "?" + vals.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	var lastErr error
	for i := 0; i < 4; i++ {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		switch scheme {
		case authBasic:
			req.SetBasicAuth(c.keyID, c.key)
		default:
			req.Header.Set("X-API-KEY", c.key)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &domain.VendorError{Op: method + " " + path, Err: err}
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("ratehawk", path, 0, time.Since(start))
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			dec := json.NewDecoder(resp.Body)
			dec.UseNumber()
			err := dec.Decode(out)
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			if err != nil {
				return &domain.VendorError{Op: method + " " + path, Err: fmt.Errorf("decode: %w", err)}
			}
			return nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &domain.VendorError{Op: method + " " + path, Status: resp.StatusCode}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			observability.ObserveExternal("ratehawk", path, resp.StatusCode, time.Since(start))
			return &domain.VendorError{
				Op:     method + " " + path,
				Status: resp.StatusCode,
				Err:    fmt.Errorf("%s", strings.TrimSpace(string(b))),
			}
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter from crypto/rand, which is safe under concurrent fan-out.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
