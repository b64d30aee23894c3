package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// Open-Elevation caps lookup batches; larger requests get chunked.
const chunkSize = 50

type Client struct {
	baseURL string
	session *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: &http.Client{Timeout: 30 * time.Second},
	}
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Lookup resolves terrain elevation (meters) for each coordinate, in order.
func (c *Client) Lookup(ctx context.Context, coords []analysis.Vertex) ([]float64, error) {
	out := make([]float64, 0, len(coords))
	for start := 0; start < len(coords); start += chunkSize {
		end := start + chunkSize
		if end > len(coords) {
			end = len(coords)
		}
		chunk, err := c.lookupChunk(ctx, coords[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *Client) lookupChunk(ctx context.Context, coords []analysis.Vertex) ([]float64, error) {
	payload := lookupRequest{Locations: make([]lookupLocation, len(coords))}
	for i, v := range coords {
		payload.Locations[i] = lookupLocation{Latitude: v.Lat, Longitude: v.Lon}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/lookup", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode elevation response: %w", err)
	}
	if len(decoded.Results) != len(coords) {
		return nil, fmt.Errorf("elevation result count %d for %d coordinates", len(decoded.Results), len(coords))
	}

	elevations := make([]float64, len(decoded.Results))
	for i, r := range decoded.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("elevation api status %d: %s", e.Code, e.Body)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}
