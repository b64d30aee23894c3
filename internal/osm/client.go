package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// Piste is a downhill ski run fetched from OpenStreetMap.
type Piste struct {
	Name       string
	NameEn     string
	Difficulty string
	Coords     []analysis.Vertex
}

type Client struct {
	endpoint string
	session  *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		session:  &http.Client{Timeout: 3 * time.Minute},
	}
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// FetchPistes queries Overpass for downhill pistes inside bbox
// ("south,west,north,east") and resolves each way's node references
// into ordered coordinates. Ways whose nodes are missing from the
// response are returned with the coordinates that could be resolved.
func (c *Client) FetchPistes(ctx context.Context, bbox string) ([]Piste, error) {
	query := fmt.Sprintf(`[out:json][timeout:120];way["piste:type"="downhill"](%s);out body;>;out skel qt;`, bbox)

	resp, err := c.post(ctx, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	nodes := make(map[int64]analysis.Vertex)
	for _, el := range decoded.Elements {
		if el.Type == "node" {
			nodes[el.ID] = analysis.Vertex{Lat: el.Lat, Lon: el.Lon}
		}
	}

	var pistes []Piste
	for _, el := range decoded.Elements {
		if el.Type != "way" {
			continue
		}
		p := Piste{
			Name:       el.Tags["name"],
			NameEn:     el.Tags["name:en"],
			Difficulty: el.Tags["piste:difficulty"],
		}
		for _, id := range el.Nodes {
			if v, ok := nodes[id]; ok {
				p.Coords = append(p.Coords, v)
			}
		}
		pistes = append(pistes, p)
	}
	return pistes, nil
}

func (c *Client) post(ctx context.Context, query string) (*http.Response, error) {
	const maxAttempts = 3
	backoff := time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		form := url.Values{"data": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.session.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("overpass status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			// Overpass rate limits aggressively; only those and server
			// errors are worth a retry.
			if resp.StatusCode != 429 && resp.StatusCode < 500 {
				return nil, lastErr
			}
		} else {
			return resp, nil
		}

		if attempt == maxAttempts {
			break
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
	if lastErr == nil {
		lastErr = errors.New("overpass request failed")
	}
	return nil, lastErr
}
