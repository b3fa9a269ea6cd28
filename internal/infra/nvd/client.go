package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/daily-briefing/internal/domain/cve"
)

const (
	defaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	dateLayout     = "2006-01-02T15:04:05.000"
	pageSize       = 2000
	// maxPages bounds a runaway window; two days of changes never come close.
	maxPages = 20
)

// Client queries the NVD CVE API 2.0.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client. The key is optional and only raises the rate limit.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: u, apiKey: strings.TrimSpace(apiKey), httpClient: httpClient}
}

// Vulnerabilities pages through every record whose <endpoint>Date falls inside [start, end].
func (c *Client) Vulnerabilities(ctx context.Context, endpoint string, start, end time.Time) ([]cve.Vulnerability, error) {
	var out []cve.Vulnerability
	for page, index := 0, 0; page < maxPages; page++ {
		raw, err := c.fetch(ctx, endpoint, start, end, index)
		if err != nil {
			return nil, err
		}
		for _, v := range raw.Vulnerabilities {
			out = append(out, convert(v.CVE))
		}
		index = raw.StartIndex + len(raw.Vulnerabilities)
		if len(raw.Vulnerabilities) == 0 || index >= raw.TotalResults {
			return out, nil
		}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, start, end time.Time, index int) (*apiResponse, error) {
	params := url.Values{}
	params.Set(endpoint+"StartDate", start.Format(dateLayout))
	params.Set(endpoint+"EndDate", end.Format(dateLayout))
	params.Set("resultsPerPage", strconv.Itoa(pageSize))
	params.Set("startIndex", strconv.Itoa(index))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build nvd request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nvd request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("nvd request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode nvd response: %w", err)
	}
	return &raw, nil
}

type apiResponse struct {
	ResultsPerPage  int       `json:"resultsPerPage"`
	StartIndex      int       `json:"startIndex"`
	TotalResults    int       `json:"totalResults"`
	Vulnerabilities []apiVuln `json:"vulnerabilities"`
}

type apiVuln struct {
	CVE apiCVE `json:"cve"`
}

type apiCVE struct {
	ID               string           `json:"id"`
	SourceIdentifier string           `json:"sourceIdentifier"`
	VulnStatus       string           `json:"vulnStatus"`
	Descriptions     []apiDescription `json:"descriptions"`
	Metrics          apiMetrics       `json:"metrics"`
}

type apiDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type apiMetrics struct {
	V40 []apiMetric `json:"cvssMetricV40"`
	V31 []apiMetric `json:"cvssMetricV31"`
	V30 []apiMetric `json:"cvssMetricV30"`
	V2  []apiMetric `json:"cvssMetricV2"`
}

type apiMetric struct {
	Type         string      `json:"type"`
	BaseSeverity string      `json:"baseSeverity"`
	CVSSData     apiCVSSData `json:"cvssData"`
}

type apiCVSSData struct {
	Version      string  `json:"version"`
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity"`
}

func convert(raw apiCVE) cve.Vulnerability {
	v := cve.Vulnerability{
		ID:               raw.ID,
		Status:           raw.VulnStatus,
		SourceIdentifier: raw.SourceIdentifier,
		Description:      description(raw.Descriptions),
	}
	groups := []struct {
		version string
		metrics []apiMetric
	}{
		{"4.0", raw.Metrics.V40},
		{"3.1", raw.Metrics.V31},
		{"3.0", raw.Metrics.V30},
		{"2.0", raw.Metrics.V2},
	}
	for _, g := range groups {
		if len(g.metrics) == 0 {
			continue
		}
		m := pickMetric(g.metrics)
		severity := m.CVSSData.BaseSeverity
		if severity == "" {
			// v2 keeps severity beside cvssData.
			severity = m.BaseSeverity
		}
		v.Metrics = append(v.Metrics, cve.Metric{
			Version:  g.version,
			Severity: severity,
			Score:    m.CVSSData.BaseScore,
		})
	}
	return v
}

// pickMetric prefers the NVD primary score over secondary CNA scores.
func pickMetric(metrics []apiMetric) apiMetric {
	for _, m := range metrics {
		if m.Type == "Primary" {
			return m
		}
	}
	return metrics[0]
}

func description(list []apiDescription) string {
	for _, d := range list {
		if d.Lang == "en" {
			return d.Value
		}
	}
	if len(list) > 0 {
		return list[0].Value
	}
	return ""
}
