// Package client implements the vendor REST calls behind the export
// workflow: the generation trigger and the readiness/download poll.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tshea68/reliable-pull/pkg/core"
	"go.uber.org/zap"
)

const exportBasePath = "/partInventoryAndPriceFile/v1"

// Config configures a vendor API client.
type Config struct {
	// BaseURL is the environment's API root, without the export path.
	BaseURL string

	// BasicAuth is the full Authorization header value.
	BasicAuth string
	APIKey    string
	Country   string

	// Timeout bounds a single HTTP call, not the poll loop.
	Timeout time.Duration

	Logger *zap.Logger
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Country == "" {
		c.Country = "US"
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	return nil
}

// Client calls the vendor export API. Safe for reuse across calls within a
// single run.
type Client struct {
	http        *http.Client
	log         *zap.Logger
	createURL   string
	downloadURL string
	basicAuth   string
	apiKey      string
	country     string
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + exportBasePath
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		log:         cfg.Logger,
		createURL:   base + "/create",
		downloadURL: base + "/download",
		basicAuth:   cfg.BasicAuth,
		apiKey:      cfg.APIKey,
		country:     cfg.Country,
	}, nil
}

// downloadPayload mirrors the download endpoint's JSON body. The vendor is
// inconsistent about errorCode's JSON type, hence flexString.
type downloadPayload struct {
	ErrorCode    flexString `json:"errorCode"`
	ErrorMessage string     `json:"errorMessage"`
	FileName     string     `json:"fileName"`
	FileContents string     `json:"fileContents"`
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = flexString(t)
	case float64:
		*s = flexString(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		*s = flexString(fmt.Sprint(t))
	}
	return nil
}

// SubmitGeneration asks the vendor to start generating the export. Any
// non-200 answer is a hard failure.
func (c *Client) SubmitGeneration(ctx context.Context) error {
	status, body, _, err := c.postJSON(ctx, c.createURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("create returned HTTP %d: %s", status, truncate(body, 500))
	}
	return nil
}

// PollDownload queries readiness of the export for the given date. HTTP 200
// with errorCode "100" and file contents means ready; other parseable JSON
// means not ready; anything else is a transport error. A non-nil error is
// only returned for context cancellation.
func (c *Client) PollDownload(ctx context.Context, date string) (core.Outcome, error) {
	status, body, payload, err := c.postJSON(ctx, c.downloadURL, map[string]string{"generatedDate": date})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return core.TransportError{Body: err.Error()}, nil
	}

	if status == http.StatusOK && payload != nil && payload.ErrorCode == "100" && payload.FileContents != "" {
		return core.Ready{FileName: payload.FileName, FileContents: payload.FileContents}, nil
	}
	if payload != nil {
		return core.NotReady{
			ErrorCode:    string(payload.ErrorCode),
			ErrorMessage: payload.ErrorMessage,
		}, nil
	}
	return core.TransportError{StatusCode: status, Body: truncate(body, 2000)}, nil
}

// postJSON posts a JSON body and returns the status, raw body, and the
// parsed payload when the response declares a JSON content type.
func (c *Client) postJSON(ctx context.Context, url string, body any) (int, string, *downloadPayload, error) {
	if body == nil {
		body = map[string]string{}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, "", nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.basicAuth)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("country", c.country)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", nil, fmt.Errorf("reading response body: %w", err)
	}

	var payload *downloadPayload
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/json") {
		var p downloadPayload
		if err := json.Unmarshal(raw, &p); err == nil {
			payload = &p
		} else {
			c.log.Warn("response declared JSON but did not parse",
				zap.String("url", url),
				zap.Error(err))
		}
	}
	return resp.StatusCode, string(raw), payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
