// Package client is a Go client for the goprofiles HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TimurManjosov/goprofiles/internal/profile"
	"github.com/TimurManjosov/goprofiles/internal/store"
)

// ErrNotFound matches API errors with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API error (status %d", e.StatusCode)
	if e.Code != "" {
		msg += ", " + e.Code
	}
	msg += "): " + e.Message
	for field, problem := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", field, problem)
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Profiles is the registered provider listing.
type Profiles struct {
	ETag        string                          `json:"etag"`
	UpdatedAt   time.Time                       `json:"updatedAt"`
	Definitions int                             `json:"definitions"`
	Skipped     map[string]string               `json:"skipped,omitempty"`
	Tiers       map[profile.Tier][]profile.Info `json:"tiers"`
}

// ResolveRequest asks for a full resolution of a data source and its records.
type ResolveRequest struct {
	SolutionNavID *string            `json:"solutionNavId,omitempty"`
	DataSource    profile.DataSource `json:"dataSource"`
	Query         *profile.Query     `json:"query,omitempty"`
	DataView      *profile.DataView  `json:"dataView,omitempty"`
	Records       []profile.Record   `json:"records"`
	Density       profile.Density    `json:"density,omitempty"`
	RowHeight     int                `json:"rowHeight,omitempty"`
}

type ResolveResponse struct {
	Root            profile.Resolved[profile.RootContext]       `json:"root"`
	DataSource      profile.Resolved[profile.DataSourceContext] `json:"dataSource"`
	CellRenderers   []string                                    `json:"cellRenderers"`
	LeadingControls []profile.RowControl                        `json:"leadingControls"`
	DefaultAppState *profile.DefaultAppState                    `json:"defaultAppState,omitempty"`
	Records         []RecordResult                              `json:"records"`
}

type RecordResult struct {
	ID              string                                    `json:"id"`
	Document        profile.Resolved[profile.DocumentContext] `json:"document"`
	RowIndicator    *profile.RowIndicator                     `json:"rowIndicator,omitempty"`
	LeadingControls []string                                  `json:"leadingControls,omitempty"`
	Cells           map[string]profile.Cell                   `json:"cells,omitempty"`
}

// ApplyResult is the outcome of storing a definition.
type ApplyResult struct {
	Created    bool              `json:"-"`
	ETag       string            `json:"etag"`
	Definition *store.Definition `json:"definition,omitempty"`
}

// Client is an HTTP client for the goprofiles API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Profiles(ctx context.Context) (*Profiles, error) {
	var out Profiles
	if _, err := c.do(ctx, http.MethodGet, "/v1/profiles", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error) {
	if req.Records == nil {
		req.Records = []profile.Record{}
	}
	var out ResolveResponse
	if _, err := c.do(ctx, http.MethodPost, "/v1/resolve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDefinitions(ctx context.Context) ([]store.Definition, error) {
	var out struct {
		Definitions []store.Definition `json:"definitions"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/definitions", nil, &out); err != nil {
		return nil, err
	}
	return out.Definitions, nil
}

// GetDefinition returns an error matching ErrNotFound when id does not exist.
func (c *Client) GetDefinition(ctx context.Context, id string) (*store.Definition, error) {
	var out store.Definition
	if _, err := c.do(ctx, http.MethodGet, "/v1/definitions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyDefinition creates or replaces a definition.
func (c *Client) ApplyDefinition(ctx context.Context, def store.Definition) (*ApplyResult, error) {
	var out ApplyResult
	status, err := c.do(ctx, http.MethodPost, "/v1/definitions", def, &out)
	if err != nil {
		return nil, err
	}
	out.Created = status == http.StatusCreated
	return &out, nil
}

// DeleteDefinition returns the ETag of the registry after the deletion.
func (c *Client) DeleteDefinition(ctx context.Context, id string) (string, error) {
	var out struct {
		ETag string `json:"etag"`
	}
	if _, err := c.do(ctx, http.MethodDelete, "/v1/definitions/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.ETag, nil
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
