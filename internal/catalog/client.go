// Package catalog is the typed boundary to the external property data
// service. All catalog records are owned remotely; this client issues
// reads and writes but never invents identifiers and never retries.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"listing-portal/internal/models"
)

// Filter is the push-down predicate set the catalog service can evaluate
// itself. Criteria outside this set must be applied by the search engine
// after retrieval.
type Filter struct {
	CityID     *uint
	CategoryID *uint
	MaxPrice   *float64
	Query      string
	Featured   *bool
}

// IsEmpty reports whether no predicate is set
func (f Filter) IsEmpty() bool {
	return f.CityID == nil && f.CategoryID == nil && f.MaxPrice == nil &&
		f.Query == "" && f.Featured == nil
}

// RecordSpec is the payload for creating a catalog record
type RecordSpec struct {
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Price       *float64             `json:"price,omitempty"`
	Status      models.CatalogStatus `json:"status"`
	Bedrooms    *int                 `json:"bedrooms,omitempty"`
	Bathrooms   *int                 `json:"bathrooms,omitempty"`
	Area        *float64             `json:"area,omitempty"`
	Address     string               `json:"address,omitempty"`
	AgentID     uint                 `json:"agent_id"`
	CityID      uint                 `json:"city_id"`
	CategoryID  uint                 `json:"category_id"`
	Featured    bool                 `json:"featured"`
	Images      []string             `json:"images,omitempty"`
}

// RecordPatch is a partial update; nil fields are left untouched remotely
type RecordPatch struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Price       *float64              `json:"price,omitempty"`
	Status      *models.CatalogStatus `json:"status,omitempty"`
	Bedrooms    *int                  `json:"bedrooms,omitempty"`
	Bathrooms   *int                  `json:"bathrooms,omitempty"`
	Area        *float64              `json:"area,omitempty"`
	Address     *string               `json:"address,omitempty"`
	Featured    *bool                 `json:"featured,omitempty"`
	Images      []string              `json:"images,omitempty"`
}

// ClientConfig holds catalog client settings
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the remote catalog service over HTTP
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a catalog client with a bounded per-call timeout
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// ListAll retrieves all catalog records matching the push-down filter
func (c *Client) ListAll(filter Filter) ([]models.CatalogRecord, error) {
	params := url.Values{}
	if filter.CityID != nil {
		params.Set("city_id", strconv.FormatUint(uint64(*filter.CityID), 10))
	}
	if filter.CategoryID != nil {
		params.Set("category_id", strconv.FormatUint(uint64(*filter.CategoryID), 10))
	}
	if filter.MaxPrice != nil {
		params.Set("max_price", strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Query != "" {
		params.Set("q", filter.Query)
	}
	if filter.Featured != nil {
		params.Set("featured", strconv.FormatBool(*filter.Featured))
	}

	endpoint := c.baseURL + "/records"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var records []models.CatalogRecord
	if err := c.doJSON("listAll", http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByID retrieves a single catalog record
func (c *Client) GetByID(id int64) (*models.CatalogRecord, error) {
	var record models.CatalogRecord
	endpoint := fmt.Sprintf("%s/records/%d", c.baseURL, id)
	if err := c.doJSON("getById", http.MethodGet, endpoint, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create submits a new catalog record; the remote service assigns the id
func (c *Client) Create(spec RecordSpec) (*models.CatalogRecord, error) {
	var record models.CatalogRecord
	if err := c.doJSON("create", http.MethodPost, c.baseURL+"/records", spec, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update applies a partial update and returns the post-write record
func (c *Client) Update(id int64, patch RecordPatch) (*models.CatalogRecord, error) {
	var record models.CatalogRecord
	endpoint := fmt.Sprintf("%s/records/%d", c.baseURL, id)
	if err := c.doJSON("update", http.MethodPatch, endpoint, patch, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a catalog record
func (c *Client) Delete(id int64) error {
	endpoint := fmt.Sprintf("%s/records/%d", c.baseURL, id)
	return c.doJSON("delete", http.MethodDelete, endpoint, nil, nil)
}

// countResponse is the remote count endpoint's response shape
type countResponse struct {
	Count int `json:"count"`
}

// CountByAgent returns how many of an agent's records carry one of the
// given statuses. This is the bulk query the reconciliation job uses so
// it never pulls full record bodies per agent.
func (c *Client) CountByAgent(agentID uint, statuses []models.CatalogStatus) (int, error) {
	params := url.Values{}
	params.Set("agent_id", strconv.FormatUint(uint64(agentID), 10))
	if len(statuses) > 0 {
		parts := make([]string, len(statuses))
		for i, s := range statuses {
			parts[i] = string(s)
		}
		params.Set("status", strings.Join(parts, ","))
	}

	var resp countResponse
	endpoint := c.baseURL + "/records/count?" + params.Encode()
	if err := c.doJSON("countByAgent", http.MethodGet, endpoint, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// remoteErrorBody is the catalog service's error response shape
type remoteErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doJSON performs one HTTP round trip and maps the outcome onto the
// client's error taxonomy. out may be nil for calls without a body.
func (c *Client) doJSON(op, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("catalog %s: marshaling request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return fmt.Errorf("catalog %s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("catalog %s: %w", op, ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the remote rejection reason verbatim where possible
		var reason remoteErrorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if jsonErr := json.Unmarshal(raw, &reason); jsonErr != nil || (reason.Error == "" && reason.Message == "") {
			reason.Message = strings.TrimSpace(string(raw))
		}
		msg := reason.Message
		if msg == "" {
			msg = reason.Error
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog %s: decoding response: %w", op, err)
	}
	return nil
}
