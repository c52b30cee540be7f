package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"entitysync/internal/domain/entity"
	"entitysync/internal/port/outbound"
)

const defaultHTTPTimeout = 30 * time.Second

// RESTConfig configures a RESTProvider.
type RESTConfig struct {
	// BaseURL is the external system's API root, e.g. https://crm.example.com/api.
	BaseURL string
	// EntityTypes lists the types the external system exposes.
	EntityTypes []string
	// Timeout bounds each request; zero means defaultHTTPTimeout.
	Timeout time.Duration
}

// RESTProvider fetches candidate records from, and applies upserts to, an
// external system over HTTP. Record pages live at GET /{entityType} and
// upserts go to PUT /{entityType}/{id}.
type RESTProvider struct {
	baseURL string
	types   map[string]bool
	client  *http.Client
}

// NewRESTProvider creates a provider for the configured external system.
func NewRESTProvider(config RESTConfig) *RESTProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	types := make(map[string]bool, len(config.EntityTypes))
	for _, t := range config.EntityTypes {
		types[t] = true
	}
	return &RESTProvider{
		baseURL: config.BaseURL,
		types:   types,
		client:  &http.Client{Timeout: timeout},
	}
}

// Supports reports whether the entity type is configured for this system.
func (p *RESTProvider) Supports(entityType string) bool {
	return p.types[entityType]
}

type restRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// FetchPage retrieves the record page for the entity type. The incremental
// filter is passed through as an updated_since query parameter in RFC 3339.
func (p *RESTProvider) FetchPage(ctx context.Context, entityType string, filter outbound.FetchFilter) ([]entity.EntityRecord, error) {
	endpoint, err := url.JoinPath(p.baseURL, entityType)
	if err != nil {
		return nil, fmt.Errorf("build %s url: %w", entityType, err)
	}
	if filter.UpdatedSince != nil {
		endpoint += "?updated_since=" + url.QueryEscape(filter.UpdatedSince.Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", entityType, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entityType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s: unexpected status %d: %s", entityType, resp.StatusCode, body)
	}

	var page []restRecord
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", entityType, err)
	}

	records := make([]entity.EntityRecord, len(page))
	for i, r := range page {
		records[i] = entity.EntityRecord{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Fields:      r.Fields,
		}
	}
	return records, nil
}

// Apply upserts one record into the external system.
func (p *RESTProvider) Apply(ctx context.Context, entityType string, record entity.EntityRecord) error {
	endpoint, err := url.JoinPath(p.baseURL, entityType, record.ID)
	if err != nil {
		return fmt.Errorf("build %s/%s url: %w", entityType, record.ID, err)
	}

	payload, err := json.Marshal(restRecord{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Fields:      record.Fields,
	})
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", entityType, record.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s/%s request: %w", entityType, record.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", entityType, record.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upsert %s/%s: unexpected status %d: %s", entityType, record.ID, resp.StatusCode, body)
	}
	return nil
}
