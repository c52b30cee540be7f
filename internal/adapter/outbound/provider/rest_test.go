package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"entitysync/internal/domain/entity"
	"entitysync/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRESTFixture(t *testing.T, handler http.HandlerFunc) *RESTProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTProvider(RESTConfig{
		BaseURL:     srv.URL,
		EntityTypes: []string{"contacts"},
	})
}

func TestRESTProvider_FetchPage(t *testing.T) {
	var gotPath, gotSince string
	p := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSince = r.URL.Query().Get("updated_since")
		json.NewEncoder(w).Encode([]restRecord{
			{ID: "c-1", Name: "Ada", Description: "Analyst", Fields: map[string]string{"email": "ada@example.com"}},
		})
	})

	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records, err := p.FetchPage(context.Background(), "contacts", outbound.FetchFilter{UpdatedSince: &since})
	require.NoError(t, err)

	assert.Equal(t, "/contacts", gotPath)
	assert.Equal(t, "2026-08-01T12:00:00Z", gotSince)
	require.Len(t, records, 1)
	assert.Equal(t, "c-1", records[0].ID)
	assert.Equal(t, "ada@example.com", records[0].Fields["email"])
}

func TestRESTProvider_FetchPageErrorStatus(t *testing.T) {
	p := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream boom", http.StatusBadGateway)
	})

	_, err := p.FetchPage(context.Background(), "contacts", outbound.FetchFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream boom")
}

func TestRESTProvider_Apply(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody restRecord
	p := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})

	err := p.Apply(context.Background(), "contacts", entity.EntityRecord{ID: "c-1", Name: "Ada"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/contacts/c-1", gotPath)
	assert.Equal(t, "Ada", gotBody.Name)
}

func TestRESTProvider_ApplyErrorStatus(t *testing.T) {
	p := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	})

	err := p.Apply(context.Background(), "contacts", entity.EntityRecord{ID: "c-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestRESTProvider_Supports(t *testing.T) {
	p := NewRESTProvider(RESTConfig{BaseURL: "http://example.com", EntityTypes: []string{"contacts"}})

	assert.True(t, p.Supports("contacts"))
	assert.False(t, p.Supports("deals"))
}
