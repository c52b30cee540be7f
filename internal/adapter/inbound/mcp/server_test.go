package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"entitysync/internal/adapter/outbound/embeddings/simple"
	"entitysync/internal/adapter/outbound/memory"
	"entitysync/internal/adapter/outbound/provider"
	"entitysync/internal/application/dto"
	"entitysync/internal/application/service"
	"entitysync/internal/domain/entity"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimensions = 8

func newTestDeps(t *testing.T) Deps {
	t.Helper()

	static := provider.NewStaticProvider()
	static.Load("contacts", []entity.EntityRecord{
		{ID: "c-1", Name: "Ada Lovelace", Description: "Analyst at Acme"},
		{ID: "c-2", Name: "Grace Hopper", Description: "Compiler pioneer"},
	})

	vectorizer := simple.NewVectorizer(testDimensions)
	vectors := memory.NewVectorStore()
	orchestrator := service.NewJobOrchestrator(service.JobOrchestratorDeps{
		Store:      memory.NewJobStore(),
		Provider:   static,
		Upserter:   static,
		Vectorizer: vectorizer,
		Vectors:    vectors,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = orchestrator.Shutdown(ctx)
	})

	return Deps{
		Jobs:    orchestrator,
		Search:  service.NewVectorSearchService(vectors, vectorizer),
		Name:    "entitysync-test",
		Version: "test",
	}
}

func makeRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return content.Text
}

func submitAndWait(t *testing.T, deps Deps, tool string, args map[string]any) string {
	t.Helper()

	handler := toolSubmitJob(deps, "sync")
	if tool == "generate_embeddings" {
		handler = toolSubmitJob(deps, "embedding")
	}
	result, err := handler(context.Background(), makeRequest(tool, args))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var response struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
	require.NotEmpty(t, response.JobID)

	progress := toolJobProgress(deps)
	require.Eventually(t, func() bool {
		r, progressErr := progress(context.Background(), makeRequest("get_job_progress", map[string]any{"job_id": response.JobID}))
		if progressErr != nil || r.IsError {
			return false
		}
		var snapshot dto.JobSnapshot
		if json.Unmarshal([]byte(resultText(t, r)), &snapshot) != nil {
			return false
		}
		return snapshot.Status == "completed"
	}, 3*time.Second, 10*time.Millisecond)

	return response.JobID
}

func TestTool_SyncEntities(t *testing.T) {
	deps := newTestDeps(t)

	jobID := submitAndWait(t, deps, "sync_entities", map[string]any{
		"entity_types": []any{"contacts"},
	})

	history := toolJobHistory(deps)
	result, err := history(context.Background(), makeRequest("get_job_history", map[string]any{"job_id": jobID}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var entries []dto.HistoryEntryDTO
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, entity.HistoryActionCompleted, entries[0].Action)
}

func TestTool_SyncEntities_MissingTypes(t *testing.T) {
	deps := newTestDeps(t)
	handler := toolSubmitJob(deps, "sync")

	result, err := handler(context.Background(), makeRequest("sync_entities", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTool_GetJobProgress_BadID(t *testing.T) {
	deps := newTestDeps(t)
	handler := toolJobProgress(deps)

	result, err := handler(context.Background(), makeRequest("get_job_progress", map[string]any{"job_id": "not-a-uuid"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid job_id")
}

func TestTool_SemanticSearch(t *testing.T) {
	deps := newTestDeps(t)
	submitAndWait(t, deps, "generate_embeddings", map[string]any{
		"entity_types": []any{"contacts"},
	})

	handler := toolSemanticSearch(deps)
	result, err := handler(context.Background(), makeRequest("semantic_search", map[string]any{
		"query": "Ada Lovelace\nAnalyst at Acme",
		"limit": 1,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var response dto.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
	require.Len(t, response.Results, 1)
	assert.Equal(t, "c-1", response.Results[0].EntityID)
	assert.False(t, response.Degraded)
}

func TestTool_VectorLifecycle(t *testing.T) {
	deps := newTestDeps(t)

	vector := make([]any, testDimensions)
	for i := range vector {
		vector[i] = 0.0
	}
	vector[0] = 2.0

	upsert := toolUpsertVector(deps)
	result, err := upsert(context.Background(), makeRequest("upsert_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
		"vector":      vector,
		"source_text": "manually stored",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	get := toolGetVector(deps)
	result, err = get(context.Background(), makeRequest("get_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var record dto.VectorRecordDTO
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &record))
	require.Len(t, record.Vector, testDimensions)
	assert.InDelta(t, 1.0, record.Vector[0], 1e-9)

	del := toolDeleteVector(deps)
	result, err = del(context.Background(), makeRequest("delete_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = get(context.Background(), makeRequest("get_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTool_UpsertVector_BadInput(t *testing.T) {
	deps := newTestDeps(t)
	handler := toolUpsertVector(deps)

	result, err := handler(context.Background(), makeRequest("upsert_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
		"vector":      []any{1.0, "oops"},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handler(context.Background(), makeRequest("upsert_vector", map[string]any{
		"entity_type": "contacts",
		"entity_id":   "c-9",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTool_ListActiveJobs_Empty(t *testing.T) {
	deps := newTestDeps(t)
	handler := toolListActiveJobs(deps)

	result, err := handler(context.Background(), makeRequest("list_active_jobs", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestNewServer(t *testing.T) {
	deps := newTestDeps(t)

	assert.NotNil(t, NewServer(deps))
}
