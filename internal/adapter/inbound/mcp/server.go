// Package mcp exposes job orchestration and semantic search as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"entitysync/internal/application/dto"
	"entitysync/internal/port/inbound"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Deps holds dependencies for the MCP server.
type Deps struct {
	Jobs    inbound.JobService
	Search  inbound.SearchService
	Name    string
	Version string
}

// NewServer creates an MCP server with all entitysync tools registered.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		deps.Name,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("entitysync runs background entity sync and embedding jobs and serves semantic search over the results."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("sync_entities",
			mcp.WithDescription("Start a background job that syncs records for the given entity types from the external system. Returns the job id immediately."),
			mcp.WithArray("entity_types", mcp.Description("Entity types to sync, processed in order"), mcp.Required()),
			mcp.WithString("batch_size", mcp.Description("Items per batch (default 50)")),
			mcp.WithString("updated_since", mcp.Description("Only sync records updated after this RFC 3339 timestamp")),
		),
		toolSubmitJob(deps, "sync"),
	)

	s.AddTool(
		mcp.NewTool("generate_embeddings",
			mcp.WithDescription("Start a background job that generates vector embeddings for records of the given entity types. Returns the job id immediately."),
			mcp.WithArray("entity_types", mcp.Description("Entity types to embed, processed in order"), mcp.Required()),
			mcp.WithString("batch_size", mcp.Description("Items per batch (default 10)")),
		),
		toolSubmitJob(deps, "embedding"),
	)

	s.AddTool(
		mcp.NewTool("get_job_progress",
			mcp.WithDescription("Get the status, progress percent, counts, and last error of a job."),
			mcp.WithString("job_id", mcp.Description("Job id returned by sync_entities or generate_embeddings"), mcp.Required()),
		),
		toolJobProgress(deps),
	)

	s.AddTool(
		mcp.NewTool("pause_job",
			mcp.WithDescription("Pause a running job at its next batch boundary. Counts for completed work are preserved."),
			mcp.WithString("job_id", mcp.Description("Job id"), mcp.Required()),
		),
		toolCancelJob(deps, false),
	)

	s.AddTool(
		mcp.NewTool("stop_job",
			mcp.WithDescription("Stop a job. The job ends in the failed status with partial counts preserved."),
			mcp.WithString("job_id", mcp.Description("Job id"), mcp.Required()),
		),
		toolCancelJob(deps, true),
	)

	s.AddTool(
		mcp.NewTool("list_active_jobs",
			mcp.WithDescription("List all pending, running, and paused jobs."),
		),
		toolListActiveJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("get_job_history",
			mcp.WithDescription("Get the audit trail of a job, newest first."),
			mcp.WithString("job_id", mcp.Description("Job id"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 50)")),
		),
		toolJobHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("semantic_search",
			mcp.WithDescription("Search stored entity vectors by meaning. Falls back to substring matching when the vector backend is unavailable."),
			mcp.WithString("query", mcp.Description("Search query text"), mcp.Required()),
			mcp.WithArray("entity_types", mcp.Description("Restrict results to these entity types")),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
			mcp.WithNumber("threshold", mcp.Description("Minimum similarity score, 0 to 1")),
		),
		toolSemanticSearch(deps),
	)

	s.AddTool(
		mcp.NewTool("upsert_vector",
			mcp.WithDescription("Store a precomputed vector for an entity, overwriting any existing one. The vector is normalized to unit magnitude."),
			mcp.WithString("entity_type", mcp.Description("Entity type"), mcp.Required()),
			mcp.WithString("entity_id", mcp.Description("Entity id"), mcp.Required()),
			mcp.WithArray("vector", mcp.Description("Vector components, matching the configured dimensions"), mcp.Required()),
			mcp.WithString("source_text", mcp.Description("Text the vector was derived from, used by the fallback search path")),
		),
		toolUpsertVector(deps),
	)

	s.AddTool(
		mcp.NewTool("get_vector",
			mcp.WithDescription("Fetch the stored vector record for an entity."),
			mcp.WithString("entity_type", mcp.Description("Entity type"), mcp.Required()),
			mcp.WithString("entity_id", mcp.Description("Entity id"), mcp.Required()),
		),
		toolGetVector(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_vector",
			mcp.WithDescription("Delete the stored vector record for an entity."),
			mcp.WithString("entity_type", mcp.Description("Entity type"), mcp.Required()),
			mcp.WithString("entity_id", mcp.Description("Entity id"), mcp.Required()),
		),
		toolDeleteVector(deps),
	)

	return s
}

func toolSubmitJob(deps Deps, kind string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entityTypes := req.GetStringSlice("entity_types", nil)
		if len(entityTypes) == 0 {
			return toolError("entity_types is required"), nil
		}

		options := make(map[string]string)
		if batchSize := req.GetString("batch_size", ""); batchSize != "" {
			options[dto.OptionBatchSize] = batchSize
		}
		if updatedSince := req.GetString("updated_since", ""); updatedSince != "" {
			options[dto.OptionUpdatedSince] = updatedSince
		}

		jobID, err := deps.Jobs.SubmitJob(ctx, dto.SubmitJobRequest{
			Kind:        kind,
			EntityTypes: entityTypes,
			Options:     options,
		})
		if err != nil {
			return toolError(fmt.Sprintf("failed to submit job: %v", err)), nil
		}
		return toolText(fmt.Sprintf(`{"job_id":%q}`, jobID)), nil
	}
}

func toolJobProgress(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, result := requireJobID(req)
		if result != nil {
			return result, nil
		}

		snapshot, err := deps.Jobs.GetJobProgress(ctx, jobID)
		if err != nil {
			return toolError(fmt.Sprintf("failed to get job progress: %v", err)), nil
		}
		if snapshot == nil {
			return toolError(fmt.Sprintf("job %s not found", jobID)), nil
		}
		return toolJSON(snapshot)
	}
}

func toolCancelJob(deps Deps, stop bool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, result := requireJobID(req)
		if result != nil {
			return result, nil
		}

		var err error
		if stop {
			err = deps.Jobs.StopJob(ctx, jobID)
		} else {
			err = deps.Jobs.PauseJob(ctx, jobID)
		}
		if err != nil {
			return toolError(fmt.Sprintf("failed to cancel job: %v", err)), nil
		}
		if stop {
			return toolText(fmt.Sprintf("Stop requested for job %s", jobID)), nil
		}
		return toolText(fmt.Sprintf("Pause requested for job %s", jobID)), nil
	}
}

func toolListActiveJobs(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobs, err := deps.Jobs.ListActiveJobs(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("failed to list active jobs: %v", err)), nil
		}
		if len(jobs) == 0 {
			return toolText("[]"), nil
		}
		return toolJSON(jobs)
	}
}

func toolJobHistory(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, result := requireJobID(req)
		if result != nil {
			return result, nil
		}

		entries, err := deps.Jobs.GetJobHistory(ctx, jobID, req.GetInt("limit", 0))
		if err != nil {
			return toolError(fmt.Sprintf("failed to get job history: %v", err)), nil
		}
		if len(entries) == 0 {
			return toolText("[]"), nil
		}
		return toolJSON(entries)
	}
}

func toolSemanticSearch(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return toolError("query is required"), nil
		}

		response, err := deps.Search.Search(ctx, dto.SearchRequest{
			QueryText:  query,
			TypeFilter: req.GetStringSlice("entity_types", nil),
			Limit:      req.GetInt("limit", 0),
			Threshold:  req.GetFloat("threshold", 0),
		})
		if err != nil {
			return toolError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return toolJSON(response)
	}
}

func toolUpsertVector(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entityType, entityID, result := requireVectorKey(req)
		if result != nil {
			return result, nil
		}

		raw, ok := req.GetArguments()["vector"].([]any)
		if !ok || len(raw) == 0 {
			return toolError("vector is required and must be an array of numbers"), nil
		}
		vector := make([]float64, len(raw))
		for i, component := range raw {
			value, isNumber := component.(float64)
			if !isNumber {
				return toolError(fmt.Sprintf("vector component %d is not a number", i)), nil
			}
			vector[i] = value
		}

		err := deps.Search.UpsertVector(ctx, dto.VectorRecordDTO{
			EntityType: entityType,
			EntityID:   entityID,
			Vector:     vector,
			SourceText: req.GetString("source_text", ""),
		})
		if err != nil {
			return toolError(fmt.Sprintf("failed to upsert vector: %v", err)), nil
		}
		return toolText(fmt.Sprintf("Stored vector for %s/%s", entityType, entityID)), nil
	}
}

func toolGetVector(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entityType, entityID, result := requireVectorKey(req)
		if result != nil {
			return result, nil
		}

		record, err := deps.Search.GetVector(ctx, entityType, entityID)
		if err != nil {
			return toolError(fmt.Sprintf("failed to get vector: %v", err)), nil
		}
		if record == nil {
			return toolError(fmt.Sprintf("no vector stored for %s/%s", entityType, entityID)), nil
		}
		return toolJSON(record)
	}
}

func toolDeleteVector(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entityType, entityID, result := requireVectorKey(req)
		if result != nil {
			return result, nil
		}

		if err := deps.Search.DeleteVector(ctx, entityType, entityID); err != nil {
			return toolError(fmt.Sprintf("failed to delete vector: %v", err)), nil
		}
		return toolText(fmt.Sprintf("Deleted vector for %s/%s", entityType, entityID)), nil
	}
}

func requireJobID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("job_id")
	if err != nil {
		return uuid.Nil, toolError("job_id is required")
	}
	jobID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, toolError(fmt.Sprintf("invalid job_id %q", raw))
	}
	return jobID, nil
}

func requireVectorKey(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	entityType, err := req.RequireString("entity_type")
	if err != nil {
		return "", "", toolError("entity_type is required")
	}
	entityID, err := req.RequireString("entity_id")
	if err != nil {
		return "", "", toolError("entity_id is required")
	}
	return entityType, entityID, nil
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return toolText(string(b)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
