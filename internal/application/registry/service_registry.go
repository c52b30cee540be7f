// Package registry provides service registration and dependency injection
// for the application.
package registry

import (
	"entitysync/internal/application/service"
	"entitysync/internal/port/outbound"
)

// ServiceRegistry provides centralized service creation and management.
// It acts as a service factory ensuring consistent dependency injection
// patterns across the application.
type ServiceRegistry struct {
	jobStore   outbound.JobStore
	vectors    outbound.VectorStore
	provider   outbound.EntityProvider
	upserter   outbound.Upserter
	vectorizer outbound.Vectorizer
	metrics    *service.JobMetrics

	orchestrator *service.JobOrchestrator
}

// NewServiceRegistry creates a new service registry with required
// dependencies. All dependencies except metrics must be non-nil or the
// function will panic.
func NewServiceRegistry(
	jobStore outbound.JobStore,
	vectors outbound.VectorStore,
	provider outbound.EntityProvider,
	upserter outbound.Upserter,
	vectorizer outbound.Vectorizer,
	metrics *service.JobMetrics,
) *ServiceRegistry {
	if jobStore == nil {
		panic("jobStore cannot be nil")
	}
	if vectors == nil {
		panic("vectors cannot be nil")
	}
	if provider == nil {
		panic("provider cannot be nil")
	}
	if upserter == nil {
		panic("upserter cannot be nil")
	}
	if vectorizer == nil {
		panic("vectorizer cannot be nil")
	}

	return &ServiceRegistry{
		jobStore:   jobStore,
		vectors:    vectors,
		provider:   provider,
		upserter:   upserter,
		vectorizer: vectorizer,
		metrics:    metrics,
	}
}

// JobOrchestrator returns the shared orchestrator instance. Jobs submitted
// through different surfaces must land in the same registry and event bus,
// so this one is a singleton rather than a per-call factory.
func (r *ServiceRegistry) JobOrchestrator() *service.JobOrchestrator {
	if r.orchestrator == nil {
		r.orchestrator = service.NewJobOrchestrator(service.JobOrchestratorDeps{
			Store:      r.jobStore,
			Provider:   r.provider,
			Upserter:   r.upserter,
			Vectorizer: r.vectorizer,
			Vectors:    r.vectors,
			Metrics:    r.metrics,
		})
	}
	return r.orchestrator
}

// SearchService returns a configured VectorSearchService instance.
func (r *ServiceRegistry) SearchService() *service.VectorSearchService {
	return service.NewVectorSearchService(r.vectors, r.vectorizer)
}
