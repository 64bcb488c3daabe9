// Package health aggregates component availability checks into a single
// readiness report.
package health

import (
	"context"
	"fmt"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the index is reachable but the collection
	// does not exist.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index       IndexPinger
	embedding   EmbeddingChecker
	collections []string
}

// New creates a Service. embedding can be nil.
func New(index IndexPinger, embedding EmbeddingChecker, collections []string) *Service {
	return &Service{index: index, embedding: embedding, collections: collections}
}

// Check runs health checks against all components. Each configured
// collection is reported individually so a missing collection shows up
// before the first failed search.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.index.Ping(ctx); err != nil {
		checks["qdrant"] = CheckError
	} else {
		checks["qdrant"] = CheckOK
		for _, name := range s.collections {
			key := fmt.Sprintf("collection:%s", name)
			exists, err := s.index.CollectionExists(ctx, name)
			switch {
			case err != nil:
				checks[key] = CheckError
			case !exists:
				checks[key] = CheckMissing
			default:
				checks[key] = CheckOK
			}
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
