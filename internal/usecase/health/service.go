package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine   EnginePinger
	rewriter RewriterChecker
}

// New creates a Service. rewriter can be nil.
func New(engine EnginePinger, rewriter RewriterChecker) *Service {
	return &Service{engine: engine, rewriter: rewriter}
}

// Check runs health checks against all components. A failing engine makes
// the whole report Unhealthy; a failing rewriter only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	status := Healthy
	if s.engine.Ping(ctx) {
		checks["solr"] = CheckOK
	} else {
		checks["solr"] = CheckError
		status = Unhealthy
	}

	if s.rewriter != nil {
		if err := s.rewriter.HealthCheck(ctx); err != nil {
			checks["rewriter"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["rewriter"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
