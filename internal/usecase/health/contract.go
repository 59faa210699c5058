package health

import "context"

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) bool
}

// RewriterChecker checks query rewriter availability.
type RewriterChecker interface {
	HealthCheck(ctx context.Context) error
}
