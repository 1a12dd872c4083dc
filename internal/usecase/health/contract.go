package health

import "context"

// DBPinger checks catalog store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SearchChecker checks search service reachability.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}
