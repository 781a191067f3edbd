package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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
	pingers map[string]Pinger
}

// New creates a Service over named stores, e.g. "redis" and "postgres".
// Nil pingers are skipped.
func New(pingers map[string]Pinger) *Service {
	active := make(map[string]Pinger, len(pingers))
	for name, p := range pingers {
		if p != nil {
			active[name] = p
		}
	}
	return &Service{pingers: active}
}

// Check pings every store.
func (s *Service) Check(ctx context.Context) Report {
	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]CheckResult, len(names))
	failed := 0
	for _, name := range names {
		if err := s.pingers[name].Ping(ctx); err != nil {
			checks[name] = CheckError
			failed++
			continue
		}
		checks[name] = CheckOK
	}

	status := Healthy
	switch {
	case len(checks) > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
