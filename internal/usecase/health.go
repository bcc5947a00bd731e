package usecase

import (
	"context"
	"sync"
	"time"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthReport is the outcome of all checks. Checks maps a dependency to "ok" or its error.
type HealthReport struct {
	Status    string
	Timestamp time.Time
	Checks    map[string]string
}

// Healthy reports whether every check passed.
func (r *HealthReport) Healthy() bool { return r.Status == StatusHealthy }

// HealthUseCase runs dependency checks concurrently with a shared timeout.
type HealthUseCase struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthUseCase(timeout time.Duration, checks ...HealthCheck) *HealthUseCase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthUseCase{checks: checks, timeout: timeout}
}

func (uc *HealthUseCase) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	rep := &HealthReport{Status: StatusHealthy, Timestamp: time.Now().UTC(), Checks: make(map[string]string, len(uc.checks))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, hc := range uc.checks {
		wg.Add(1)
		go func(hc HealthCheck) {
			defer wg.Done()
			res := "ok"
			if err := hc.Check(ctx); err != nil {
				res = err.Error()
			}
			mu.Lock()
			rep.Checks[hc.Name] = res
			if res != "ok" {
				rep.Status = StatusDegraded
			}
			mu.Unlock()
		}(hc)
	}
	wg.Wait()
	return rep
}
