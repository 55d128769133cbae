package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const defaultCheckTimeout = 5 * time.Second

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckerRegistry struct {
	checkers []Checker
	timeout  time.Duration
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{
		checkers: make([]Checker, 0),
		timeout:  defaultCheckTimeout,
	}
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, checker)
}

// Check runs every checker concurrently, each bounded by the registry timeout.
// The overall status is unhealthy as soon as one checker fails.
func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult, len(r.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range r.checkers {
		wg.Add(1)
		go func(checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			result := CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
			if err := checker.Check(checkCtx); err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
			}

			mu.Lock()
			results[checker.Name()] = result
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	overallStatus := StatusHealthy
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
	}

	return Health{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// Handler serves the registry as JSON: 200 when healthy, 500 otherwise.
func Handler(registry *CheckerRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := registry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == StatusUnhealthy {
			statusCode = http.StatusInternalServerError
		}
		c.JSON(statusCode, h)
	}
}

// LivenessProber is anything that can report whether its backend is reachable.
type LivenessProber interface {
	Name() string
	CheckLiveness(ctx context.Context) error
}

type SinkChecker struct {
	sink LivenessProber
}

func NewSinkChecker(sink LivenessProber) *SinkChecker {
	return &SinkChecker{sink: sink}
}

func (c *SinkChecker) Name() string {
	return "sink:" + c.sink.Name()
}

func (c *SinkChecker) Check(ctx context.Context) error {
	if err := c.sink.CheckLiveness(ctx); err != nil {
		return fmt.Errorf("%s sink unreachable: %w", c.sink.Name(), err)
	}
	return nil
}
