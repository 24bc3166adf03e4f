package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/response"
)

// Probe statuses.
const (
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// Check is a named readiness dependency such as "redis" or "postgres".
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Health is the body returned by the probes.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Liveness answers 200 as long as the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = response.JSON(w, http.StatusOK, Health{Status: StatusAlive})
	}
}

// Readiness runs every check concurrently, each bounded by timeout, and answers
// 200 when all pass or 503 listing the failing ones.
func Readiness(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	checks = append([]Check(nil), checks...)
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		// Every check reports; one failure does not cancel the others.
		errs := make([]error, len(checks))
		var g errgroup.Group
		for i, c := range checks {
			g.Go(func() error {
				errs[i] = c.Fn(ctx)
				return nil
			})
		}
		_ = g.Wait()

		body := Health{Status: StatusReady, Checks: make(map[string]string, len(checks))}
		for i, c := range checks {
			if errs[i] != nil {
				body.Status = StatusNotReady
				body.Checks[c.Name] = "fail"
				log.WarnContext(ctx, "readiness check failed",
					logger.Component(c.Name), logger.Error(errs[i]))
				continue
			}
			body.Checks[c.Name] = "ok"
		}

		status := http.StatusOK
		if body.Status != StatusReady {
			status = http.StatusServiceUnavailable
		}
		_ = response.JSON(w, status, body)
	}
}
