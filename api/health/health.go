// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health serves the results of named health checks.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
)

const (
	// AllTag is reported for every check
	AllTag = "all"
	// ApplicationTag is reported for checks of the hosted VM
	ApplicationTag = "application"

	checkTimeout = 5 * time.Second
)

var errDuplicateCheck = errors.New("duplicated check")

// CheckerFunc reports the health of one component. A nil error is healthy.
type CheckerFunc func(context.Context) (interface{}, error)

// Result is the latest outcome of a check.
type Result struct {
	Details   interface{} `json:"message,omitempty"`
	Error     *string     `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Duration  int64       `json:"duration"`
}

// APIReply is written by the handler.
type APIReply struct {
	Checks  map[string]Result `json:"checks"`
	Healthy bool              `json:"healthy"`
}

type check struct {
	name    string
	tag     string
	checker CheckerFunc
}

// Health runs checks on every request.
type Health struct {
	log     log.Logger
	metrics *healthMetrics

	lock   sync.RWMutex
	checks map[string]check
}

func New(logger log.Logger, reg metric.Metrics) *Health {
	return &Health{
		log:     logger,
		metrics: newMetrics(reg),
		checks:  make(map[string]check),
	}
}

// RegisterCheck adds a check reported under [tag].
func (h *Health) RegisterCheck(name, tag string, checker CheckerFunc) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.checks[name]; ok {
		return fmt.Errorf("%w: %q", errDuplicateCheck, name)
	}
	h.checks[name] = check{
		name:    name,
		tag:     tag,
		checker: checker,
	}
	return nil
}

// Check runs every check and reports whether all of them passed.
func (h *Health) Check(ctx context.Context) (map[string]Result, bool) {
	h.lock.RLock()
	checks := make([]check, 0, len(h.checks))
	for _, c := range h.checks {
		checks = append(checks, c)
	}
	h.lock.RUnlock()
	sort.Slice(checks, func(i, j int) bool {
		return checks[i].name < checks[j].name
	})

	var (
		results = make(map[string]Result, len(checks))
		failing = make(map[string]int)
	)
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		details, err := c.checker(ctx)
		cancel()

		result := Result{
			Details:   details,
			Timestamp: start,
			Duration:  time.Since(start).Nanoseconds(),
		}
		if err != nil {
			errString := err.Error()
			result.Error = &errString
			failing[AllTag]++
			failing[c.tag]++
			h.log.Warn("health check failed",
				log.String("name", c.name),
				log.Err(err),
			)
		}
		results[c.name] = result
	}

	h.metrics.failingChecks.WithLabelValues(AllTag).Set(float64(failing[AllTag]))
	h.metrics.failingChecks.WithLabelValues(ApplicationTag).Set(float64(failing[ApplicationTag]))
	return results, failing[AllTag] == 0
}

// ServeHTTP writes the check results. Unhealthy replies use status 503.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks, healthy := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	err := json.NewEncoder(w).Encode(APIReply{
		Checks:  checks,
		Healthy: healthy,
	})
	if err != nil {
		h.log.Debug("failed to encode the health check response",
			log.Err(err),
		)
	}
}
