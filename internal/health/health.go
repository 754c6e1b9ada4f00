// Package health evaluates and serves the aggregation service's health.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Mode indicates high-level health mode.
type Mode string

const (
	// ModeHealthy indicates all required components are healthy.
	ModeHealthy Mode = "healthy"
	// ModeDegraded indicates the service is up but results are stale or a
	// non-essential component is down.
	ModeDegraded Mode = "degraded"
	// ModeUnhealthy indicates a required component is unhealthy.
	ModeUnhealthy Mode = "unhealthy"
)

// Input represents component states used for health evaluation.
type Input struct {
	// StoreHealthy reports whether the results store is reachable.
	StoreHealthy bool
	// ResultsPresent reports whether at least one results document exists.
	ResultsPresent bool
	// LastRefresh is when results were last rebuilt; zero when never.
	LastRefresh time.Time
	// MaxResultAge marks results older than this as stale. Zero disables
	// the staleness check.
	MaxResultAge time.Duration
}

// Status represents evaluated service health.
type Status struct {
	Mode       Mode            `json:"mode"`
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

// Provider supplies current health status.
type Provider interface {
	CurrentStatus(ctx context.Context) Status
}

// StatusEvaluator evaluates readiness and staleness from component state.
type StatusEvaluator struct {
	now func() time.Time
}

// NewStatusEvaluator creates a health evaluator.
func NewStatusEvaluator() *StatusEvaluator {
	return &StatusEvaluator{now: time.Now}
}

// Evaluate evaluates readiness and mode from component state.
func (e *StatusEvaluator) Evaluate(input Input) Status {
	fresh := true
	if input.MaxResultAge > 0 {
		fresh = !input.LastRefresh.IsZero() && e.now().Sub(input.LastRefresh) <= input.MaxResultAge
	}

	components := map[string]bool{
		"store":           input.StoreHealthy,
		"results_present": input.ResultsPresent,
		"results_fresh":   fresh,
	}

	ready := input.StoreHealthy && input.ResultsPresent

	mode := ModeHealthy
	if !ready {
		mode = ModeUnhealthy
	} else if !fresh {
		mode = ModeDegraded
	}

	return Status{
		Mode:       mode,
		Ready:      ready,
		Components: components,
	}
}

// NewHandler returns the health HTTP handler with /livez, /readyz, and
// /healthz endpoints.
func NewHandler(provider Provider) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			return
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := provider.CurrentStatus(r.Context())
		if status.Ready {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("ready")); err != nil {
				return
			}
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("not ready")); err != nil {
			return
		}
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := provider.CurrentStatus(r.Context())
		payload, err := json.Marshal(status)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			if _, writeErr := w.Write([]byte(`{"mode":"unhealthy","error":"marshal health status"}`)); writeErr != nil {
				return
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload); err != nil {
			return
		}
	})

	return mux
}
