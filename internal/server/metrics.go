package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/report"
	"github.com/oss-pulse/contrib-stats/internal/store"
)

// MetricPoint is one gauge sample derived from the published documents.
type MetricPoint struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshotter produces the current metric samples.
type Snapshotter interface {
	Snapshot(ctx context.Context) []MetricPoint
}

// NewMetricsHandler returns a /metrics handler backed by a snapshotter.
func NewMetricsHandler(snapshotter Snapshotter) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(&snapshotCollector{snapshotter: snapshotter})

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

type snapshotCollector struct {
	snapshotter Snapshotter
}

func (c *snapshotCollector) Describe(_ chan<- *prometheus.Desc) {}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.snapshotter == nil {
		return
	}

	for _, point := range c.snapshotter.Snapshot(context.Background()) {
		if point.Name == "" {
			continue
		}

		labelKeys := make([]string, 0, len(point.Labels))
		for key := range point.Labels {
			labelKeys = append(labelKeys, key)
		}
		sort.Strings(labelKeys)

		labelValues := make([]string, 0, len(labelKeys))
		for _, key := range labelKeys {
			labelValues = append(labelValues, point.Labels[key])
		}

		desc := prometheus.NewDesc(point.Name, point.Name, labelKeys, nil)
		metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, point.Value, labelValues...)
		if err != nil {
			continue
		}
		ch <- metric
	}
}

// storeSnapshotter derives gauges from the latest published documents.
type storeSnapshotter struct {
	store  store.Store
	prefix string
	logger *zap.Logger
}

func (s *storeSnapshotter) Snapshot(ctx context.Context) []MetricPoint {
	var points []MetricPoint
	points = append(points, s.contributorPoints(ctx)...)
	points = append(points, s.starPoints(ctx)...)
	points = append(points, s.freshnessPoints(ctx)...)
	return points
}

func (s *storeSnapshotter) contributorPoints(ctx context.Context) []MetricPoint {
	doc := s.readDocument(ctx, report.ContributorsDocument)
	if doc == nil {
		return nil
	}

	categories := map[string]string{
		s.prefix + "_code_contributors":      "code",
		s.prefix + "_community_contributors": "community",
		s.prefix + "_contributors":           "combined",
	}

	var points []MetricPoint
	for key, category := range categories {
		series, ok := doc[key]
		if !ok {
			continue
		}
		count, ok := lastCount(series, "contributors_count")
		if !ok {
			continue
		}
		points = append(points, MetricPoint{
			Name:   "contrib_stats_contributors",
			Labels: map[string]string{"category": category},
			Value:  count,
		})
	}
	return points
}

func (s *storeSnapshotter) starPoints(ctx context.Context) []MetricPoint {
	doc := s.readDocument(ctx, report.StarsDocument)
	if doc == nil {
		return nil
	}

	var points []MetricPoint
	for key, series := range doc {
		count, ok := lastCount(series, "star_count")
		if !ok {
			continue
		}
		if key == report.TotalStarsKey {
			points = append(points, MetricPoint{
				Name:  "contrib_stats_stars_total",
				Value: count,
			})
			continue
		}
		repo := strings.TrimSuffix(key, "_stars_history")
		points = append(points, MetricPoint{
			Name:   "contrib_stats_repo_stars",
			Labels: map[string]string{"repo": repo},
			Value:  count,
		})
	}
	return points
}

func (s *storeSnapshotter) freshnessPoints(ctx context.Context) []MetricPoint {
	payload, err := s.store.Get(ctx, report.RankingsDocument)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("read rankings document failed", zap.Error(err))
		}
		return nil
	}

	var doc struct {
		LastUpdated string `json:"last_updated"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.logger.Warn("parse rankings document failed", zap.Error(err))
		return nil
	}

	updated, err := time.Parse("2006-01-02", doc.LastUpdated)
	if err != nil {
		return nil
	}
	return []MetricPoint{{
		Name:  "contrib_stats_results_last_updated_timestamp_seconds",
		Value: float64(updated.UTC().Unix()),
	}}
}

func (s *storeSnapshotter) readDocument(ctx context.Context, name string) map[string][]map[string]any {
	payload, err := s.store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("read document failed", zap.String("document", name), zap.Error(err))
		}
		return nil
	}

	var doc map[string][]map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.logger.Warn("parse document failed", zap.String("document", name), zap.Error(err))
		return nil
	}
	return doc
}

func lastCount(series []map[string]any, field string) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	value, ok := series[len(series)-1][field].(float64)
	return value, ok
}
