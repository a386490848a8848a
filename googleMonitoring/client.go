package googlemonitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ErrPushDisabled is returned by PushMetrics when no GCP project is configured.
var ErrPushDisabled = errors.New("cloud monitoring push disabled")

// MonitoringClient owns the service's prometheus registry. Metrics are created
// lazily by name on first use. When a GCP project is configured the registry
// can also be pushed to Cloud Monitoring as custom metrics.
type MonitoringClient struct {
	projectId  string
	client     *monitoring.MetricClient
	registry   *prometheus.Registry
	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewMonitoringClient creates the registry. projectId == "" keeps metrics
// local (served on /metrics only).
func NewMonitoringClient(ctx context.Context, projectId, jsonCredentialsStr string) (*MonitoringClient, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &MonitoringClient{
		projectId:  projectId,
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	if projectId == "" {
		return c, nil
	}

	var client *monitoring.MetricClient
	var err error
	if jsonCredentialsStr == "" {
		// for prod where you can fetch it from gcp service account
		client, err = monitoring.NewMetricClient(ctx)
	} else {
		client, err = monitoring.NewMetricClient(ctx, option.WithCredentialsJSON([]byte(jsonCredentialsStr)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Monitoring client: %w", err)
	}
	c.client = client
	return c, nil
}

// PushEnabled reports whether a Cloud Monitoring client was created.
func (c *MonitoringClient) PushEnabled() bool {
	return c.client != nil
}

func (c *MonitoringClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Handler serves the registry in the prometheus exposition format.
func (c *MonitoringClient) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Gatherer exposes the registry for tests.
func (c *MonitoringClient) Gatherer() prometheus.Gatherer {
	return c.registry
}

func (c *MonitoringClient) getOrCreateCounterVec(metricName string, labels []string) *prometheus.CounterVec {
	c.mu.RLock()
	counter, exists := c.counters[metricName]
	c.mu.RUnlock()
	if exists {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, exists = c.counters[metricName]; exists {
		return counter
	}
	counter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "Dynamically created counter",
	}, labels)
	c.registry.MustRegister(counter)
	c.counters[metricName] = counter
	return counter
}

func (c *MonitoringClient) getOrCreateHistogramVec(metricName string, labels []string) *prometheus.HistogramVec {
	c.mu.RLock()
	histogram, exists := c.histograms[metricName]
	c.mu.RUnlock()
	if exists {
		return histogram
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if histogram, exists = c.histograms[metricName]; exists {
		return histogram
	}
	histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "Dynamically created histogram",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, labels)
	c.registry.MustRegister(histogram)
	c.histograms[metricName] = histogram
	return histogram
}

// RecordCounter adds value to metricName. A metric must always be recorded
// with the same label names.
func (c *MonitoringClient) RecordCounter(metricName string, labels map[string]string, value float64) {
	labelNames, labelValues := splitLabels(labels)
	counter := c.getOrCreateCounterVec(metricName, labelNames)
	counter.WithLabelValues(labelValues...).Add(value)
}

func (c *MonitoringClient) RecordTimer(metricName string, labels map[string]string, duration time.Duration) {
	labelNames, labelValues := splitLabels(labels)
	histogram := c.getOrCreateHistogramVec(metricName, labelNames)
	histogram.WithLabelValues(labelValues...).Observe(duration.Seconds())
}

// splitLabels orders by label name; map iteration order would otherwise pair
// values with the wrong names on later calls.
func splitLabels(labels map[string]string) ([]string, []string) {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, labels[name])
	}
	return names, values
}

// StartPushLoop pushes the registry every interval until ctx is done.
func (c *MonitoringClient) StartPushLoop(ctx context.Context, interval time.Duration, onError func(error)) {
	if !c.PushEnabled() {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.PushMetrics(ctx); err != nil && onError != nil {
					onError(err)
				}
			}
		}
	}()
}

func (c *MonitoringClient) PushMetrics(ctx context.Context) error {
	if c.client == nil {
		return ErrPushDisabled
	}
	timeSeries, err := c.buildTimeSeries(time.Now())
	if err != nil {
		return err
	}
	if len(timeSeries) == 0 {
		return fmt.Errorf("no time series created")
	}

	if err := c.client.CreateTimeSeries(ctx, &monitoringpb.CreateTimeSeriesRequest{
		Name:       fmt.Sprintf("projects/%s", c.projectId),
		TimeSeries: timeSeries,
	}); err != nil {
		return fmt.Errorf("failed to write time series data: %w", err)
	}

	return nil
}

func (c *MonitoringClient) buildTimeSeries(now time.Time) ([]*monitoringpb.TimeSeries, error) {
	mfs, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var timeSeries []*monitoringpb.TimeSeries

	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), "go_") || strings.HasPrefix(mf.GetName(), "process_") || strings.HasPrefix(mf.GetName(), "promhttp_") {
			continue
		}

		for _, m := range mf.Metric {
			labels := make(map[string]string)
			for _, l := range m.Label {
				labels[l.GetName()] = l.GetValue()
			}

			var value float64
			switch {
			case m.Gauge != nil:
				value = m.Gauge.GetValue()
			case m.Counter != nil:
				value = m.Counter.GetValue()
			case m.Summary != nil:
				value = m.Summary.GetSampleSum()
			case m.Histogram != nil:
				value = m.Histogram.GetSampleSum()
			default:
				continue
			}

			timeSeries = append(timeSeries, &monitoringpb.TimeSeries{
				Metric: &metricpb.Metric{
					Type:   "custom.googleapis.com/" + mf.GetName(),
					Labels: labels,
				},
				Resource: &monitoredres.MonitoredResource{
					Type: "global",
					Labels: map[string]string{
						"project_id": c.projectId,
					},
				},
				Points: []*monitoringpb.Point{
					{
						Interval: &monitoringpb.TimeInterval{
							EndTime: timestamppb.New(now),
						},
						Value: &monitoringpb.TypedValue{
							Value: &monitoringpb.TypedValue_DoubleValue{
								DoubleValue: value,
							},
						},
					},
				},
			})
		}
	}

	return timeSeries, nil
}
