package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hejijunhao/sawmill/internal/model"
)

const namespace = "sawmill"

// metrics is per Server so that several servers (tests) never collide on
// registration.
type metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Histogram
	analyzeTime prometheus.Histogram
	entries     *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	swept       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads by result",
		}, []string{"result"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of stored uploads",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		analyzeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Time spent decoding and analyzing one document",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Classified entries by category and dialect",
		}, []string{"category", "source"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Reports served from cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_misses_total",
			Help:      "Reports computed on request",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_removed_total",
			Help:      "Uploads removed by the retention sweep",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.uploads, m.uploadBytes, m.analyzeTime,
		m.entries, m.cacheHits, m.cacheMisses, m.swept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *metrics) analyzeTimer() func() {
	start := time.Now()
	return func() { m.analyzeTime.Observe(time.Since(start).Seconds()) }
}

func (m *metrics) recordReport(r model.Report) {
	record := func(category string, entries []model.Entry) {
		for _, e := range entries {
			m.entries.WithLabelValues(category, e.Source.String()).Inc()
		}
	}
	record("exception", r.Exceptions)
	record("error", r.Errors)
	record("warn", r.Warns)
}
