package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/timer"
)

// Metrics are the prometheus collectors of one server
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	sessionsCompleted *prometheus.CounterVec
	focusSeconds      prometheus.Counter
	timerRemaining    prometheus.Gauge
	timerRunning      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tomate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tomate_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1},
			},
			[]string{"method", "route"},
		),
		sessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tomate_sessions_completed_total",
				Help: "Pomodoro sessions recorded, by type",
			},
			[]string{"type", "skipped"},
		),
		focusSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tomate_focus_seconds_total",
			Help: "Focus time recorded by completed work sessions",
		}),
		timerRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tomate_timer_remaining_seconds",
			Help: "Time left in the current session",
		}),
		timerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tomate_timer_running",
			Help: "1 while the timer is counting down",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.sessionsCompleted,
		m.focusSeconds,
		m.timerRemaining,
		m.timerRunning,
	)
	return m
}

// Middleware records request counts and latency by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveSession counts a recorded session
func (m *Metrics) ObserveSession(s models.PomodoroSession) {
	kind := s.Type
	if s.BreakKind != "" {
		kind = s.BreakKind + "_" + s.Type
	}
	m.sessionsCompleted.WithLabelValues(kind, strconv.FormatBool(s.Skipped)).Inc()
	if s.IsFocus() {
		m.focusSeconds.Add(float64(s.DurationSeconds))
	}
}

// ObserveTimer mirrors the timer state into gauges
func (m *Metrics) ObserveTimer(snap timer.Snapshot) {
	m.timerRemaining.Set(snap.Remaining.Seconds())
	if snap.Status == timer.StatusRunning {
		m.timerRunning.Set(1)
	} else {
		m.timerRunning.Set(0)
	}
}
