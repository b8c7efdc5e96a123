package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"questionnaire_reminder/internal/domain/reminder"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "questionnaire_reminder"

// Collector records reminder run counters. It implements app.RunMetrics.
type Collector struct {
	coursesSelected      *prometheus.CounterVec
	coursesSkipped       *prometheus.CounterVec
	questionnairesOpened prometheus.Counter
	messages             *prometheus.CounterVec
	runDuration          prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		coursesSelected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "courses_selected_total",
				Help:      "Total number of courses selected for a reminder stage",
			},
			[]string{"stage"},
		),
		coursesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "courses_skipped_total",
				Help:      "Total number of selected courses skipped because of missing data or store errors",
			},
			[]string{"stage"},
		),
		questionnairesOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questionnaires_opened_total",
				Help:      "Total number of hidden questionnaires made visible by the invite stage",
			},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Total number of reminder messages by stage and outcome",
			},
			[]string{"stage", "outcome"}, // outcome: delivered, failed
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a daily reminder run in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
			},
		),
	}
}

func (c *Collector) CoursesSelected(stage reminder.Stage, n int) {
	c.coursesSelected.WithLabelValues(string(stage)).Add(float64(n))
}

func (c *Collector) CourseSkipped(stage reminder.Stage) {
	c.coursesSkipped.WithLabelValues(string(stage)).Inc()
}

func (c *Collector) QuestionnaireOpened() {
	c.questionnairesOpened.Inc()
}

func (c *Collector) MessageSent(stage reminder.Stage, delivered bool) {
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	c.messages.WithLabelValues(string(stage), outcome).Inc()
}

func (c *Collector) RunFinished(d time.Duration) {
	c.runDuration.Observe(d.Seconds())
}

// Server exposes the gathered metrics on /metrics.
type Server struct {
	srv    *http.Server
	logger *logrus.Entry
}

func NewServer(addr string, g prometheus.Gatherer, logger *logrus.Entry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start listens in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.srv.Addr).Info("Metrics endpoint listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Metrics endpoint stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
