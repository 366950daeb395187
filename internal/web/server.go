// Package web serves the timer, tasks and stats as a JSON API for a local
// front end, plus prometheus metrics.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/logger"
)

// Server is the tomate HTTP API
type Server struct {
	focus   *focus.Service
	router  *gin.Engine
	metrics *Metrics
	log     *logrus.Entry
}

// NewServer creates the API around svc. Metrics are registered on reg.
func NewServer(svc *focus.Service, reg *prometheus.Registry) *Server {
	router := gin.New()

	s := &Server{
		focus:   svc,
		router:  router,
		metrics: NewMetrics(reg),
		log:     logger.Component("web"),
	}
	svc.OnComplete(s.metrics.ObserveSession)
	svc.OnChange(s.metrics.ObserveTimer)
	s.metrics.ObserveTimer(svc.Snapshot())

	router.Use(gin.Recovery(), s.logRequests(), s.metrics.Middleware())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/timer", s.handleTimer)
		api.POST("/timer/start", s.handleTimerAction(svc.Start))
		api.POST("/timer/pause", s.handleTimerAction(svc.Pause))
		api.POST("/timer/reset", s.handleTimerAction(svc.Reset))
		api.POST("/timer/skip", s.handleTimerAction(svc.Skip))
		api.PUT("/timer/task", s.handleTimerTask)
		api.GET("/timer/config", s.handleTimerConfig)
		api.PUT("/timer/config", s.handleUpdateTimerConfig)

		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/restore", s.handleRestoreTask)
		api.POST("/tasks/:id/subtasks", s.handleAddSubTask)
		api.PATCH("/tasks/:id/subtasks/:pos", s.handleUpdateSubTask)
		api.DELETE("/tasks/:id/subtasks/:pos", s.handleDeleteSubTask)

		api.GET("/sessions", s.handleSessions)
		api.GET("/stats", s.handleStats)
		api.GET("/calendar", s.handleCalendar)
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr and ticks the timer until ctx ends
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := s.focus.Run(ctx, time.Second); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Error("timer runner stopped")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	}
}
