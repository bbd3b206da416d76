package control

import (
	"BiteBot/internal/app/engine"
	"BiteBot/internal/config"
	"BiteBot/internal/service/journal"
	"BiteBot/internal/service/registry"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Service HTTP-сервис с управляемым жизненным циклом.
type Service interface {
	// Start запускает сервер в отдельной горутине и немедленно возвращается.
	// Должен реагировать на отмену контекста и завершать работу.
	Start(ctx context.Context) error

	// Stop инициирует graceful shutdown с использованием контекста.
	Stop(ctx context.Context) error

	// Addr возвращает адрес, на котором слушает сервер.
	Addr() string
}

// Ensure interface compliance
var _ Service = (*Server)(nil)

// StatusSource отдаёт состояние цикла опроса для /api/status.
type StatusSource interface {
	Running() bool
}

// Status описывает ответ /api/status.
type Status struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Uptime    string    `json:"uptime"`
	Targets   int       `json:"targets"`
	Running   bool      `json:"running"`
	Clients   int       `json:"wsClients"`
}

// Server HTTP API управления целями поверх echo.
type Server struct {
	cfg     config.ControlConfig
	echo    *echo.Echo
	srv     *http.Server
	reg     *registry.Registry
	status  StatusSource
	hub     *Hub
	events  *journal.Journal[engine.Event]
	metrics http.Handler
	logger  *zap.SugaredLogger

	runID   string
	started time.Time
	addr    atomic.Value // string, фактический адрес после Listen
	running atomic.Bool
}

// Deps содержит то, чем управляет и что показывает API. Nil-поля отключают соответствующие маршруты.
type Deps struct {
	Registry *registry.Registry
	Status   StatusSource
	Hub      *Hub
	Events   *journal.Journal[engine.Event]
	Metrics  http.Handler
}

func New(cfg config.ControlConfig, deps Deps, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8765"
	}
	s := &Server{
		cfg:     cfg,
		echo:    echo.New(),
		reg:     deps.Registry,
		status:  deps.Status,
		hub:     deps.Hub,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logger,
		runID:   uuid.NewString(),
		started: time.Now(),
	}
	s.addr.Store(cfg.BindAddr)

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debugw("HTTP request", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			return nil
		},
	}))
	s.routes()

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	api.GET("/targets", s.listTargets)
	api.POST("/targets/:id/pause", s.pauseTarget)
	api.POST("/targets/:id/resume", s.resumeTarget)
	api.DELETE("/targets/:id", s.removeTarget)
	api.POST("/pause-all", s.pauseAll)
	api.POST("/resume-all", s.resumeAll)
	api.GET("/status", s.getStatus)
	if s.events != nil {
		api.GET("/events", s.recentEvents)
	}
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}
	if s.hub != nil {
		s.echo.GET("/ws", s.hub.Handle)
	}
}

// Start слушает адрес и обслуживает запросы в отдельной горутине.
// Ошибка занятого порта возвращается сразу.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.addr.Store(ln.Addr().String())

	go func() {
		s.logger.Infow("Control API listening", "addr", s.Addr(), "runId", s.runID)
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Control API stopped with error", "error", err)
		} else {
			s.logger.Infow("Control API stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("control-api shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *Server) Addr() string { return s.addr.Load().(string) }

// Handler отдаёт echo как http.Handler (используется в тестах).
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) listTargets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.reg.List())
}

func (s *Server) pauseTarget(c echo.Context) error {
	return s.withTarget(c, s.reg.Pause, "Target paused")
}

func (s *Server) resumeTarget(c echo.Context) error {
	return s.withTarget(c, s.reg.Resume, "Target resumed")
}

func (s *Server) removeTarget(c echo.Context) error {
	id, err := targetID(c)
	if err != nil {
		return err
	}
	if err := s.reg.Remove(id); err != nil {
		return httpError(err)
	}
	s.logger.Infow("Target removed", "pid", id)
	return c.NoContent(http.StatusNoContent)
}

// withTarget применяет операцию к цели и возвращает её новый снимок.
func (s *Server) withTarget(c echo.Context, op func(id uint32) error, msg string) error {
	id, err := targetID(c)
	if err != nil {
		return err
	}
	if err := op(id); err != nil {
		return httpError(err)
	}
	e, ok := s.reg.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, registry.ErrNotFound.Error())
	}
	s.logger.Infow(msg, "pid", id, "name", e.Target.DisplayName)
	return c.JSON(http.StatusOK, e)
}

func (s *Server) pauseAll(c echo.Context) error {
	s.reg.PauseAll()
	s.logger.Infow("All targets paused", "targets", s.reg.Len())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) resumeAll(c echo.Context) error {
	s.reg.ResumeAll()
	s.logger.Infow("All targets resumed", "targets", s.reg.Len())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getStatus(c echo.Context) error {
	st := Status{
		RunID:     s.runID,
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Targets:   s.reg.Len(),
	}
	if s.status != nil {
		st.Running = s.status.Running()
	}
	if s.hub != nil {
		st.Clients = s.hub.Len()
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) recentEvents(c echo.Context) error {
	n := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		n = l
	}
	return c.JSON(http.StatusOK, s.events.Recent(n))
}

func targetID(c echo.Context) (uint32, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "target id must be a pid")
	}
	return uint32(id), nil
}

func httpError(err error) error {
	if errors.Is(err, registry.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
