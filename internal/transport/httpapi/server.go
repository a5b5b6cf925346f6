// Package httpapi exposes the ingestion and query use cases over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/usecase"
)

// Service is the application surface the API drives.
type Service interface {
	Ingest(ctx context.Context, progress usecase.Progress) (usecase.IngestReport, error)
	Query(ctx context.Context, text string) (usecase.QueryResult, string, error)
	ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	ConfigRaw() ([]byte, error)
	UpdateConfig(raw []byte) error
}

// Server provides HTTP endpoints for the news agent.
type Server struct {
	echo    *echo.Echo
	service Service
	logger  *slog.Logger
	addr    string
}

// NewServer creates the echo instance and registers routes.
func NewServer(service Service, cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		addr:    cfg.Addr,
	}
	s.registerRoutes(cfg.StaticDir)

	return s, nil
}

func (s *Server) registerRoutes(staticDir string) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/articles", s.handleArticles)
	api.POST("/chat", s.handleChat)
	api.POST("/ingest", s.handleIngest)
	api.GET("/config", s.handleGetConfig)
	api.POST("/config", s.handleUpdateConfig)

	if staticDir == "" {
		return
	}
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		s.echo.Static("/", staticDir)
	} else {
		s.logger.Debug("static directory not found", "dir", staticDir)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Response string              `json:"response"`
	Intent   domain.Intent       `json:"intent"`
	Articles []domain.ResultItem `json:"articles"`
}

// IngestResponse is the response body for POST /api/ingest.
type IngestResponse struct {
	Status        string   `json:"status"`
	NewArticles   int      `json:"new_articles"`
	Fetched       int      `json:"fetched"`
	Duplicates    int      `json:"duplicates"`
	Failed        int      `json:"failed"`
	FailedSources []string `json:"failed_sources"`
}

// ConfigDocument carries the raw YAML configuration in both directions.
type ConfigDocument struct {
	Config string `json:"config"`
}

// StatusResponse acknowledges a successful mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleArticles(c echo.Context) error {
	filter := domain.ArticleFilter{Category: strings.TrimSpace(c.QueryParam("category"))}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		filter.Limit = limit
	}

	if raw := c.QueryParam("relevance"); raw != "" {
		relevance, ok := domain.ParseRelevance(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "relevance must be High, Medium or Low")
		}
		filter.Relevance = relevance
	}

	articles, err := s.service.ListArticles(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error("list articles failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load articles")
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return c.JSON(http.StatusOK, articles)
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	result, text, err := s.service.Query(c.Request().Context(), req.Message)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response: text,
		Intent:   result.Intent,
		Articles: result.Items,
	})
}

func (s *Server) handleIngest(c echo.Context) error {
	report, err := s.service.Ingest(c.Request().Context(), nil)
	if err != nil {
		s.logger.Error("ingestion failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	failed := make([]string, 0, len(report.FailedSources))
	for _, f := range report.FailedSources {
		failed = append(failed, f.Source)
	}

	return c.JSON(http.StatusOK, IngestResponse{
		Status:        "success",
		NewArticles:   report.Stored,
		Fetched:       report.Fetched,
		Duplicates:    report.Duplicates,
		Failed:        report.Failed,
		FailedSources: failed,
	})
}

func (s *Server) handleGetConfig(c echo.Context) error {
	raw, err := s.service.ConfigRaw()
	if err != nil {
		s.logger.Error("read config failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not read configuration")
	}
	return c.JSON(http.StatusOK, ConfigDocument{Config: string(raw)})
}

func (s *Server) handleUpdateConfig(c echo.Context) error {
	var doc ConfigDocument
	if err := c.Bind(&doc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(doc.Config) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "config field is required")
	}

	if err := s.service.UpdateConfig([]byte(doc.Config)); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("update config failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update configuration")
	}

	return c.JSON(http.StatusOK, StatusResponse{Status: "success"})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
