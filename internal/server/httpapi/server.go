// Package httpapi is the HTTP surface of the server: multipart uploads,
// sentiment record queries and decrypted media streaming.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/filex"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	maxMultipartMemory = 32 << 20
	shutdownTimeout    = 10 * time.Second
)

type Ingestor interface {
	Allocate(owner string) (filex.Location, error)
	Ingest(ctx context.Context, files []models.UploadedFile) []models.Outcome
}

type Records interface {
	ListSentiment(ctx context.Context, filter models.SentimentFilter) ([]*models.SentimentRecord, error)
	GetSentiment(ctx context.Context, id string) (*models.SentimentRecord, error)
	UpdateSentiment(ctx context.Context, id string, patch models.SentimentPatch) (*models.SentimentRecord, error)
	DeleteSentiment(ctx context.Context, id string) error
	ListMedia(ctx context.Context, owner string) ([]*models.MediaAsset, error)
	GetMedia(ctx context.Context, id string) (*models.MediaAsset, error)
	DeleteMedia(ctx context.Context, id string) error
}

type Retriever interface {
	Open(ctx context.Context, id string) (*services.Stream, error)
	OpenSource(ctx context.Context, recordID string) (*services.Stream, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Ingestor  = (*services.IngestService)(nil)
	_ Records   = (*services.RecordService)(nil)
	_ Retriever = (*services.RetrievalService)(nil)
)

type Server struct {
	address   string
	engine    *gin.Engine
	ingest    Ingestor
	records   Records
	retrieval Retriever
	health    Pinger
	logger    logging.Logger
}

func NewServer(address string, l logging.Logger, ingest Ingestor, records Records, retrieval Retriever, health Pinger) *Server {
	s := &Server{
		address:   address,
		ingest:    ingest,
		records:   records,
		retrieval: retrieval,
		health:    health,
		logger:    l.With("module", "http_server"),
	}

	s.engine = gin.New()
	s.engine.MaxMultipartMemory = maxMultipartMemory
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.healthCheck)
	s.engine.POST("/upload", s.handleUpload)

	sentiment := s.engine.Group("/sentiment")
	sentiment.GET("", s.listSentiment)
	sentiment.GET("/:id", s.getSentiment)
	sentiment.PATCH("/:id", s.updateSentiment)
	sentiment.DELETE("/:id", s.deleteSentiment)
	sentiment.GET("/:id/source", s.streamSource)

	media := s.engine.Group("/media")
	media.GET("", s.listMedia)
	media.GET("/:id", s.getMedia)
	media.GET("/:id/stream", s.streamMedia)
	media.DELETE("/:id", s.deleteMedia)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			s.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
