// Package server exposes the job API over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/jobs"
)

// Submitter creates registry records and schedules their execution. The
// handler owns only transport concerns.
type Submitter interface {
	Submit(req jobs.Request)
}

// Server wires the job API routes.
type Server struct {
	registry  *jobs.Registry
	submitter Submitter
	uploadDir string
	log       *zap.Logger
}

func New(registry *jobs.Registry, submitter Submitter, uploadDir string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		registry:  registry,
		submitter: submitter,
		uploadDir: uploadDir,
		log:       log,
	}
}

// Router builds the gin engine with recovery and request logging.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/jobs", s.createJob)
	api.GET("/jobs/:id", s.getJob)

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
