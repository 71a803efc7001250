package server

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/jobs"
)

var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// createJob accepts the two candidate documents, stores them under the
// upload directory and schedules the evaluation. It answers immediately;
// callers poll the job by id.
func (s *Server) createJob(c *gin.Context) {
	cvFile, err := c.FormFile("cv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cv file is required"})
		return
	}

	projectFile, err := c.FormFile("project")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project file is required"})
		return
	}

	for _, file := range []*multipart.FileHeader{cvFile, projectFile} {
		if !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF and plain-text files are allowed"})
			return
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		s.log.Error("creating upload dir", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploads"})
		return
	}

	id := s.registry.Create()

	cvPath := s.uploadPath(id, "cv", cvFile.Filename)
	projectPath := s.uploadPath(id, "project", projectFile.Filename)

	if err := c.SaveUploadedFile(cvFile, cvPath); err != nil {
		s.failUpload(c, id, "cv", err)
		return
	}
	if err := c.SaveUploadedFile(projectFile, projectPath); err != nil {
		s.failUpload(c, id, "project", err)
		return
	}

	s.submitter.Submit(jobs.Request{
		JobID:       id,
		CVPath:      cvPath,
		ProjectPath: projectPath,
		JobTitle:    c.PostForm("job_title"),
	})

	s.log.Info("job submitted",
		zap.String("job_id", id),
		zap.String("cv_filename", cvFile.Filename),
		zap.String("project_filename", projectFile.Filename),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": id,
		"status": jobs.StatusQueued,
	})
}

// getJob returns the current job snapshot, including the result or error
// once the job is terminal.
func (s *Server) getJob(c *gin.Context) {
	job, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (s *Server) uploadPath(id, kind, filename string) string {
	return filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s%s", id, kind, strings.ToLower(filepath.Ext(filename))))
}

func (s *Server) failUpload(c *gin.Context, id, kind string, err error) {
	s.log.Error("saving uploaded file", zap.String("job_id", id), zap.String("kind", kind), zap.Error(err))
	// The record already exists; close it out so the caller is not left
	// polling a job that will never run.
	if ferr := s.registry.SetFailed(id, "failed to store uploaded "+kind+" document"); ferr != nil {
		s.log.Error("marking job as failed", zap.String("job_id", id), zap.Error(ferr))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploads"})
}
