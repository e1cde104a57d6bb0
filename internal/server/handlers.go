package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hejijunhao/sawmill/internal/export"
	"github.com/hejijunhao/sawmill/internal/model"
	"github.com/hejijunhao/sawmill/internal/storage"
)

var allowedExtensions = map[string]bool{
	".txt": true,
	".log": true,
	".out": true,
}

var (
	errUnsupportedExtension = errors.New("unsupported file extension")
	errFileNotFound         = errors.New("file not found")
)

// cachedReport is valid while the stored object keeps the same size and
// modification time.
type cachedReport struct {
	info   storage.ObjectInfo
	report model.Report
}

// allowedName reports whether name ends in an accepted extension, optionally
// followed by .gz.
func allowedName(name string) bool {
	lower := strings.ToLower(name)
	lower = strings.TrimSuffix(lower, ".gz")
	return allowedExtensions[path.Ext(lower)]
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		if c.Request.ContentLength > s.cfg.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	name, err := storage.CleanName(fh.Filename)
	if err != nil || !allowedName(name) {
		s.metrics.uploads.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": errUnsupportedExtension.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	info, err := s.store.Save(c.Request.Context(), name, f, fh.Size)
	if err != nil {
		s.metrics.uploads.WithLabelValues("error").Inc()
		slog.Error("upload save failed", "file", name, "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}
	s.reports.Delete(name)
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.metrics.uploadBytes.Observe(float64(info.Size))

	slog.Info("file uploaded", "file", name, "size", info.Size, "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, gin.H{"filename": name})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	report, ok := s.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	report, ok := s.report(c)
	if !ok {
		return
	}
	name := c.Param("filename")
	grouped := c.Query("grouped") == "true"

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_issues.csv"`, name))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, report, grouped); err != nil {
		slog.Error("export failed", "file", name, "request_id", c.GetString(requestIDKey), "error", err)
	}
}

// report resolves the :filename parameter to a Report, writing the error
// response itself when it cannot.
func (s *Server) report(c *gin.Context) (model.Report, bool) {
	ctx := c.Request.Context()

	name, err := storage.CleanName(c.Param("filename"))
	if err != nil || name != c.Param("filename") {
		c.JSON(http.StatusNotFound, gin.H{"error": errFileNotFound.Error()})
		return model.Report{}, false
	}

	info, err := s.store.Stat(ctx, name)
	if err != nil {
		s.storeError(c, name, err)
		return model.Report{}, false
	}

	if v, ok := s.reports.Get(name); ok {
		cached := v.(cachedReport)
		if cached.info.Size == info.Size && cached.info.ModTime.Equal(info.ModTime) {
			s.metrics.cacheHits.Inc()
			return cached.report, true
		}
	}
	s.metrics.cacheMisses.Inc()

	rc, info, err := s.store.Open(ctx, name)
	if err != nil {
		s.storeError(c, name, err)
		return model.Report{}, false
	}
	defer rc.Close()

	timer := s.metrics.analyzeTimer()
	report, err := s.analyzer.AnalyzeReader(rc)
	timer()
	if err != nil {
		slog.Warn("analyze failed", "file", name, "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return model.Report{}, false
	}

	s.metrics.recordReport(report)
	s.reports.SetDefault(name, cachedReport{info: info, report: report})
	return report, true
}

func (s *Server) storeError(c *gin.Context, name string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errFileNotFound.Error()})
		return
	}
	slog.Error("storage lookup failed", "file", name, "request_id", c.GetString(requestIDKey), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
}
