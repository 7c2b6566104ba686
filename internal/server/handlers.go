package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/cache"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var errNoStore = errors.New("no record store configured")

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "insightwatch",
	})
}

// generateInsights evaluates the dataset in the request body. The domain in
// the path wins over the one in the body.
func (s *Server) generateInsights(c *gin.Context) {
	domain, err := adapter.ParseDomain(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var ds adapter.Dataset
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ds); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid dataset: %v", err)})
			return
		}
	}
	ds.Domain = domain

	ctx := c.Request.Context()
	key := cache.Key([]byte("generate"), body)
	if s.serveCached(c, domain, key) {
		return
	}

	insights, err := s.runner.Generate(ds)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cache.Set(ctx, string(domain), key, insights); err != nil {
		s.logger.Warn("cache write failed", zap.String("domain", string(domain)), zap.Error(err))
	}
	c.JSON(http.StatusOK, insights)
}

// getStoredInsights evaluates stored records of one domain, without the
// dismissed insights.
func (s *Server) getStoredInsights(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStore.Error()})
		return
	}
	domain, err := adapter.ParseDomain(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid limit %q", raw)})
			return
		}
	}

	ctx := c.Request.Context()
	key := cache.Key([]byte("stored"), []byte(c.Query("from")), []byte(c.Query("to")), []byte(strconv.Itoa(limit)))
	if s.serveCached(c, domain, key) {
		return
	}

	insights, err := s.runner.FromSource(ctx, domain, w, limit)
	if err != nil {
		s.logger.Error("stored insights failed", zap.String("domain", string(domain)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.cache.Set(ctx, string(domain), key, insights); err != nil {
		s.logger.Warn("cache write failed", zap.String("domain", string(domain)), zap.Error(err))
	}
	c.JSON(http.StatusOK, insights)
}

// getDashboard evaluates every domain from stored records.
func (s *Server) getDashboard(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStore.Error()})
		return
	}
	w, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := s.runner.Dashboard(c.Request.Context(), w)
	if err != nil {
		s.logger.Error("dashboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make(map[string][]insight.Insight, len(board))
	for d, insights := range board {
		out[string(d)] = insights
	}
	c.JSON(http.StatusOK, out)
}

// dismissInsight hides an insight id from stored results of a domain.
func (s *Server) dismissInsight(c *gin.Context) {
	s.setDismissed(c, true)
}

// undismissInsight restores a dismissed insight id.
func (s *Server) undismissInsight(c *gin.Context) {
	s.setDismissed(c, false)
}

func (s *Server) setDismissed(c *gin.Context, dismissed bool) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStore.Error()})
		return
	}
	domain, err := adapter.ParseDomain(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")

	ctx := c.Request.Context()
	status := "dismissed"
	if dismissed {
		err = s.store.Dismiss(ctx, string(domain), id)
	} else {
		status = "restored"
		err = s.store.Undismiss(ctx, string(domain), id)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Invalidate cache
	if err := s.cache.Invalidate(ctx, string(domain)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("domain", string(domain)), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "domain": domain, "id": id})
}

// serveCached writes a cached response and reports whether it did.
func (s *Server) serveCached(c *gin.Context, domain adapter.Domain, key string) bool {
	cached, ok, err := s.cache.Get(c.Request.Context(), string(domain), key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("domain", string(domain)), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	c.Header("X-Cache", "hit")
	c.JSON(http.StatusOK, cached)
	return true
}

// parseWindow reads the from and to query parameters as YYYY-MM-DD dates.
// The to date is inclusive.
func parseWindow(c *gin.Context) (adapter.Window, error) {
	var w adapter.Window
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return w, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", raw)
		}
		w.Start = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return w, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", raw)
		}
		w.End = t.AddDate(0, 0, 1)
	}
	return w, nil
}
