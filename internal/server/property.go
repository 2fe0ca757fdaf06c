package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type propertySearchRequest struct {
	Address string `json:"address"`
}

// SearchProperty is the metered lookup endpoint. The quota gate and the
// consume-on-success rule live in the property service; this handler only
// translates outcomes.
func (s *Server) SearchProperty(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req propertySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		AbortWithError(c, newValidationError("address", "required", "address is required"))
		return
	}

	outcome, err := s.propertySvc.Search(c.Request.Context(), sess.UserID, sess.Email, address)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// MarketData proxies unmetered market statistics.
func (s *Server) MarketData(c *gin.Context) {
	zipCode := strings.TrimSpace(c.Query("zip"))
	if zipCode == "" {
		AbortWithError(c, newValidationError("zip", "required", "zip is required"))
		return
	}

	data, err := s.propertySvc.Market(c.Request.Context(), zipCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// ListSearches returns the caller's saved searches, newest first. An
// optional q parameter filters by address facet substring.
func (s *Server) ListSearches(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	term := strings.TrimSpace(c.Query("q"))

	records, total, err := s.propertySvc.FilterHistory(c.Request.Context(), sess.UserID, term, limit, offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"total": total,
	})
}

func (s *Server) GetSearch(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid search id"))
		return
	}

	record, err := s.propertySvc.FindSearch(c.Request.Context(), sess.UserID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) DeleteSearch(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid search id"))
		return
	}

	if err := s.propertySvc.DeleteSearch(c.Request.Context(), sess.UserID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) ClearSearches(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	deleted, err := s.propertySvc.ClearHistory(c.Request.Context(), sess.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "count": deleted})
}

func (s *Server) SearchStats(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stats, err := s.propertySvc.HistoryStats(c.Request.Context(), sess.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
