package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

func (s *Server) ListChangeLogs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EntityKind string `form:"entity_kind"`
		EntityID   string `form:"entity_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.changeLogSvc.List(c.Request.Context(), changelogdomain.ListChangeLogRequest{
		Pagination: query.Pagination,
		EntityKind: strings.TrimSpace(query.EntityKind),
		EntityID:   strings.TrimSpace(query.EntityID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListErrorLogs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Transaction string `form:"transaction"`
		Table       string `form:"table"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.errorLogSvc.List(c.Request.Context(), errorlogdomain.ListErrorLogRequest{
		Pagination:  query.Pagination,
		Transaction: strings.TrimSpace(query.Transaction),
		Table:       strings.TrimSpace(query.Table),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
