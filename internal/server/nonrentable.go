package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	nonrentabledomain "github.com/smallbiznis/collections/internal/nonrentable/domain"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
)

type nonrentableRequest struct {
	SectionID string `json:"section_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

func (s *Server) CreateNonrentable(c *gin.Context) {
	var req nonrentableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.nonrentableSvc.Create(c.Request.Context(), nonrentabledomain.CreateNonrentableRequest{
		SectionID: strings.TrimSpace(req.SectionID),
		Name:      strings.TrimSpace(req.Name),
		Status:    strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNonrentables(c *gin.Context) {
	var query struct {
		rangeQuery
		SectionID string `form:"section_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.nonrentableSvc.List(c.Request.Context(), nonrentabledomain.ListNonrentableRequest{
		Range:     query.toRange(),
		SectionID: strings.TrimSpace(query.SectionID),
		Status:    strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetNonrentableByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.nonrentableSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateNonrentable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req nonrentableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.nonrentableSvc.Update(c.Request.Context(), nonrentabledomain.UpdateNonrentableRequest{
		ID:        id,
		SectionID: strings.TrimSpace(req.SectionID),
		Name:      strings.TrimSpace(req.Name),
		Status:    strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateNonrentable(c *gin.Context) {
	s.setNonrentableStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateNonrentable(c *gin.Context) {
	s.setNonrentableStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setNonrentableStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.nonrentableSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isNonrentableValidationError(err error) bool {
	switch err {
	case nonrentabledomain.ErrInvalidOrganization,
		nonrentabledomain.ErrInvalidName,
		nonrentabledomain.ErrInvalidID,
		nonrentabledomain.ErrInvalidSection:
		return true
	default:
		return false
	}
}
