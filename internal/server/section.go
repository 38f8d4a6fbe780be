package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	sectiondomain "github.com/smallbiznis/collections/internal/section/domain"
)

type sectionRequest struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

func (s *Server) CreateSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sectionSvc.Create(c.Request.Context(), sectiondomain.CreateSectionRequest{
		LocationID: strings.TrimSpace(req.LocationID),
		Name:       strings.TrimSpace(req.Name),
		Status:     strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSections(c *gin.Context) {
	var query struct {
		rangeQuery
		Keyword    string `form:"keyword"`
		Status     string `form:"status"`
		LocationID string `form:"location_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sectionSvc.List(c.Request.Context(), sectiondomain.ListSectionRequest{
		Range:      query.toRange(),
		Keyword:    strings.TrimSpace(query.Keyword),
		Status:     strings.TrimSpace(query.Status),
		LocationID: strings.TrimSpace(query.LocationID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSectionByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.sectionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sectionSvc.Update(c.Request.Context(), sectiondomain.UpdateSectionRequest{
		ID:         id,
		LocationID: strings.TrimSpace(req.LocationID),
		Name:       strings.TrimSpace(req.Name),
		Status:     strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateSection(c *gin.Context) {
	s.setSectionStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateSection(c *gin.Context) {
	s.setSectionStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setSectionStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.sectionSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSectionValidationError(err error) bool {
	switch err {
	case sectiondomain.ErrInvalidOrganization,
		sectiondomain.ErrInvalidName,
		sectiondomain.ErrInvalidID,
		sectiondomain.ErrInvalidLocation:
		return true
	default:
		return false
	}
}
