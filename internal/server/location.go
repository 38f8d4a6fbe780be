package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	locationdomain "github.com/smallbiznis/collections/internal/location/domain"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
)

type locationRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) CreateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.locationSvc.Create(c.Request.Context(), locationdomain.CreateLocationRequest{
		Name:   strings.TrimSpace(req.Name),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLocations(c *gin.Context) {
	var query struct {
		rangeQuery
		Keyword string `form:"keyword"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.locationSvc.List(c.Request.Context(), locationdomain.ListLocationRequest{
		Range:   query.toRange(),
		Keyword: strings.TrimSpace(query.Keyword),
		Status:  strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLocationByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.locationSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateLocation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.locationSvc.Update(c.Request.Context(), locationdomain.UpdateLocationRequest{
		ID:     id,
		Name:   strings.TrimSpace(req.Name),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateLocation(c *gin.Context) {
	s.setLocationStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateLocation(c *gin.Context) {
	s.setLocationStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setLocationStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.locationSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isLocationValidationError(err error) bool {
	switch err {
	case locationdomain.ErrInvalidOrganization,
		locationdomain.ErrInvalidName,
		locationdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
