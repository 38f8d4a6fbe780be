package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	stalldomain "github.com/smallbiznis/collections/internal/stall/domain"
)

// Money fields are strings so decimals survive JSON untouched.
type stallRequest struct {
	SectionID              string `json:"section_id"`
	RenterID               string `json:"renter_id"`
	Name                   string `json:"name"`
	Rent                   string `json:"rent"`
	RentType               string `json:"rent_type"`
	OccupancyFee           string `json:"occupancy_fee"`
	OccupancyRenewalPeriod string `json:"occupancy_renewal_period"`
}

func (s *Server) CreateStall(c *gin.Context) {
	var req stallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stallSvc.Create(c.Request.Context(), stalldomain.CreateStallRequest{
		SectionID:              strings.TrimSpace(req.SectionID),
		RenterID:               strings.TrimSpace(req.RenterID),
		Name:                   strings.TrimSpace(req.Name),
		Rent:                   strings.TrimSpace(req.Rent),
		RentType:               strings.TrimSpace(req.RentType),
		OccupancyFee:           strings.TrimSpace(req.OccupancyFee),
		OccupancyRenewalPeriod: strings.TrimSpace(req.OccupancyRenewalPeriod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStalls(c *gin.Context) {
	var query struct {
		rangeQuery
		SectionID string `form:"section_id"`
		RenterID  string `form:"renter_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stallSvc.List(c.Request.Context(), stalldomain.ListStallRequest{
		Range:     query.toRange(),
		SectionID: strings.TrimSpace(query.SectionID),
		RenterID:  strings.TrimSpace(query.RenterID),
		Status:    strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStallByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.stallSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateStall(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req stallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stallSvc.Update(c.Request.Context(), stalldomain.UpdateStallRequest{
		ID:                     id,
		SectionID:              strings.TrimSpace(req.SectionID),
		RenterID:               strings.TrimSpace(req.RenterID),
		Name:                   strings.TrimSpace(req.Name),
		Rent:                   strings.TrimSpace(req.Rent),
		RentType:               strings.TrimSpace(req.RentType),
		OccupancyFee:           strings.TrimSpace(req.OccupancyFee),
		OccupancyRenewalPeriod: strings.TrimSpace(req.OccupancyRenewalPeriod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateStall(c *gin.Context) {
	s.setStallStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateStall(c *gin.Context) {
	s.setStallStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setStallStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.stallSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isStallValidationError(err error) bool {
	switch err {
	case stalldomain.ErrInvalidOrganization,
		stalldomain.ErrInvalidName,
		stalldomain.ErrInvalidID,
		stalldomain.ErrInvalidSection,
		stalldomain.ErrInvalidRenter,
		stalldomain.ErrInvalidRent,
		stalldomain.ErrInvalidOccupancyFee:
		return true
	default:
		return false
	}
}
