package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	renterdomain "github.com/smallbiznis/collections/internal/renter/domain"
)

type renterRequest struct {
	Name    string `json:"name"`
	StallID string `json:"stall_id"`
}

func (s *Server) CreateRenter(c *gin.Context) {
	var req renterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.renterSvc.Create(c.Request.Context(), renterdomain.CreateRenterRequest{
		Name:    strings.TrimSpace(req.Name),
		StallID: strings.TrimSpace(req.StallID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRenters(c *gin.Context) {
	var query struct {
		rangeQuery
		ID        string `form:"id"`
		Keyword   string `form:"keyword"`
		Status    string `form:"status"`
		SectionID string `form:"section_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.renterSvc.List(c.Request.Context(), renterdomain.ListRenterRequest{
		Range:     query.toRange(),
		ID:        strings.TrimSpace(query.ID),
		Keyword:   strings.TrimSpace(query.Keyword),
		Status:    strings.TrimSpace(query.Status),
		SectionID: strings.TrimSpace(query.SectionID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRenterByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.renterSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRenter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req renterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.renterSvc.Update(c.Request.Context(), renterdomain.UpdateRenterRequest{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		StallID: strings.TrimSpace(req.StallID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateRenter(c *gin.Context) {
	s.setRenterStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateRenter(c *gin.Context) {
	s.setRenterStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setRenterStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.renterSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderRenterStatement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	statement, err := s.invoiceSvc.Statement(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.RenderStatement(ctx, statement)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := statement.Renter.Name
	if strings.TrimSpace(name) == "" {
		name = id
	}
	c.DataFromReader(http.StatusOK, -1, pdfContentType, doc, pdfHeaders("statement", name))
}

func isRenterValidationError(err error) bool {
	switch err {
	case renterdomain.ErrInvalidOrganization,
		renterdomain.ErrInvalidName,
		renterdomain.ErrInvalidID,
		renterdomain.ErrInvalidStall,
		renterdomain.ErrInvalidSection:
		return true
	default:
		return false
	}
}
