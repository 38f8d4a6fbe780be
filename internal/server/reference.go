package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
)

func (s *Server) ListStatusOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": referencedomain.StatusOptions()})
}

func (s *Server) ListRentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": referencedomain.RentTypes()})
}

func (s *Server) ListInvoiceTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": invoicedomain.InvoiceTypes()})
}

func (s *Server) ListLocationOptions(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	options, err := s.lookup.LocationOptions(ctx, orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) ListSectionOptions(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	locationID, err := parseOptionalSnowflakeID(c.Query("location_id"))
	if err != nil {
		AbortWithError(c, newValidationError("location_id", "invalid_location_id", "invalid location_id"))
		return
	}

	options, err := s.lookup.SectionOptions(ctx, orgID, locationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) ListRenterOptions(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	options, err := s.lookup.ActiveRenterOptions(ctx, orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) ListVacantStallOptions(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	sectionID, err := parseOptionalSnowflakeID(c.Query("section_id"))
	if err != nil {
		AbortWithError(c, newValidationError("section_id", "invalid_section_id", "invalid section_id"))
		return
	}

	options, err := s.lookup.VacantStallOptions(ctx, orgID, sectionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}
