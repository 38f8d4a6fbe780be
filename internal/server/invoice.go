package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	pdfContentType = "application/pdf"

	// periodOptionCount is how many months, starting with the current one,
	// are offered for generation.
	periodOptionCount = 2
)

type invoiceRequest struct {
	RenterID    string `json:"renter_id"`
	Type        string `json:"type"`
	InvoiceDate string `json:"invoice_date"`
	DueDate     string `json:"due_date"`
	Amount      string `json:"amount"`
}

func (r invoiceRequest) toDomain() invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		RenterID:    strings.TrimSpace(r.RenterID),
		Type:        strings.TrimSpace(r.Type),
		InvoiceDate: strings.TrimSpace(r.InvoiceDate),
		DueDate:     strings.TrimSpace(r.DueDate),
		Amount:      strings.TrimSpace(r.Amount),
	}
}

type generateInvoicesRequest struct {
	Period    string `json:"period"`
	Confirmed bool   `json:"confirmed"`
}

type periodOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		rangeQuery
		RenterID string `form:"renter_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Range:    query.toRange(),
		RenterID: strings.TrimSpace(query.RenterID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:                   id,
		CreateInvoiceRequest: req.toDomain(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	item, err := s.invoiceSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.RenderInvoice(ctx, item)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, pdfContentType, doc, pdfHeaders("invoice", item.InvoiceNumber))
}

// GenerateInvoices runs the monthly generation for one period. The caller
// must acknowledge the run with confirmed=true.
func (s *Server) GenerateInvoices(c *gin.Context) {
	var req generateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	period, err := invoicedomain.ParsePeriod(req.Period)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("invoice_period", period.Key())

	if !req.Confirmed {
		AbortWithError(c, invoicedomain.ErrConfirmationRequired)
		return
	}

	ctx := c.Request.Context()
	result, err := s.generator.Generate(ctx, invoicedomain.GenerateRequest{
		Period:    period,
		Confirmed: req.Confirmed,
	})
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("invoice generation failed",
			zap.String("period", period.Key()),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListGenerations(c *gin.Context) {
	var query rangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.ListGenerations(c.Request.Context(), invoicedomain.ListGenerationRequest{
		Range: query.toRange(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGenerationPeriods(c *gin.Context) {
	periods := invoicedomain.PeriodOptions(s.clock.Now(), periodOptionCount)
	options := make([]periodOption, 0, len(periods))
	for _, p := range periods {
		options = append(options, periodOption{Value: p.Key(), Label: p.Label()})
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidOrganization,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidPeriod,
		invoicedomain.ErrInvalidRenter,
		invoicedomain.ErrInvalidType,
		invoicedomain.ErrInvalidAmount,
		invoicedomain.ErrInvalidInvoiceDate,
		invoicedomain.ErrInvalidDueDate,
		invoicedomain.ErrConfirmationRequired:
		return true
	default:
		return false
	}
}

// pdfHeaders serves a PDF inline under a filename slugged from parts.
func pdfHeaders(parts ...string) map[string]string {
	name := slug.Make(strings.Join(parts, " "))
	if name == "" {
		name = "document"
	}
	return map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s.pdf"`, name),
	}
}
