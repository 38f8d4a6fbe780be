package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
)

type createAccountRequest struct {
	FirstName   string `json:"firstname"`
	MiddleName  string `json:"middlename"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	GrantAccess bool   `json:"grant_access"`
}

type updateAccountRequest struct {
	FirstName  string `json:"firstname"`
	MiddleName string `json:"middlename"`
	LastName   string `json:"lastname"`
	Email      string `json:"email"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateAccountRequest{
		FirstName:   strings.TrimSpace(req.FirstName),
		MiddleName:  strings.TrimSpace(req.MiddleName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		GrantAccess: req.GrantAccess,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAccounts(c *gin.Context) {
	var query struct {
		rangeQuery
		ID      string `form:"id"`
		Keyword string `form:"keyword"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.List(c.Request.Context(), accountdomain.ListAccountRequest{
		Range:   query.toRange(),
		ID:      strings.TrimSpace(query.ID),
		Keyword: strings.TrimSpace(query.Keyword),
		Status:  strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccountByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.accountSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.Update(c.Request.Context(), accountdomain.UpdateAccountRequest{
		ID:         id,
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: strings.TrimSpace(req.MiddleName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.TrimSpace(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateAccount(c *gin.Context) {
	s.setAccountStatus(c, referencedomain.StatusActive)
}

func (s *Server) DeactivateAccount(c *gin.Context) {
	s.setAccountStatus(c, referencedomain.StatusInactive)
}

func (s *Server) setAccountStatus(c *gin.Context, status referencedomain.Status) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.accountSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GrantAccountAccess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.accountSvc.GrantAccess(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RevokeAccountAccess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.accountSvc.RevokeAccess(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAccountValidationError(err error) bool {
	switch err {
	case accountdomain.ErrInvalidOrganization,
		accountdomain.ErrInvalidID,
		accountdomain.ErrInvalidFirstName,
		accountdomain.ErrInvalidLastName,
		accountdomain.ErrInvalidEmail:
		return true
	default:
		return false
	}
}
