package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/authorization"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	locationdomain "github.com/smallbiznis/collections/internal/location/domain"
	nonrentabledomain "github.com/smallbiznis/collections/internal/nonrentable/domain"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	renterdomain "github.com/smallbiznis/collections/internal/renter/domain"
	sectiondomain "github.com/smallbiznis/collections/internal/section/domain"
	stalldomain "github.com/smallbiznis/collections/internal/stall/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

const persistenceFailedMessage = "saving failed, please contact support"

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog returns the error type and code attached to request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

// errorRule maps a family of errors to a response. Rules are tried in order.
type errorRule struct {
	match   func(error) bool
	status  int
	errType string
	message func(error) string
}

func is(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

func fixed(message string) func(error) string {
	return func(error) string { return message }
}

var errorRules = []errorRule{
	{is(ErrUnauthorized, authorization.ErrInvalidActor), http.StatusUnauthorized, "unauthorized", fixed("unauthorized")},
	{is(ErrForbidden, authorization.ErrForbidden), http.StatusForbidden, "forbidden", fixed("forbidden")},
	{is(invoicedomain.ErrAlreadyGenerated), http.StatusConflict, "already_generated", fixed("invoices for this period have already been generated")},
	{is(invoicedomain.ErrGenerationInProgress), http.StatusConflict, "generation_in_progress", fixed("invoices for this period are being generated")},
	{is(invoicedomain.ErrNoBillableUnits), http.StatusUnprocessableEntity, "no_billable_units", fixed("there are no active stalls to bill")},
	{is(invoicedomain.ErrPersistence), http.StatusInternalServerError, "persistence_failed", fixed(persistenceFailedMessage)},
	{
		is(ErrConflict, accountdomain.ErrEmailTaken, stalldomain.ErrRenterOccupied, renterdomain.ErrStallOccupied, gorm.ErrDuplicatedKey),
		http.StatusConflict, "conflict", conflictMessage,
	},
	{isNotFoundError, http.StatusNotFound, "not_found", fixed("not found")},
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: "validation error", Errors: vErr.Errors}
	}
	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   validationErrorField(code),
				Code:    code,
				Message: validationErrorMessage(code),
			}},
		}
	}

	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.status, errorPayload{Type: rule.errType, Message: rule.message(err)}
		}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	checks := []func(error) bool{
		is(ErrInvalidRequest, referencedomain.ErrInvalidStatus, referencedomain.ErrInvalidRentType, authorization.ErrInvalidOrganization),
		isLocationValidationError,
		isSectionValidationError,
		isStallValidationError,
		isNonrentableValidationError,
		isRenterValidationError,
		isInvoiceValidationError,
		isAccountValidationError,
		isLogValidationError,
	}
	for _, check := range checks {
		if check(err) {
			return true
		}
	}
	return false
}

var isNotFoundError = is(
	ErrNotFound,
	locationdomain.ErrNotFound,
	sectiondomain.ErrNotFound,
	stalldomain.ErrNotFound,
	nonrentabledomain.ErrNotFound,
	renterdomain.ErrNotFound,
	invoicedomain.ErrNotFound,
	accountdomain.ErrNotFound,
	gorm.ErrRecordNotFound,
)

var isLogValidationError = is(
	changelogdomain.ErrInvalidOrganization,
	changelogdomain.ErrInvalidEntityKind,
	changelogdomain.ErrInvalidEntityID,
	changelogdomain.ErrInvalidPageToken,
	errorlogdomain.ErrInvalidOrganization,
	errorlogdomain.ErrInvalidPageToken,
	errorlogdomain.ErrInvalidTransaction,
)

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, accountdomain.ErrEmailTaken):
		return "email is already registered"
	case errors.Is(err, stalldomain.ErrRenterOccupied):
		return "renter already occupies another stall"
	case errors.Is(err, renterdomain.ErrStallOccupied):
		return "stall is already occupied"
	default:
		return "conflict"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case code == invoicedomain.ErrConfirmationRequired.Error():
		return "confirmed"
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "confirmation_required":
		return "generation must be confirmed"
	default:
		return "invalid value"
	}
}
