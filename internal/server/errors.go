package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	pkgdb "github.com/northlink/partnerhub/pkg/db"
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
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

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

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var inputErr *commissiondomain.ValidationError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  commissionFieldErrors(inputErr.Fields),
		}
	}

	var addrErr *territorydomain.AddressError
	if errors.As(err, &addrErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  territoryFieldErrors(addrErr.Fields),
		}
	}

	var batchErr *commissiondomain.BatchError
	if errors.As(err, &batchErr) {
		items := make([]ValidationError, 0, len(batchErr.Items))
		for _, item := range batchErr.Items {
			items = append(items, ValidationError{
				Field:   fmt.Sprintf("inputs[%d]", item.Index),
				Code:    "calculation_failed",
				Message: item.Error(),
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "batch calculation failed",
			Errors:  items,
		}
	}

	var eligErr *commissiondomain.EligibilityError
	if errors.As(err, &eligErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "business_rule",
			Message: eligErr.Error(),
		}
	}

	var capErr *commissiondomain.RateCapError
	if errors.As(err, &capErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "policy_violation",
			Message: capErr.Error(),
		}
	}

	switch {
	case isConfigurationError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "configuration_error",
			Message: err.Error(),
		}
	case isDomainValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: "invalid value",
				},
			},
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case pkgdb.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "resource already exists",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isConfigurationError(err error) bool {
	switch {
	case errors.Is(err, commissiondomain.ErrUnknownTier),
		errors.Is(err, commissiondomain.ErrNoTiersConfigured),
		errors.Is(err, commissiondomain.ErrInvalidTierCode),
		errors.Is(err, commissiondomain.ErrInvalidTierRate),
		errors.Is(err, commissiondomain.ErrInvalidTierRevenue),
		errors.Is(err, commissiondomain.ErrInvalidTierMultiplier):
		return true
	default:
		return false
	}
}

func isDomainValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, territorydomain.ErrInvalidTerritoryID),
		errors.Is(err, territorydomain.ErrInvalidTerritoryName),
		errors.Is(err, territorydomain.ErrInvalidPartner),
		errors.Is(err, territorydomain.ErrInvalidPriority),
		errors.Is(err, territorydomain.ErrInvalidPolygon),
		errors.Is(err, partnerdomain.ErrInvalidPartnerName),
		errors.Is(err, partnerdomain.ErrInvalidRevenue):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, commissiondomain.ErrRecordNotFound),
		errors.Is(err, territorydomain.ErrTerritoryNotFound),
		errors.Is(err, partnerdomain.ErrPartnerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func commissionFieldErrors(fields []commissiondomain.FieldError) []ValidationError {
	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
	}
	return out
}

func territoryFieldErrors(fields []territorydomain.FieldError) []ValidationError {
	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
	}
	return out
}

// classifyErrorForLog buckets errors for the request log without leaking
// internals into access logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status == http.StatusNotFound:
		return "not_found", payload.Type
	default:
		return "client", payload.Type
	}
}
