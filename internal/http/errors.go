package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"studioaljo/internal/domain"
	"studioaljo/internal/service"
)

var fieldNamesOnce sync.Once

// registerFieldNames makes validation errors report json/form field names.
func registerFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

func writeDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// writeError is the single place service errors become status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request error")
	}
	writeDetail(c, status, detail)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrGalleryItemNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "Out of credits"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMeta):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusInternalServerError, "Store unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		writeDetail(c, http.StatusBadRequest, describeFieldError(verrs[0]))
		return
	}
	if errors.Is(err, domain.ErrInvalidMeta) {
		writeDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	writeDetail(c, http.StatusBadRequest, "invalid request body")
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
