package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"studioaljo/internal/auth"
	"studioaljo/internal/domain"
)

const (
	subjectKey      = "auth.subject"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-Id"
)

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := allowed[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// requireToken verifies the bearer token when auth is enforced.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.enforceAuth {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			writeDetail(c, http.StatusUnauthorized, "Not authenticated")
			c.Abort()
			return
		}

		subject, err := h.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			detail := "Invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				detail = "Token expired"
			}
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeDetail(c, http.StatusUnauthorized, detail)
			c.Abort()
			return
		}

		c.Set(subjectKey, domain.NormalizeEmail(subject))
		c.Next()
	}
}

// authorize reports whether the caller may act for email, writing 403 otherwise.
func (h *Handler) authorize(c *gin.Context, email string) bool {
	if !h.enforceAuth {
		return true
	}
	if c.GetString(subjectKey) != domain.NormalizeEmail(email) {
		writeDetail(c, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}
