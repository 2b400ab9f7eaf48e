package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type csrfConfig struct {
	cookieName string
	headerName string
	maxAge     int
}

func defaultCSRF() csrfConfig {
	return csrfConfig{
		cookieName: "csrf_token",
		headerName: "X-CSRF-Token",
		maxAge:     24 * 60 * 60,
	}
}

// CSRFMiddleware enforces double-submit CSRF protection on state-changing requests.
func (h *Handler) CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requiresCSRFCheck(c.Request.Method) {
			c.Next()
			return
		}
		headerToken := c.GetHeader(h.csrf.headerName)
		cookieToken, err := c.Cookie(h.csrf.cookieName)
		if err != nil || headerToken == "" || cookieToken == "" || headerToken != cookieToken {
			respondError(c, http.StatusForbidden, "invalid csrf token")
			return
		}
		c.Next()
	}
}

func requiresCSRFCheck(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func (h *Handler) issueCSRFCookie(c *gin.Context) error {
	token, err := generateToken()
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.csrf.cookieName,
		Value:    token,
		MaxAge:   h.csrf.maxAge,
		Path:     "/",
		Secure:   gin.Mode() == gin.ReleaseMode,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
