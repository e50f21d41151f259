package middleware

import (
	"crypto/sha256"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFField is the form field carrying the token.
const CSRFField = "gorilla.csrf.Token"

// CSRF guards unsafe methods of the cookie-session pages with gorilla/csrf.
// The key is derived from the session secret. Without secure cookies the
// app runs over plain HTTP, so the Referer check meant for TLS is skipped.
func CSRF(sessionSecret string, secure bool) gin.HandlerFunc {
	key := sha256.Sum256([]byte("csrf:" + sessionSecret))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFField),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}
		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	reason := "CSRF token missing or incorrect"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	http.Error(w, "Forbidden: "+reason, http.StatusForbidden)
}

// CSRFToken returns the masked token to embed in the page's forms.
func CSRFToken(c *gin.Context) string {
	return csrf.Token(c.Request)
}
