package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

const (
	SessionName = "home-catalog-session"
	LoginPath   = "/catalog/login/"
)

// NewSessionStore returns the cookie store backing the HTML login.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionAuth loads the user of a logged in browser session, if any.
func SessionAuth(store sessions.Store, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := store.Get(c.Request, SessionName)
		if id, ok := sess.Values[userIDKey].(uint); ok && id != 0 {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, id).Error; err == nil {
				setUser(c, &user)
			}
		}
		c.Next()
	}
}

// RequireLogin sends anonymous browsers to the login page, remembering where
// they were going.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogIn stores user in the browser session.
func LogIn(c *gin.Context, store sessions.Store, user *models.User) error {
	sess, _ := store.Get(c.Request, SessionName)
	sess.Values[userIDKey] = user.ID
	return sess.Save(c.Request, c.Writer)
}

// LogOut expires the browser session cookie.
func LogOut(c *gin.Context, store sessions.Store) error {
	sess, _ := store.Get(c.Request, SessionName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}
