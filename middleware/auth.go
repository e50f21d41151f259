package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// AuthMiddleware authenticates API requests with a bearer access token and
// loads the user. Missing or bad credentials get 403.
func AuthMiddleware(tokens *auth.TokenManager, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Authentication credentials were not provided."})
			return
		}

		userID, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "), auth.AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User not found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		setUser(c, &user)
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user ID from the Gin context
func GetUserID(c *gin.Context) uint {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return 0
	}
	id, _ := userID.(uint)
	return id
}
