package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

// AuthRoutes sets up the authentication routes /auth/register, /auth/login, etc.
func (h *Handler) AuthRoutes(router *gin.Engine) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register())
		authGroup.POST("/login", h.Login())
		authGroup.POST("/refresh", h.RefreshToken())
	}
}

var usernameTaken = catalog.ValidationErrors{"username": {"A user with that username already exists."}}

// Register handles new user registration.
func (h *Handler) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required,max=150"`
			Email    string `json:"email" binding:"omitempty,email,max=254"`
			Password string `json:"password" binding:"required,min=6"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		username := strings.TrimSpace(req.Username)
		var existing int64
		if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
			h.respondError(c, err)
			return
		}
		if existing > 0 {
			h.respondError(c, usernameTaken)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.respondError(c, err)
			return
		}
		user := models.User{Username: username, Email: req.Email, Password: hash}
		if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				err = usernameTaken
			}
			h.respondError(c, err)
			return
		}

		accessToken, refreshToken, err := h.Tokens.Generate(user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}

		h.log(c).Info("user registered", logger.Uint("user_id", user.ID))
		c.JSON(http.StatusCreated, gin.H{
			"message":       "User registered successfully",
			"user":          user,
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		})
	}
}

// Login handles user login requests.
func (h *Handler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		user, err := h.authenticate(c, req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		accessToken, refreshToken, err := h.Tokens.Generate(user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Login successful",
			"user":          user,
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		})
	}
}

// authenticate checks a username and password pair.
func (h *Handler) authenticate(c *gin.Context, username, password string) (*models.User, error) {
	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (h *Handler) RefreshToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		userID, err := h.Tokens.Validate(req.RefreshToken, auth.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		var user models.User
		if err := h.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "User associated with token not found"})
				return
			}
			h.respondError(c, err)
			return
		}

		accessToken, refreshToken, err := h.Tokens.Generate(user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Tokens refreshed successfully",
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		})
	}
}
