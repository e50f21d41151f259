package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/middleware"
)

func (h *Handler) UserRoutes(api *gin.RouterGroup) {
	api.GET("/users/me", h.GetMe())
	api.PUT("/users/me", h.UpdateMe())
}

// GetMe returns the authenticated user and the catalog groups they own.
func (h *Handler) GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		groups, err := catalog.ListOwnGroups(c.Request.Context(), h.DB, user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp, err := h.groupResponses(c, groups)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "catalog_groups": resp})
	}
}

// UpdateMe changes the email and/or password of the authenticated user.
func (h *Handler) UpdateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    *string `json:"email" binding:"omitempty,email,max=254"`
			Password *string `json:"password" binding:"omitempty,min=6"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		user := middleware.CurrentUser(c)
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				h.respondError(c, err)
				return
			}
			user.Password = hash
		}
		if err := h.DB.WithContext(c.Request.Context()).Save(user).Error; err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
