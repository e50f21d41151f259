package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/middleware"
)

// ItemGroupRoutes sets up the routes for the shared item groups. Anyone
// signed in may list and create them; changing one is for superusers.
func (h *Handler) ItemGroupRoutes(api *gin.RouterGroup) {
	groups := api.Group("/item-groups")
	{
		groups.GET("", h.GetAllItemGroups())
		groups.POST("", h.CreateItemGroup())
		groups.GET("/:group_id", h.GetItemGroup())
		groups.PUT("/:group_id", h.UpdateItemGroup())
		groups.DELETE("/:group_id", h.DeleteItemGroup())
	}
}

type itemGroupRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) GetAllItemGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := catalog.ListItemGroups(c.Request.Context(), h.DB)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item_groups": groups})
	}
}

func (h *Handler) CreateItemGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemGroupRequest
		if !h.bindJSON(c, &req, false) {
			return
		}
		group, err := catalog.CreateItemGroup(c.Request.Context(), h.DB, req.Title)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"item_group": group})
	}
}

func (h *Handler) GetItemGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		group, err := catalog.GetItemGroup(c.Request.Context(), h.DB, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item_group": group})
	}
}

func (h *Handler) UpdateItemGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		var req itemGroupRequest
		if !h.bindJSON(c, &req, false) {
			return
		}
		group, err := catalog.RenameItemGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), id, req.Title)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item_group": group})
	}
}

// DeleteItemGroup refuses to delete a group still attached to items.
func (h *Handler) DeleteItemGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		if err := catalog.DeleteItemGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item group deleted successfully"})
	}
}
