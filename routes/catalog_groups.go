package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
	"github.com/sidhant-sriv/home-catalog/models"
)

// CatalogGroupRoutes sets up the catalog group routes. Reads and writes of a
// single group need the caller to own it or be a superuser.
func (h *Handler) CatalogGroupRoutes(api *gin.RouterGroup) {
	groups := api.Group("/catalog-groups")
	{
		groups.GET("", h.GetOwnCatalogGroups())
		groups.POST("", h.CreateCatalogGroup())
		groups.GET("/:group_id", h.GetCatalogGroup())
		groups.PUT("/:group_id", h.UpdateCatalogGroup())
		groups.PATCH("/:group_id", h.UpdateCatalogGroup())
		groups.DELETE("/:group_id", h.DeleteCatalogGroup())
		groups.POST("/:group_id/create-invitation", h.CreateInvitation())
	}
}

type catalogGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) GetOwnCatalogGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := catalog.ListOwnGroups(c.Request.Context(), h.DB, middleware.GetUserID(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp, err := h.groupResponses(c, groups)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"catalog_groups": resp})
	}
}

func (h *Handler) CreateCatalogGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalogGroupRequest
		if !h.bindJSON(c, &req, false) {
			return
		}
		group, err := catalog.CreateGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), req.Name)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.log(c).Info("catalog group created",
			logger.Uint("group_id", group.ID),
			logger.Uint("user_id", middleware.GetUserID(c)),
		)
		h.writeGroup(c, http.StatusCreated, group)
	}
}

func (h *Handler) GetCatalogGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		group, err := catalog.GetGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.writeGroup(c, http.StatusOK, group)
	}
}

func (h *Handler) UpdateCatalogGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		var req catalogGroupRequest
		if !h.bindJSON(c, &req, false) {
			return
		}
		group, err := catalog.RenameGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), id, req.Name)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.writeGroup(c, http.StatusOK, group)
	}
}

func (h *Handler) DeleteCatalogGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		if err := catalog.DeleteGroup(c.Request.Context(), h.DB, middleware.CurrentUser(c), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Catalog group deleted successfully"})
	}
}

func (h *Handler) writeGroup(c *gin.Context, status int, group *models.CatalogGroup) {
	resp, err := h.groupResponse(c, group)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"catalog_group": resp})
}
