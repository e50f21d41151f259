package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/middleware"
)

// ItemRoutes sets up the routes for item definitions seen from the current
// catalog group.
func (h *Handler) ItemRoutes(api *gin.RouterGroup) {
	items := api.Group("/items")
	{
		items.GET("", h.GetAllItems())
		items.GET("/:item_id", h.GetItem())
		items.PATCH("/:item_id", h.UpdateItem())
	}
}

// GetAllItems lists item definitions with the current group's buy status.
// Supports search plus page/page_size.
func (h *Handler) GetAllItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, ok := h.pageParams(c)
		if !ok {
			return
		}
		terms := catalog.SplitSearchTerms(c.Query("search"))
		items, total, err := catalog.ListItems(c.Request.Context(), h.DB, middleware.CurrentCatalogGroup(c), terms, page)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp := pageMeta(page, total)
		resp["items"] = items
		c.JSON(http.StatusOK, resp)
	}
}

// GetItem retrieves an item definition by ID
func (h *Handler) GetItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "item_id")
		if !ok {
			return
		}
		item, err := catalog.GetItem(c.Request.Context(), h.DB, middleware.CurrentCatalogGroup(c), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

// UpdateItem sets to_buy (and optionally count) for the item in the current
// catalog group, creating the entry on first use.
func (h *Handler) UpdateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "item_id")
		if !ok {
			return
		}
		var req struct {
			ToBuy *bool    `json:"to_buy" binding:"required"`
			Count *float64 `json:"count"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		group := middleware.CurrentCatalogGroup(c)
		if _, err := catalog.SetToBuy(c.Request.Context(), h.DB, group, id, *req.ToBuy, req.Count, h.now()); err != nil {
			h.respondError(c, err)
			return
		}
		item, err := catalog.GetItem(c.Request.Context(), h.DB, group, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}
