package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/middleware"
)

// EntryRoutes sets up the routes for catalog entries. Every lookup is scoped
// to the caller's groups, so foreign entries answer 404.
func (h *Handler) EntryRoutes(api *gin.RouterGroup) {
	entries := api.Group("/entries")
	{
		entries.GET("", h.GetAllEntries())
		entries.POST("", h.CreateEntry())
		entries.GET("/:entry_id", h.GetEntry())
		entries.PATCH("/:entry_id", h.UpdateEntry())
		entries.DELETE("/:entry_id", h.DeleteEntry())
	}
}

// GetAllEntries lists entries using the list view filters (only_to_by,
// group, flat_view) plus search and pagination.
func (h *Handler) GetAllEntries() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, ok := h.pageParams(c)
		if !ok {
			return
		}
		filter := catalog.Filter{
			State:  catalog.ParseQueryState(c.Request.URL.Query()),
			UserID: middleware.GetUserID(c),
		}
		terms := catalog.SplitSearchTerms(c.Query("search"))

		entries, total, err := catalog.ListEntries(c.Request.Context(), h.DB, filter, terms, page)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp := pageMeta(page, total)
		resp["entries"] = entries
		c.JSON(http.StatusOK, resp)
	}
}

// CreateEntry handles the creation of a new entry in the current group
func (h *Handler) CreateEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name         string   `json:"name" binding:"required"`
			Groups       []uint   `json:"groups"`
			NewGroups    []string `json:"new_groups"`
			CatalogGroup *uint    `json:"catalog_group"`
			ToBuy        bool     `json:"to_buy"`
			Count        float64  `json:"count"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}

		entry, err := catalog.CreateEntry(c.Request.Context(), h.DB,
			middleware.CurrentUser(c), middleware.CurrentCatalogGroup(c),
			catalog.NewEntry{
				Name:           req.Name,
				GroupIDs:       req.Groups,
				GroupTitles:    req.NewGroups,
				CatalogGroupID: req.CatalogGroup,
				ToBuy:          req.ToBuy,
				Count:          req.Count,
			}, h.now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entry": entry})
	}
}

func (h *Handler) GetEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "entry_id")
		if !ok {
			return
		}
		entry, err := catalog.GetEntry(c.Request.Context(), h.DB, middleware.CurrentUser(c), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entry": entry})
	}
}

func (h *Handler) UpdateEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "entry_id")
		if !ok {
			return
		}
		var req struct {
			ToBuy *bool    `json:"to_buy"`
			Count *float64 `json:"count"`
		}
		if !h.bindJSON(c, &req, false) {
			return
		}
		entry, err := catalog.UpdateEntry(c.Request.Context(), h.DB, middleware.CurrentUser(c), id,
			catalog.EntryPatch{ToBuy: req.ToBuy, Count: req.Count})
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entry": entry})
	}
}

func (h *Handler) DeleteEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "entry_id")
		if !ok {
			return
		}
		if err := catalog.DeleteEntry(c.Request.Context(), h.DB, middleware.CurrentUser(c), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Entry deleted successfully"})
	}
}
