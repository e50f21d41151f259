package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

const catalogGroupKey = "catalog_group"

// CatalogGroup resolves the catalog group of the authenticated user once per
// request. Anonymous requests pass through untouched.
func CatalogGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Next()
			return
		}
		group, err := catalog.CurrentGroup(c.Request.Context(), db, user.ID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve catalog group"})
			return
		}
		if group != nil {
			c.Set(catalogGroupKey, group)
		}
		c.Next()
	}
}

// CurrentCatalogGroup returns the group resolved by CatalogGroup, or nil when
// the user owns none.
func CurrentCatalogGroup(c *gin.Context) *models.CatalogGroup {
	if v, ok := c.Get(catalogGroupKey); ok {
		if g, ok := v.(*models.CatalogGroup); ok {
			return g
		}
	}
	return nil
}
