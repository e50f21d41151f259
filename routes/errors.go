package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/logger"
	"gorm.io/gorm"
)

// respondError maps domain errors onto API responses. Anything unexpected is
// logged and reported as a 500 without details.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr catalog.ValidationErrors
	var conflict *catalog.OwnershipConflictError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr)
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":                    conflict.Error(),
			"code":                     catalog.CodeOwnershipConflict,
			"conflicting_catalog_name": conflict.GroupName,
		})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrInvitationAccepted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrInvitationExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrItemGroupInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete item group with linked items"})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, catalog.ValidationErrors{"password": {err.Error()}})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusBadRequest, catalog.ValidationErrors{catalog.NonFieldErrors: {"An object with these values already exists."}})
	default:
		_ = c.Error(err)
		h.log(c).Error("request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the request body into req. It answers 400 and returns
// false when the body is malformed or fails validation. An empty body is
// accepted when allowEmpty is set.
func (h *Handler) bindJSON(c *gin.Context, req interface{}, allowEmpty bool) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	c.JSON(http.StatusBadRequest, bindingErrors(err))
	return false
}

// bindingErrors converts gin binding failures into field errors.
func bindingErrors(err error) catalog.ValidationErrors {
	out := catalog.ValidationErrors{}

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			out.Add(fe.Field(), validationMessage(fe))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		out.Add(typeErr.Field, fmt.Sprintf("Expected a %s.", typeErr.Type.Kind()))
	case errors.Is(err, io.EOF):
		out.Add(catalog.NonFieldErrors, "Request body is empty.")
	default:
		out.Add(catalog.NonFieldErrors, "Invalid JSON: "+err.Error())
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return catalog.MsgRequired
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}

// paramID parses a numeric path parameter, answering 404 when it is not one.
func (h *Handler) paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return 0, false
	}
	return uint(id), true
}

// pageParams reads page and page_size (1-100) from the query string.
func (h *Handler) pageParams(c *gin.Context) (catalog.Page, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return catalog.Page{}, false
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size parameter (must be 1-100)"})
		return catalog.Page{}, false
	}
	return catalog.Page{Number: page, Size: pageSize}, true
}

func pageMeta(p catalog.Page, total int64) gin.H {
	return gin.H{
		"total":       total,
		"page":        p.Number,
		"page_size":   p.Size,
		"total_pages": (total + int64(p.Size) - 1) / int64(p.Size),
	}
}
