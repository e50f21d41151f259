package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
	"github.com/sidhant-sriv/home-catalog/web"
)

const catalogPath = "/catalog/"

// WebRoutes sets up the server-rendered catalog pages behind a cookie
// session.
func (h *Handler) WebRoutes(router *gin.Engine) {
	pages := router.Group("/catalog")
	pages.Use(
		middleware.SessionAuth(h.Sessions, h.DB),
		middleware.CSRF(h.Config.SessionSecret, h.Config.SecureCookies()),
	)
	{
		pages.GET("/login/", h.LoginPage())
		pages.POST("/login/", h.LoginSubmit())
		pages.POST("/logout", h.Logout())
	}

	protected := pages.Group("")
	protected.Use(middleware.RequireLogin(), middleware.CatalogGroup(h.DB))
	{
		protected.GET("/", h.ListPage())
		protected.GET("/create", h.CreatePage())
		protected.POST("/create", h.CreateSubmit())
		protected.GET("/update/:entry_id", h.UpdateNotAllowed())
		protected.POST("/update/:entry_id", h.UpdateSubmit())
	}
}

// page fills the header data, including the CSRF token every form posts back.
func (h *Handler) page(c *gin.Context, title string) web.Page {
	return web.Page{
		Title:     title,
		User:      middleware.CurrentUser(c),
		CSRFToken: middleware.CSRFToken(c),
	}
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error", web.ErrorPage{
		Page:    h.page(c, http.StatusText(status)),
		Status:  status,
		Message: message,
	})
}

// pageFailed renders domain errors as HTML instead of JSON.
func (h *Handler) pageFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.renderError(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, catalog.ErrForbidden):
		h.renderError(c, http.StatusForbidden, err.Error())
	default:
		_ = c.Error(err)
		h.log(c).Error("page failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		h.renderError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

// safeNext only allows local absolute paths as a post-login target.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return catalogPath
}

func (h *Handler) LoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		next := safeNext(c.Query("next"))
		if middleware.CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, next)
			return
		}
		c.HTML(http.StatusOK, "login", web.LoginPage{
			Page: h.page(c, "Log in"),
			Next: next,
		})
	}
}

func (h *Handler) LoginSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.PostForm("username"))
		next := safeNext(c.PostForm("next"))

		user, err := h.authenticate(c, username, c.PostForm("password"))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				h.pageFailed(c, err)
				return
			}
			c.HTML(http.StatusOK, "login", web.LoginPage{
				Page:     h.page(c, "Log in"),
				Next:     next,
				Username: username,
				Error:    "Please enter a correct username and password.",
			})
			return
		}

		if err := middleware.LogIn(c, h.Sessions, user); err != nil {
			h.pageFailed(c, fmt.Errorf("failed to save session: %w", err))
			return
		}
		h.log(c).Info("browser login", logger.Uint("user_id", user.ID))
		c.Redirect(http.StatusFound, next)
	}
}

func (h *Handler) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := middleware.LogOut(c, h.Sessions); err != nil {
			h.pageFailed(c, fmt.Errorf("failed to clear session: %w", err))
			return
		}
		c.Redirect(http.StatusFound, middleware.LoginPath)
	}
}

// ListPage shows the current user's entries, filtered by the query state.
func (h *Handler) ListPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		state := catalog.ParseQueryState(c.Request.URL.Query())
		filter := catalog.Filter{State: state, UserID: user.ID}

		data := web.ListPage{
			Page:  h.page(c, "Catalog"),
			Group: middleware.CurrentCatalogGroup(c),
			State: state,
			Query: web.QueryURL(state),
		}

		if state.Has(catalog.ParamGroup) {
			id, ok := state.GroupID()
			if !ok {
				h.renderError(c, http.StatusNotFound, "No such group.")
				return
			}
			group, err := catalog.GetItemGroup(ctx, h.DB, id)
			if err != nil {
				h.pageFailed(c, err)
				return
			}
			data.SelectedGroup = group
		}

		entries, _, err := catalog.ListEntries(ctx, h.DB, filter, nil, catalog.Page{})
		if err != nil {
			h.pageFailed(c, err)
			return
		}
		picker, err := catalog.ListPickerGroups(ctx, h.DB, filter)
		if err != nil {
			h.pageFailed(c, err)
			return
		}
		data.Entries = entries
		data.PickerGroups = picker

		c.HTML(http.StatusOK, "list", data)
	}
}

func (h *Handler) renderCreate(c *gin.Context, status int, data web.CreatePage) {
	groups, err := catalog.ListItemGroups(c.Request.Context(), h.DB)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	data.Page = h.page(c, "Add item")
	data.ItemGroups = groups
	if data.Selected == nil {
		data.Selected = map[uint]bool{}
	}
	c.HTML(status, "create", data)
}

// parseGroupIDs reads the multi-valued group field. Anything that is not an
// id is reported against the field.
func parseGroupIDs(values []string) ([]uint, catalog.ValidationErrors) {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return nil, catalog.ValidationErrors{"group": {fmt.Sprintf("%q is not a valid value.", v)}}
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

// CreatePage renders the add form, optionally prefilled with name and group.
func (h *Handler) CreatePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := web.CreatePage{
			Name:     c.Query("name"),
			Selected: map[uint]bool{},
		}
		if ids, verr := parseGroupIDs(c.QueryArray("group")); verr == nil {
			for _, id := range ids {
				data.Selected[id] = true
			}
		}
		h.renderCreate(c, http.StatusOK, data)
	}
}

func (h *Handler) CreateSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := web.CreatePage{
			Name:     c.PostForm("name"),
			NewGroup: c.PostForm("new_group"),
			Selected: map[uint]bool{},
		}

		ids, verr := parseGroupIDs(c.PostFormArray("group"))
		if verr != nil {
			data.Errors = verr
			h.renderCreate(c, http.StatusOK, data)
			return
		}
		for _, id := range ids {
			data.Selected[id] = true
		}

		in := catalog.NewEntry{Name: data.Name, GroupIDs: ids}
		if title := strings.TrimSpace(data.NewGroup); title != "" {
			in.GroupTitles = []string{title}
		}

		_, err := catalog.CreateEntry(c.Request.Context(), h.DB,
			middleware.CurrentUser(c), middleware.CurrentCatalogGroup(c), in, h.now())
		var fieldErrs catalog.ValidationErrors
		switch {
		case errors.As(err, &fieldErrs):
			data.Errors = fieldErrs
			h.renderCreate(c, http.StatusOK, data)
		case err != nil:
			h.pageFailed(c, err)
		default:
			c.Redirect(http.StatusFound, catalogPath)
		}
	}
}

func (h *Handler) UpdateNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.renderError(c, http.StatusBadRequest, "Updates must be submitted with POST.")
	}
}

// UpdateSubmit flips to_buy on an entry and returns to the list with the
// same filters applied.
func (h *Handler) UpdateSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("entry_id"), 10, 64)
		if err != nil || id == 0 {
			h.renderError(c, http.StatusNotFound, "Not found.")
			return
		}
		if _, err := catalog.ToggleEntry(c.Request.Context(), h.DB, middleware.CurrentUser(c), uint(id)); err != nil {
			h.pageFailed(c, err)
			return
		}

		target := catalogPath
		if q := catalog.ParseQueryState(c.Request.URL.Query()).Encode(); q != "" {
			target += "?" + q
		}
		c.Redirect(http.StatusFound, target)
	}
}
