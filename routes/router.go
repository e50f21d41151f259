package routes

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/config"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
	"github.com/sidhant-sriv/home-catalog/web"
	"gorm.io/gorm"
)

// Handler carries the dependencies shared by every route.
type Handler struct {
	DB       *gorm.DB
	Log      logger.Logger
	Config   *config.Config
	Tokens   *auth.TokenManager
	Sessions sessions.Store
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// log returns the request-scoped logger so entries carry the request id.
func (h *Handler) log(c *gin.Context) logger.Logger {
	return middleware.RequestLog(c, h.Log)
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json tag names, so binding
// errors can be keyed like the request body.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				for _, tag := range []string{"json", "form"} {
					name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
					if name == "-" {
						return ""
					}
					if name != "" {
						return name
					}
				}
				return fld.Name
			})
		}
	})
}

// NewRouter builds the gin engine with every API and HTML route.
func NewRouter(h *Handler) (*gin.Engine, error) {
	useJSONFieldNames()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(h.Log))
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	h.AuthRoutes(router)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Tokens, h.DB), middleware.CatalogGroup(h.DB))
	{
		h.UserRoutes(api)
		h.ItemRoutes(api)
		h.EntryRoutes(api)
		h.ItemGroupRoutes(api)
		h.CatalogGroupRoutes(api)
		h.InvitationRoutes(api)
	}

	h.WebRoutes(router)
	return router, nil
}
