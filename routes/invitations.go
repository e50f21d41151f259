package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
)

func (h *Handler) InvitationRoutes(api *gin.RouterGroup) {
	invitations := api.Group("/invitations")
	{
		invitations.GET("/:invitation_id", h.GetInvitation())
		invitations.POST("/:invitation_id/accept", h.AcceptInvitation())
	}
}

// CreateInvitation issues an invitation to the group in the path.
func (h *Handler) CreateInvitation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.paramID(c, "group_id")
		if !ok {
			return
		}
		inv, err := catalog.CreateInvitation(c.Request.Context(), h.DB, middleware.CurrentUser(c), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"invitation": h.invitationResponse(inv)})
	}
}

// GetInvitation shows an invitation to whoever holds its token.
func (h *Handler) GetInvitation() gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := catalog.GetInvitation(c.Request.Context(), h.DB, c.Param("invitation_id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invitation": h.invitationResponse(inv)})
	}
}

// AcceptInvitation answers 200 on success, 400 when already used, 409 on an
// ownership conflict and 410 once expired.
func (h *Handler) AcceptInvitation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AcceptAndLeave bool `json:"accept_and_leave"`
		}
		if !h.bindJSON(c, &req, true) {
			return
		}

		user := middleware.CurrentUser(c)
		inv, err := catalog.AcceptInvitation(c.Request.Context(), h.DB, catalog.AcceptRequest{
			InvitationID:  c.Param("invitation_id"),
			User:          user,
			LeaveExisting: req.AcceptAndLeave,
			Now:           h.now(),
			TTL:           h.Config.InvitationTTL(),
		})
		if err != nil {
			h.respondError(c, err)
			return
		}

		h.log(c).Info("invitation accepted",
			logger.String("invitation_id", inv.ID),
			logger.Uint("group_id", inv.CatalogGroupID),
			logger.Uint("user_id", user.ID),
		)
		c.JSON(http.StatusOK, gin.H{
			"message":    "Invitation accepted",
			"invitation": h.invitationResponse(inv),
		})
	}
}
