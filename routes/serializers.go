package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/models"
)

type catalogGroupResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Owners    []uint    `json:"owners"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) groupResponses(c *gin.Context, groups []models.CatalogGroup) ([]catalogGroupResponse, error) {
	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	owners, err := catalog.OwnerIDs(c.Request.Context(), h.DB, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]catalogGroupResponse, len(groups))
	for i, g := range groups {
		ownerIDs := owners[g.ID]
		if ownerIDs == nil {
			ownerIDs = []uint{}
		}
		out[i] = catalogGroupResponse{
			ID:        g.ID,
			Name:      g.Name,
			Owners:    ownerIDs,
			CreatedAt: g.CreatedAt,
			UpdatedAt: g.UpdatedAt,
		}
	}
	return out, nil
}

func (h *Handler) groupResponse(c *gin.Context, group *models.CatalogGroup) (*catalogGroupResponse, error) {
	out, err := h.groupResponses(c, []models.CatalogGroup{*group})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

type invitationResponse struct {
	ID               string    `json:"id"`
	CatalogGroup     uint      `json:"catalog_group"`
	CatalogGroupName string    `json:"catalog_group_name"`
	InvitedBy        uint      `json:"invited_by"`
	AcceptedBy       *uint     `json:"accepted_by"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	IsExpired        bool      `json:"is_expired"`
}

func (h *Handler) invitationResponse(inv *models.CatalogGroupInvitation) invitationResponse {
	ttl := h.Config.InvitationTTL()
	return invitationResponse{
		ID:               inv.ID,
		CatalogGroup:     inv.CatalogGroupID,
		CatalogGroupName: inv.CatalogGroup.Name,
		InvitedBy:        inv.InvitedByID,
		AcceptedBy:       inv.AcceptedByID,
		CreatedAt:        inv.CreatedAt,
		ExpiresAt:        inv.ExpiresAt(ttl),
		IsExpired:        inv.IsExpired(h.now(), ttl),
	}
}
