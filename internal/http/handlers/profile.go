package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
	"github.com/adopaw/adopaw-backend/internal/http/response"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// POST /profile
func (h *ProfileHandler) Create(c *gin.Context) {
	var req profile.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	p, err := h.profileService.Create(c.Request.Context(), &req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// GET /profile/:supaId
func (h *ProfileHandler) GetBySupaID(c *gin.Context) {
	p, err := h.profileService.GetBySupaID(c.Request.Context(), c.Param("supaId"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// PUT /profile/:supaId
func (h *ProfileHandler) Update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	if len(fields) == 0 {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", fmt.Errorf("no fields to update")))
		return
	}
	p, err := h.profileService.Update(c.Request.Context(), c.Param("supaId"), fields)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// DELETE /profile/:supaId
func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.profileService.Delete(c.Request.Context(), c.Param("supaId")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "profile deleted"})
}
