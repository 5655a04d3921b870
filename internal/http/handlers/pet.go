package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/http/response"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/repos"
	"github.com/adopaw/adopaw-backend/internal/services"
)

type PetHandler struct {
	petService services.PetService
}

func NewPetHandler(petService services.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

func petFiltersFromQuery(c *gin.Context) repos.PetFilters {
	return repos.PetFilters{
		Species: c.Query("species"),
		Status:  c.Query("status"),
		City:    c.Query("city"),
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// POST /pet
func (h *PetHandler) Create(c *gin.Context) {
	var req services.CreatePetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	p, err := h.petService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// GET /pet/:id
func (h *PetHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", err))
		return
	}
	p, err := h.petService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /pet
func (h *PetHandler) List(c *gin.Context) {
	pets, err := h.petService.List(c.Request.Context(), petFiltersFromQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, pets)
}

// GET /pet/by
func (h *PetHandler) ListPaginated(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)
	pets, total, err := h.petService.ListPaginated(c.Request.Context(), petFiltersFromQuery(c), page, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"docs":       pets,
		"totalDocs":  total,
		"page":       page,
		"limit":      limit,
		"totalPages": (total + int64(limit) - 1) / int64(limit),
	})
}

// GET /pet/nearby?longitude&latitude&maxDistance
func (h *PetHandler) Nearby(c *gin.Context) {
	lngStr, latStr := c.Query("longitude"), c.Query("latitude")
	if lngStr == "" || latStr == "" {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request",
			fmt.Errorf("longitude and latitude are required query params")))
		return
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", fmt.Errorf("invalid longitude")))
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", fmt.Errorf("invalid latitude")))
		return
	}
	maxDistance := float64(intQuery(c, "maxDistance", 0))

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)
	pets, total, err := h.petService.Nearby(c.Request.Context(), lng, lat, maxDistance, page, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"docs":      pets,
		"totalDocs": total,
		"page":      page,
		"limit":     limit,
	})
}

// GET /pet/owner/:profileId
func (h *PetHandler) ListByOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("profileId"))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", err))
		return
	}
	pets, err := h.petService.List(c.Request.Context(), repos.PetFilters{OwnerID: &ownerID})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, pets)
}

// PUT /pet/:id
func (h *PetHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", err))
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	p, err := h.petService.Update(c.Request.Context(), id, fields)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// DELETE /pet/:id
func (h *PetHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", err))
		return
	}
	if err := h.petService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "pet deleted"})
}
