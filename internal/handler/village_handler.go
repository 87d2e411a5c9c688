package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/response"
)

// VillageHandler exposes village reference-data endpoints.
type VillageHandler struct {
	villages *service.VillageService
}

// NewVillageHandler constructs VillageHandler.
func NewVillageHandler(villages *service.VillageService) *VillageHandler {
	return &VillageHandler{villages: villages}
}

// List godoc
// @Summary List villages
// @Tags Villages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /villages [get]
func (h *VillageHandler) List(c *gin.Context) {
	villages, err := h.villages.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, villages, nil)
}

// Get godoc
// @Summary Get village detail
// @Tags Villages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Village ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /villages/{id} [get]
func (h *VillageHandler) Get(c *gin.Context) {
	village, err := h.villages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, village, nil)
}

// Create godoc
// @Summary Create a village
// @Tags Villages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateVillageRequest true "Village payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /villages [post]
func (h *VillageHandler) Create(c *gin.Context) {
	var req service.CreateVillageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid village payload"))
		return
	}

	village, err := h.villages.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, village)
}

// Update godoc
// @Summary Update a village
// @Tags Villages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Village ID"
// @Param payload body service.UpdateVillageRequest true "Village payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /villages/{id} [put]
func (h *VillageHandler) Update(c *gin.Context) {
	var req service.UpdateVillageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid village payload"))
		return
	}

	village, err := h.villages.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, village, nil)
}

// Delete godoc
// @Summary Delete a village
// @Description Refused while users or reports still reference the village
// @Tags Villages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Village ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /villages/{id} [delete]
func (h *VillageHandler) Delete(c *gin.Context) {
	if err := h.villages.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
