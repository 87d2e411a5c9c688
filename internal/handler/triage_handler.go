package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/response"
)

// TriageHandler exposes the French keyword triage analyzer.
type TriageHandler struct {
	triage *service.TriageService
}

// NewTriageHandler constructs TriageHandler.
func NewTriageHandler(triage *service.TriageService) *TriageHandler {
	return &TriageHandler{triage: triage}
}

// Analyze godoc
// @Summary Analyze a narrative for critical keywords
// @Description Stems the French text and flags matches against the critical lexicon
// @Tags Triage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body map[string]string true "text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /triage/analyze [post]
func (h *TriageHandler) Analyze(c *gin.Context) {
	var payload struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "text required"))
		return
	}

	response.JSON(c, http.StatusOK, h.triage.Analyze(payload.Text), nil)
}
