package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/response"
)

// ReportHandler exposes the incident report endpoints.
type ReportHandler struct {
	reports *service.ReportService
	metrics *service.MetricsService
	stats   *service.StatsService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, metrics *service.MetricsService, stats *service.StatsService) *ReportHandler {
	return &ReportHandler{reports: reports, metrics: metrics, stats: stats}
}

// Create godoc
// @Summary File an incident report
// @Description Multipart form; audio attachments of anonymous reports are anonymized before storage
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param incident_type formData string true "Incident type"
// @Param urgency formData string true "LOW, MEDIUM, HIGH or CRITICAL"
// @Param is_anonymous formData bool false "Hide reporter identity"
// @Param village_id formData string true "Village ID"
// @Param child_name formData string true "Child name"
// @Param abuser_name formData string false "Alleged abuser"
// @Param description formData string true "Narrative"
// @Param files formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.CreateReportRequest{
		IncidentType: strings.TrimSpace(c.PostForm("incident_type")),
		Urgency:      strings.ToUpper(strings.TrimSpace(c.PostForm("urgency"))),
		IsAnonymous:  c.PostForm("is_anonymous") == "true",
		VillageID:    c.PostForm("village_id"),
		ChildName:    strings.TrimSpace(c.PostForm("child_name")),
		Description:  strings.TrimSpace(c.PostForm("description")),
	}
	if abuser := strings.TrimSpace(c.PostForm("abuser_name")); abuser != "" {
		req.AbuserName = &abuser
	}

	files, err := readUploads(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Files = files

	result, err := h.reports.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordReportFiled(string(result.Report.Urgency))
	}
	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}

	response.Created(c, result)
}

// List godoc
// @Summary List reports
// @Description Callers without the view-all capability only see their own reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param urgency query string false "Filter by urgency"
// @Param villageId query string false "Filter by village"
// @Param archived query bool false "Filter by archived flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ReportFilter
	if status := c.Query("status"); status != "" {
		s := models.ReportStatus(strings.ToUpper(status))
		filter.Status = &s
	}
	if urgency := c.Query("urgency"); urgency != "" {
		u := models.Urgency(strings.ToUpper(urgency))
		filter.Urgency = &u
	}
	filter.VillageID = c.Query("villageId")
	filter.AnalystID = c.Query("analystId")
	if archived := c.Query("archived"); archived != "" {
		v := archived == "true"
		filter.Archived = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	reports, pagination, err := h.reports.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get report detail
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.reports.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Update godoc
// @Summary Update a report
// @Description Multipart form; new files are appended to the attachment list
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateReportRequest
	if v, ok := c.GetPostForm("incident_type"); ok {
		req.IncidentType = &v
	}
	if v, ok := c.GetPostForm("urgency"); ok {
		upper := strings.ToUpper(strings.TrimSpace(v))
		req.Urgency = &upper
	}
	if v, ok := c.GetPostForm("child_name"); ok {
		req.ChildName = &v
	}
	if v, ok := c.GetPostForm("abuser_name"); ok {
		req.AbuserName = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}

	files, err := readUploads(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Files = files

	report, err := h.reports.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Assign godoc
// @Summary Assign a report to an analyst
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body map[string]string true "analyst_id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/assign [post]
func (h *ReportHandler) Assign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		AnalystID string `json:"analyst_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "analyst_id required"))
		return
	}

	report, err := h.reports.Assign(c.Request.Context(), c.Param("id"), payload.AnalystID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Classify godoc
// @Summary Classify a report
// @Description Soft-close as FALSE_ALARM or CLOSED without archiving
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body map[string]string true "classification"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/classify [post]
func (h *ReportHandler) Classify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Classification string `json:"classification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "classification required"))
		return
	}

	report, err := h.reports.Classify(c.Request.Context(), c.Param("id"), payload.Classification, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Close godoc
// @Summary Formally close and archive a case
// @Description Requires a CLOSURE_DECISION document on the case file; the report becomes immutable
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body map[string]string false "closure_decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/{id}/close [post]
func (h *ReportHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		ClosureDecision string `json:"closure_decision"`
	}
	_ = c.ShouldBindJSON(&payload)

	report, err := h.reports.Close(c.Request.Context(), c.Param("id"), payload.ClosureDecision, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCaseArchived()
	}
	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete a report
// @Description Archived reports cannot be deleted
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.reports.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a case file as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, err := h.reports.ExportPDF(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("case-%s.pdf", c.Param("id"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func readUploads(c *gin.Context) ([]service.FileUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}

	var uploads []service.FileUpload
	for _, header := range form.File["files"] {
		data, err := readFileHeader(header)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "could not read uploaded file")
		}
		uploads = append(uploads, service.FileUpload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return uploads, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
