package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/service"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/export"
)

type insightService interface {
	Summary(ctx context.Context, req service.SummaryRequest) (*models.AttendanceSummary, bool, error)
	StudentHistory(ctx context.Context, studentID string, days int) (*models.StudentAttendanceDetail, error)
	DefaultHistoryDays() int
}

// InsightHandler exposes the attendance analytics endpoints consumed by the
// AI assistant frontend. Payloads are flat to stay wire-compatible with it.
type InsightHandler struct {
	insights insightService
}

// NewInsightHandler constructs the insight handler.
func NewInsightHandler(insights insightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// AttendanceSummary godoc
// @Summary Aggregated attendance over the recent weekday window
// @Tags Insights
// @Produce json
// @Param days query int false "Number of recent weekdays (default: 7)"
// @Param class_id query string false "Restrict to one class"
// @Param end_date query string false "Window end date (YYYY-MM-DD, default: today)"
// @Param policy query string false "Issue policy: strict or rate"
// @Success 200 {object} models.AttendanceSummary
// @Security BearerAuth
// @Router /ai/attendance-summary [get]
func (h *InsightHandler) AttendanceSummary(c *gin.Context) {
	req, err := h.parseSummaryRequest(c)
	if err != nil {
		flatError(c, err)
		return
	}
	summary, cacheHit, err := h.insights.Summary(c.Request.Context(), req)
	if err != nil {
		flatError(c, err)
		return
	}
	if cacheHit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, summary)
}

// ExportAttendanceSummary godoc
// @Summary Download the attendance summary as CSV or PDF
// @Tags Insights
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf (default: csv)"
// @Param days query int false "Number of recent weekdays (default: 7)"
// @Param class_id query string false "Restrict to one class"
// @Param end_date query string false "Window end date (YYYY-MM-DD, default: today)"
// @Param policy query string false "Issue policy: strict or rate"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /ai/attendance-summary/export [get]
func (h *InsightHandler) ExportAttendanceSummary(c *gin.Context) {
	req, err := h.parseSummaryRequest(c)
	if err != nil {
		flatError(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "pdf" {
		flatError(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	summary, _, err := h.insights.Summary(c.Request.Context(), req)
	if err != nil {
		flatError(c, err)
		return
	}

	table := service.SummaryTable(summary)
	var body []byte
	var mimeType string
	switch format {
	case "pdf":
		body, err = export.PDF(table)
		mimeType = "application/pdf"
	default:
		body, err = export.CSV(table)
		mimeType = "text/csv"
	}
	if err != nil {
		flatError(c, err)
		return
	}

	filename := fmt.Sprintf("attendance-summary-%s.%s", summary.EndDate, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, mimeType, body)
}

// StudentAttendance godoc
// @Summary Attendance history for one student
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param days query int false "Number of recent days (default: 14)"
// @Success 200 {object} models.StudentAttendanceDetail
// @Security BearerAuth
// @Router /ai/student-attendance/{id} [get]
func (h *InsightHandler) StudentAttendance(c *gin.Context) {
	days := h.insights.DefaultHistoryDays()
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			flatError(c, appErrors.Clone(appErrors.ErrValidation, "days must be an integer"))
			return
		}
		days = parsed
	}
	detail, err := h.insights.StudentHistory(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		flatError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *InsightHandler) parseSummaryRequest(c *gin.Context) (service.SummaryRequest, error) {
	req := service.SummaryRequest{ClassID: c.Query("class_id")}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return req, appErrors.Clone(appErrors.ErrValidation, "days must be an integer")
		}
		req.Days = days
	}
	if raw := c.Query("end_date"); raw != "" {
		endDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return req, appErrors.Clone(appErrors.ErrValidation, "end_date must be formatted YYYY-MM-DD")
		}
		req.EndDate = endDate
	}
	if raw := c.Query("policy"); raw != "" {
		policy := models.IssuePolicy(raw)
		if !policy.Valid() {
			return req, appErrors.Clone(appErrors.ErrValidation, "policy must be strict or rate")
		}
		req.Policy = policy
	}
	return req, nil
}
