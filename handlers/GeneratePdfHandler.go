package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cfss-backend/models"
	"cfss-backend/services"

	"github.com/gin-gonic/gin"
)

// ReportGenerator produces a stored report.
type ReportGenerator interface {
	Generate(ctx context.Context, req services.ReportRequest, user models.UserInfo) (*services.ReportResult, error)
}

// GenerateReportHandler godoc
// @Summary      Generate a project report
// @Description  Fills the form templates, draws the window and wall tables, merges them, watermarks the result for non-admins and returns a download link valid for one hour.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true   "Project ID"
// @Param        body  body      services.ReportRequest  false  "Report options"
// @Success      201   {object}  services.ReportResult
// @Failure      400   {object}  utils.Response
// @Failure      404   {object}  utils.Response
// @Failure      502   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/reports [post]
func GenerateReportHandler(reports ReportGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "Invalid report request", err)
			return
		}
		req.ProjectID = c.Param("id")

		res, err := reports.Generate(c.Request.Context(), req, CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}
