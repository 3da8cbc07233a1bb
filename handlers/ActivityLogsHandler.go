package handlers

import (
	"math"
	"net/http"
	"strconv"

	"cfss-backend/models"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type pagination struct {
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	TotalRecords int64 `json:"total_records"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

type activityLogsResponse struct {
	Logs       []models.ActivityLogGorm `json:"logs"`
	Pagination pagination               `json:"pagination"`
}

// GetActivityLogsHandler godoc
// @Summary      List activity logs
// @Description  Newest first. Filters by project and user are optional.
// @Tags         activity-logs
// @Produce      json
// @Param        page        query     int     false  "Page number"  default(1)
// @Param        limit       query     int     false  "Page size"    default(10)
// @Param        project_id  query     string  false  "Project ID"
// @Param        user_email  query     string  false  "User email"
// @Success      200         {object}  activityLogsResponse
// @Failure      503         {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, utils.ErrCodeExternalService, "Activity log database is not configured", nil)
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 || limit > 200 {
			limit = 10
		}

		logs, total, err := storage.ListActivityLogs(c.Request.Context(), db, storage.ActivityLogFilter{
			ProjectID: c.Query("project_id"),
			UserEmail: c.Query("user_email"),
			Page:      page,
			PageSize:  limit,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		if logs == nil {
			logs = []models.ActivityLogGorm{}
		}

		totalPages := int(math.Ceil(float64(total) / float64(limit)))
		c.JSON(http.StatusOK, activityLogsResponse{
			Logs: logs,
			Pagination: pagination{
				CurrentPage:  page,
				PageSize:     limit,
				TotalRecords: total,
				TotalPages:   totalPages,
				HasNext:      page < totalPages,
				HasPrev:      page > 1,
			},
		})
	}
}

// HealthHandler godoc
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/health [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
