package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cfss-backend/models"
	"cfss-backend/repository"
	"cfss-backend/services"
	"cfss-backend/windload"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProjectStore is the project persistence the handlers need.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	Put(ctx context.Context, project *models.Project) error
	UpdateWindData(ctx context.Context, id string, data models.CFSSWindData, expected int64) (int64, error)
}

// SaveProjectHandler godoc
// @Summary      Create or replace a project
// @Description  Wind data and revisions are only taken on creation; afterwards they change through their own endpoints.
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        body  body      models.Project  true  "Project document"
// @Success      201   {object}  models.Project
// @Failure      400   {object}  utils.Response
// @Failure      409   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects [post]
func SaveProjectHandler(projects ProjectStore, activity *services.ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var project models.Project
		if err := c.ShouldBindJSON(&project); err != nil {
			badRequest(c, "Invalid project payload", err)
			return
		}

		project.Domain = strings.ToLower(strings.TrimSpace(project.Domain))
		if project.Domain == "" {
			project.Domain = models.DomainCFSS
		}
		if project.Domain != models.DomainCFSS && project.Domain != models.DomainSeismic {
			badRequest(c, fmt.Sprintf("Unknown project domain %q", project.Domain), nil)
			return
		}
		if len(project.WallRevisions) > repository.MaxRevisions {
			abortWithError(c, repository.ErrRevisionLimit)
			return
		}
		if wind := project.CFSSWindData; wind != nil {
			if err := windload.ValidateGroups(wind.FloorGroups, len(wind.Storeys)); err != nil {
				abortWithError(c, err)
				return
			}
		}

		user := CurrentUser(c)
		if project.ID == "" {
			project.ID = uuid.NewString()
		}
		if project.CreatedBy == "" {
			project.CreatedBy = user.Email
		}

		if err := projects.Put(c.Request.Context(), &project); err != nil {
			abortWithError(c, err)
			return
		}

		activity.Record(c.Request.Context(), activityFor(c, services.Activity{
			ProjectID:   project.ID,
			Context:     services.ContextProject,
			Event:       services.EventSaveProject,
			Description: fmt.Sprintf("saved project %s", project.Name),
		}))
		c.JSON(http.StatusCreated, project)
	}
}

// GetProjectHandler godoc
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  models.Project
// @Failure      404  {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id} [get]
func GetProjectHandler(projects ProjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := projects.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// activityFor fills the caller fields of an activity row from the request.
func activityFor(c *gin.Context, act services.Activity) services.Activity {
	act.User = CurrentUser(c)
	act.HostName = c.Request.Host
	act.IPAddress = c.ClientIP()
	return act
}
