package handlers

import (
	"context"
	"fmt"
	"net/http"

	"cfss-backend/models"
	"cfss-backend/repository"
	"cfss-backend/services"

	"github.com/gin-gonic/gin"
)

// Revisions adds and lists wall revisions.
type Revisions interface {
	Add(ctx context.Context, projectID, description string, walls []models.Wall, user models.UserInfo) (*models.Revision, error)
	List(ctx context.Context, projectID string) ([]models.Revision, error)
}

type addRevisionRequest struct {
	Description string        `json:"description" binding:"max=500"`
	Walls       []models.Wall `json:"walls,omitempty"`
}

type revisionView struct {
	models.Revision
	VersionCode string `json:"versionCode" example:"RV-01"`
}

func viewRevision(rev models.Revision) revisionView {
	return revisionView{Revision: rev, VersionCode: repository.GenerateVersionCode(rev.Number)}
}

// AddRevisionHandler godoc
// @Summary      Snapshot the walls as a new revision
// @Description  A project keeps at most 5 revisions.
// @Tags         revisions
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Project ID"
// @Param        body  body      addRevisionRequest  true  "Revision description; walls default to the current walls"
// @Success      201   {object}  revisionView
// @Failure      400   {object}  utils.Response
// @Failure      404   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/revisions [post]
func AddRevisionHandler(revisions Revisions, activity *services.ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addRevisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid revision payload", err)
			return
		}

		id := c.Param("id")
		rev, err := revisions.Add(c.Request.Context(), id, req.Description, req.Walls, CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		activity.Record(c.Request.Context(), activityFor(c, services.Activity{
			ProjectID:   id,
			Context:     services.ContextRevision,
			Event:       services.EventAddRevision,
			Description: fmt.Sprintf("added revision %s", repository.GenerateVersionCode(rev.Number)),
		}))
		c.JSON(http.StatusCreated, viewRevision(*rev))
	}
}

// ListRevisionsHandler godoc
// @Summary      List wall revisions
// @Tags         revisions
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {array}   revisionView
// @Failure      404  {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/revisions [get]
func ListRevisionsHandler(revisions Revisions) gin.HandlerFunc {
	return func(c *gin.Context) {
		revs, err := revisions.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		out := make([]revisionView, len(revs))
		for i, r := range revs {
			out[i] = viewRevision(r)
		}
		c.JSON(http.StatusOK, out)
	}
}
