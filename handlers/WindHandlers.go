package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"cfss-backend/models"
	"cfss-backend/services"
	"cfss-backend/storage"
	"cfss-backend/utils"
	"cfss-backend/windload"

	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxWindPayload = 1 << 20

//go:embed schemas/cfss_wind.json
var windSchemaJSON []byte

var (
	windSchemaOnce sync.Once
	windSchema     *jsonschema.Schema
	windSchemaErr  error
)

func loadWindSchema() (*jsonschema.Schema, error) {
	windSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("cfss_wind.json", bytes.NewReader(windSchemaJSON)); err != nil {
			windSchemaErr = fmt.Errorf("add wind schema: %w", err)
			return
		}
		windSchema, windSchemaErr = compiler.Compile("cfss_wind.json")
	})
	return windSchema, windSchemaErr
}

type windUpdateRequest struct {
	Version      int64               `json:"version"`
	CFSSWindData models.CFSSWindData `json:"cfssWindData"`
}

type groupRequest struct {
	Selection []int `json:"selection" binding:"required"`
	Version   int64 `json:"version"`
}

type ungroupRequest struct {
	FirstIndex *int  `json:"firstIndex" binding:"required"`
	LastIndex  *int  `json:"lastIndex" binding:"required"`
	Version    int64 `json:"version"`
}

type windResponse struct {
	CFSSWindData models.CFSSWindData `json:"cfssWindData"`
	Version      int64               `json:"version"`
	Group        *windload.FloorGroup `json:"group,omitempty"`
}

// UpdateWindDataHandler godoc
// @Summary      Replace the CFSS wind table
// @Tags         cfss-wind
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Project ID"
// @Param        body  body      windUpdateRequest  true  "Wind data and the version it was read at"
// @Success      200   {object}  windResponse
// @Failure      400   {object}  utils.Response
// @Failure      409   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/cfss-wind [put]
func UpdateWindDataHandler(projects ProjectStore, activity *services.ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWindPayload))
		if err != nil {
			badRequest(c, "Could not read request body", err)
			return
		}

		schema, err := loadWindSchema()
		if err != nil {
			abortWithError(c, err)
			return
		}
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			badRequest(c, "Body is not valid JSON", err)
			return
		}
		if err := schema.Validate(doc); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrCodeValidation, "Wind data does not match schema", err.Error())
			return
		}

		var req windUpdateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			badRequest(c, "Invalid wind data", err)
			return
		}
		if err := windload.ValidateGroups(req.CFSSWindData.FloorGroups, len(req.CFSSWindData.Storeys)); err != nil {
			abortWithError(c, err)
			return
		}

		id := c.Param("id")
		version, err := projects.UpdateWindData(c.Request.Context(), id, req.CFSSWindData, req.Version)
		if err != nil {
			abortWithError(c, err)
			return
		}

		activity.Record(c.Request.Context(), activityFor(c, services.Activity{
			ProjectID:   id,
			Context:     services.ContextWind,
			Event:       services.EventUpdateWind,
			Description: fmt.Sprintf("updated wind table (%d storeys)", len(req.CFSSWindData.Storeys)),
		}))
		c.JSON(http.StatusOK, windResponse{CFSSWindData: req.CFSSWindData, Version: version})
	}
}

// loadWindData returns the project's wind table after checking that the
// caller read it at the current version.
func loadWindData(c *gin.Context, projects ProjectStore, version int64) (models.CFSSWindData, bool) {
	project, err := projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return models.CFSSWindData{}, false
	}
	if project.WindDataVersion != version {
		abortWithError(c, fmt.Errorf("read at version %d, current is %d: %w", version, project.WindDataVersion, storage.ErrVersionConflict))
		return models.CFSSWindData{}, false
	}
	if project.CFSSWindData == nil {
		return models.CFSSWindData{}, true
	}
	return *project.CFSSWindData, true
}

// GroupFloorsHandler godoc
// @Summary      Group consecutive storeys
// @Tags         cfss-wind
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Project ID"
// @Param        body  body      groupRequest  true  "Selected storey indices"
// @Success      200   {object}  windResponse
// @Failure      400   {object}  utils.Response
// @Failure      409   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/cfss-wind/groups [post]
func GroupFloorsHandler(projects ProjectStore, activity *services.ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req groupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid group request", err)
			return
		}

		data, ok := loadWindData(c, projects, req.Version)
		if !ok {
			return
		}

		session := windload.NewSession(c.Param("id"), data.FloorGroups)
		for _, idx := range dedupe(req.Selection) {
			session = session.Toggle(idx)
		}
		session, err := session.Group()
		if err != nil {
			abortWithError(c, err)
			return
		}
		if err := windload.ValidateGroups(session.Groups, len(data.Storeys)); err != nil {
			abortWithError(c, err)
			return
		}
		group := session.Groups[len(session.Groups)-1]
		data.FloorGroups = session.Groups

		version, err := projects.UpdateWindData(c.Request.Context(), c.Param("id"), data, req.Version)
		if err != nil {
			abortWithError(c, err)
			return
		}

		activity.Record(c.Request.Context(), activityFor(c, services.Activity{
			ProjectID:   c.Param("id"),
			Context:     services.ContextWind,
			Event:       services.EventGroupFloors,
			Description: fmt.Sprintf("grouped storeys %d-%d", group.FirstIndex, group.LastIndex),
		}))
		c.JSON(http.StatusOK, windResponse{CFSSWindData: data, Version: version, Group: &group})
	}
}

// UngroupFloorsHandler godoc
// @Summary      Remove a storey group
// @Tags         cfss-wind
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Project ID"
// @Param        body  body      ungroupRequest  true  "Group bounds"
// @Success      200   {object}  windResponse
// @Failure      404   {object}  utils.Response
// @Failure      409   {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/cfss-wind/groups [delete]
func UngroupFloorsHandler(projects ProjectStore, activity *services.ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ungroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid ungroup request", err)
			return
		}

		data, ok := loadWindData(c, projects, req.Version)
		if !ok {
			return
		}

		target := windload.FloorGroup{FirstIndex: *req.FirstIndex, LastIndex: *req.LastIndex}
		session, err := windload.NewSession(c.Param("id"), data.FloorGroups).Ungroup(target)
		if err != nil {
			abortWithError(c, err)
			return
		}
		data.FloorGroups = session.Groups

		version, err := projects.UpdateWindData(c.Request.Context(), c.Param("id"), data, req.Version)
		if err != nil {
			abortWithError(c, err)
			return
		}

		activity.Record(c.Request.Context(), activityFor(c, services.Activity{
			ProjectID:   c.Param("id"),
			Context:     services.ContextWind,
			Event:       services.EventUngroupFloors,
			Description: fmt.Sprintf("ungrouped storeys %d-%d", target.FirstIndex, target.LastIndex),
		}))
		c.JSON(http.StatusOK, windResponse{CFSSWindData: data, Version: version})
	}
}

type previewEntry struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type windPreview struct {
	Resistance        string         `json:"resistance"`
	Deflection        string         `json:"deflection"`
	ResistanceEntries []previewEntry `json:"resistanceEntries"`
	DeflectionEntries []previewEntry `json:"deflectionEntries"`
	Version           int64          `json:"version"`
}

// WindPreviewHandler godoc
// @Summary      Preview the cover-page wind strings
// @Tags         cfss-wind
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  windPreview
// @Failure      404  {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/cfss-wind/preview [get]
func WindPreviewHandler(projects ProjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := projects.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		preview := windPreview{Version: project.WindDataVersion}
		if wind := project.CFSSWindData; wind != nil {
			preview.Resistance = windload.FormatWindDataString(wind.Storeys, windload.DataResistance, wind.FloorGroups)
			preview.Deflection = windload.FormatWindDataString(wind.Storeys, windload.DataDeflection, wind.FloorGroups)
			preview.ResistanceEntries = toPreview(windload.Entries(wind.Storeys, windload.DataResistance, wind.FloorGroups))
			preview.DeflectionEntries = toPreview(windload.Entries(wind.Storeys, windload.DataDeflection, wind.FloorGroups))
		}
		c.JSON(http.StatusOK, preview)
	}
}

func toPreview(entries []windload.Entry) []previewEntry {
	out := make([]previewEntry, len(entries))
	for i, e := range entries {
		out[i] = previewEntry{Index: e.Index, Label: e.Label, Value: windload.FormatNumber(e.Value)}
	}
	return out
}

func dedupe(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
