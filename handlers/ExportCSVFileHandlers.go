package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"cfss-backend/models"
	"cfss-backend/utils"
	"cfss-backend/windload"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	windSheet    = "Wind"
	summarySheet = "Summary"
)

// BuildWindWorkbook lays the wind table out as a spreadsheet: one row per
// storey with the group column merged across grouped storeys, and a summary
// sheet with the cover-page strings.
func BuildWindWorkbook(project *models.Project) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", windSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Family: "Arial", Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	groupStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	headers := []string{"Storey", "ULS (psf)", "SLS (psf)", "Group", "Group ULS", "Group SLS"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(windSheet, cell, h)
	}
	if err := f.SetCellStyle(windSheet, "A1", "F1", headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(windSheet, "A", "F", 14); err != nil {
		return nil, err
	}

	var wind models.CFSSWindData
	if project.CFSSWindData != nil {
		wind = *project.CFSSWindData
	}

	for i, s := range wind.Storeys {
		row := i + 2
		f.SetCellValue(windSheet, fmt.Sprintf("A%d", row), s.Label)
		setPressure(f, fmt.Sprintf("B%d", row), s.ULS)
		setPressure(f, fmt.Sprintf("C%d", row), s.SLS)
	}

	uls := windload.Entries(wind.Storeys, windload.DataResistance, wind.FloorGroups)
	sls := windload.Entries(wind.Storeys, windload.DataDeflection, wind.FloorGroups)
	for i, e := range uls {
		g, grouped := windload.FindGroupForFloor(wind.FloorGroups, e.Index)
		if !grouped || g.FirstIndex != e.Index {
			continue
		}
		last := g.LastIndex
		if last >= len(wind.Storeys) {
			last = len(wind.Storeys) - 1
		}
		first, end := e.Index+2, last+2
		f.SetCellValue(windSheet, fmt.Sprintf("D%d", first), e.Label)
		setPressure(f, fmt.Sprintf("E%d", first), e.Value)
		setPressure(f, fmt.Sprintf("F%d", first), sls[i].Value)
		if end > first {
			for _, col := range []string{"D", "E", "F"} {
				if err := f.MergeCell(windSheet, fmt.Sprintf("%s%d", col, first), fmt.Sprintf("%s%d", col, end)); err != nil {
					return nil, err
				}
			}
		}
		if err := f.SetCellStyle(windSheet, fmt.Sprintf("D%d", first), fmt.Sprintf("F%d", end), groupStyle); err != nil {
			return nil, err
		}
	}

	rows := [][2]string{
		{"Project", project.Name},
		{"Project number", project.ProjectNumber},
		{"Client", project.ClientName},
		{"Wind resistance", windload.FormatWindDataString(wind.Storeys, windload.DataResistance, wind.FloorGroups)},
		{"Wind deflection", windload.FormatWindDataString(wind.Storeys, windload.DataDeflection, wind.FloorGroups)},
		{"Version", fmt.Sprint(project.WindDataVersion)},
	}
	for i, r := range rows {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), r[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r[1])
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 80); err != nil {
		return nil, err
	}
	return f, nil
}

func setPressure(f *excelize.File, cell string, v *float64) {
	if v == nil {
		return
	}
	f.SetCellValue(windSheet, cell, *v)
}

// ExportWindHandler godoc
// @Summary      Export the wind table as XLSX
// @Tags         cfss-wind
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "Project ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/projects/{id}/cfss-wind/export [get]
func ExportWindHandler(projects ProjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := projects.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		f, err := BuildWindWorkbook(project)
		if err != nil {
			abortWithError(c, fmt.Errorf("build wind workbook: %w", err))
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				utils.Logger.WithError(err).Warn("error closing workbook")
			}
		}()

		filename := fmt.Sprintf("%s-wind.xlsx", project.ProjectNumber)
		if project.ProjectNumber == "" {
			filename = "wind.xlsx"
		}
		escaped := url.PathEscape(filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, escaped))

		if err := f.Write(c.Writer); err != nil {
			utils.Logger.WithError(err).WithField("project_id", project.ID).Error("error writing workbook")
			c.Status(http.StatusInternalServerError)
		}
	}
}
