package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"cfss-backend/models"
	"cfss-backend/services"
	"cfss-backend/utils"

	"github.com/gin-gonic/gin"
)

const (
	maxVerifyFiles    = 50
	maxVerifyFileSize = 25 << 20
)

// DocumentVerifier runs the bulk-verify pipeline.
type DocumentVerifier interface {
	Verify(ctx context.Context, files []services.VerifyFile, user models.UserInfo) ([]services.VerifyEntry, error)
}

type bulkVerifyResponse struct {
	Entries  []services.VerifyEntry `json:"entries"`
	Verified int                    `json:"verified"`
	Failed   int                    `json:"failed"`
}

// BulkVerifyHandler godoc
// @Summary      Sign and flatten a batch of PDFs
// @Description  Each file is uploaded, stamped with the engineer signature and date, flattened and stored. Failures are reported per file. Admins only.
// @Tags         bulk-verify
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "PDF documents"
// @Success      200    {object}  bulkVerifyResponse
// @Failure      400    {object}  utils.Response
// @Failure      403    {object}  utils.Response
// @Security     BearerAuth
// @Router       /api/bulk-verify [post]
func BulkVerifyHandler(verifier DocumentVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAdmin {
			utils.HandleAppError(c, utils.NewAppError(http.StatusForbidden, utils.ErrCodeForbidden,
				"Only admins can verify documents", nil))
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			badRequest(c, "Expected a multipart form with files", err)
			return
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			badRequest(c, "files is required", nil)
			return
		}
		if len(headers) > maxVerifyFiles {
			badRequest(c, fmt.Sprintf("At most %d files per request", maxVerifyFiles), nil)
			return
		}

		files := make([]services.VerifyFile, 0, len(headers))
		for _, h := range headers {
			data, err := readUpload(h)
			if err != nil {
				badRequest(c, fmt.Sprintf("Could not read %s", h.Filename), err)
				return
			}
			files = append(files, services.VerifyFile{Name: filepath.Base(h.Filename), Data: data})
		}

		entries, err := verifier.Verify(c.Request.Context(), files, CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp := bulkVerifyResponse{Entries: entries}
		for _, e := range entries {
			if e.State == services.StateVerified {
				resp.Verified++
			} else {
				resp.Failed++
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func readUpload(h *multipart.FileHeader) ([]byte, error) {
	if h.Size > maxVerifyFileSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", h.Filename, maxVerifyFileSize)
	}
	file, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxVerifyFileSize+1))
}
