package handlers

import (
	"context"
	"errors"
	"net/http"

	"cfss-backend/repository"
	"cfss-backend/services"
	"cfss-backend/storage"
	"cfss-backend/utils"
	"cfss-backend/windload"

	"github.com/aws/smithy-go"
	"github.com/gin-gonic/gin"
)

// toAppError maps domain and upstream errors to their HTTP form.
func toAppError(err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, storage.ErrProjectNotFound):
		return utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "Project not found", err)
	case errors.Is(err, storage.ErrVersionConflict):
		return utils.NewAppError(http.StatusConflict, utils.ErrCodeRowVersionConflict,
			"Project was changed by someone else; reload and retry", err)
	case errors.Is(err, repository.ErrRevisionLimit):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeRevisionLimit, err.Error(), err)
	case errors.Is(err, windload.ErrSelectionTooSmall),
		errors.Is(err, windload.ErrSelectionNotConsecutive),
		errors.Is(err, windload.ErrAlreadyGrouped),
		errors.Is(err, windload.ErrInvalidGroup):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), err)
	case errors.Is(err, windload.ErrGroupNotFound):
		return utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err)
	case errors.Is(err, services.ErrUnknownReportType), errors.Is(err, services.ErrNoFiles):
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return utils.NewAppError(http.StatusGatewayTimeout, utils.ErrCodeExternalService, "Upstream service timed out", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalService, "Storage service error", err)
	}
	return err
}

func abortWithError(c *gin.Context, err error) {
	utils.HandleAppError(c, toAppError(err))
}

func badRequest(c *gin.Context, message string, err error) {
	utils.HandleAppError(c, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidPayload, message, err))
}
