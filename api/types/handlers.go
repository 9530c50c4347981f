package types

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/parable-studio/internal/models"
	apperrors "github.com/killallgit/parable-studio/pkg/errors"
)

// Handler utility functions to reduce duplication across handlers

// ParseUintParam extracts and parses a URL parameter as uint
// Returns the parsed value and sends error response if parsing fails
func ParseUintParam(c *gin.Context, paramName string) (uint, bool) {
	paramStr := c.Param(paramName)
	value, err := strconv.ParseUint(paramStr, 10, 32)
	if err != nil || value == 0 {
		SendError(c, apperrors.ValidationError(paramName, "must be a positive integer"))
		return 0, false
	}
	return uint(value), true
}

// ParseLanguageParam extracts the track language from the URL
func ParseLanguageParam(c *gin.Context) (models.Language, bool) {
	lang := models.Language(c.Param("language"))
	if !lang.Valid() {
		SendError(c, apperrors.ValidationError("language", "must be original or english"))
		return "", false
	}
	return lang, true
}

// BindJSONOrError attempts to bind JSON request body to target struct
// Returns false and sends error response if binding fails
func BindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "Invalid request body",
			Code:    string(apperrors.ErrCodeValidation),
			Details: err.Error(),
		})
		return false
	}
	return true
}

// SendError maps an error onto the error taxonomy. Anything outside it is
// reported as an internal error without leaking the cause.
func SendError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		resp := ErrorResponse{
			Status:  StatusError,
			Message: appErr.Message,
			Code:    string(appErr.Code),
		}
		if len(appErr.Details) > 0 {
			resp.Details = appErr.Details
		}
		c.JSON(appErr.GetHTTPCode(), resp)
		return
	}

	_ = c.Error(err)
	SendInternalError(c, "Internal server error")
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Status:  StatusError,
		Message: message,
		Code:    string(apperrors.ErrCodeValidation),
	})
}

// SendInternalError sends a standardized internal server error response
func SendInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status:  StatusError,
		Message: message,
		Code:    string(apperrors.ErrCodeInternal),
	})
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreated sends a standardized created response with data
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendAccepted reports a queued or coalesced pipeline request
func SendAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// FormFile opens a multipart file field. An oversized body is reported as
// 413, a missing field as 400.
func FormFile(c *gin.Context, field string) (*multipart.FileHeader, multipart.File, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Status:  StatusError,
				Message: "Upload too large",
				Code:    string(apperrors.ErrCodeValidation),
				Details: gin.H{"max_bytes": tooLarge.Limit},
			})
			return nil, nil, false
		}
		SendError(c, apperrors.MissingFieldError(field))
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		SendError(c, apperrors.ValidationError(field, "unreadable upload"))
		return nil, nil, false
	}
	return header, file, true
}
