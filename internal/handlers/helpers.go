package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "stipend/internal/errors"
	"stipend/internal/logger"
	"stipend/internal/models"
	"stipend/internal/services"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// getSubject extracts the authenticated identity subject from the Gin
// context. Returns ErrUnauthorized if not present.
func getSubject(c *gin.Context) (string, error) {
	subject, exists := c.Get("subject")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return subject.(string), nil
}

// getEmail extracts the authenticated email from the Gin context, if any.
func getEmail(c *gin.Context) string {
	if email, exists := c.Get("email"); exists {
		return email.(string)
	}
	return ""
}

// currentStudent resolves the authenticated subject to a Student record.
func currentStudent(c *gin.Context, studentService services.StudentServicer) (*models.Student, error) {
	subject, err := getSubject(c)
	if err != nil {
		return nil, err
	}
	return studentService.GetBySubject(subject)
}

// parsePathID parses a uint path parameter.
// Returns ErrValidation if the parameter is not a valid positive integer.
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrValidation, "Invalid "+param)
	}
	return uint(id), nil
}

// parseQueryUint parses a uint query parameter value.
func parseQueryUint(v string) (uint, error) {
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
