package service

import (
	"errors"
	"net/http"

	"taskboard/logutils"
	"taskboard/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Error is a service-layer failure carrying the HTTP status and the
// stable machine-readable code the frontend branches on. Every
// expected failure (validation, authorization, conflict, not-found)
// is one of these; anything else is a fault and logged as such.
type Error struct {
	Status  int
	Code    response.ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func validationErr(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: response.InvalidRequest, Message: msg}
}

func forbiddenErr(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: response.Forbidden, Message: msg}
}

func notFoundErr(entity string) *Error {
	return &Error{Status: http.StatusNotFound, Code: response.NotFound, Message: entity + " not found"}
}

func conflictErr(code response.ErrorCode, msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Message: msg}
}

// abortWithError translates a service error into the JSON envelope.
func abortWithError(c *gin.Context, err error) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		response.HTTPError(c, svcErr.Status, svcErr.Message, svcErr.Code)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.HTTPError(c, http.StatusNotFound, "record not found", response.NotFound)
		return
	}
	logutils.Log.Error(err)
	response.Error(c, err.Error(), response.NotSpecified)
}
