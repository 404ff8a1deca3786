package api

import (
	"errors"
	"net/http"

	"parlayz/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var conflictErrors = []error{
	service.ErrInsufficientFunds,
	service.ErrEventNotOpen,
	service.ErrOfferNotOpen,
	service.ErrDuplicateEntry,
	service.ErrEventFull,
	service.ErrAlreadySettled,
	service.ErrInvalidTransition,
	service.ErrUsernameTaken,
}

var validationErrors = []error{
	service.ErrInvalidAmount,
	service.ErrInvalidStake,
	service.ErrInvalidOutcome,
	service.ErrInvalidInput,
	service.ErrSelfMatch,
	service.ErrBelowMinimumMatch,
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal failures are
// logged and hidden from the caller.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error("Request failed")
		Error(c, status, "internal error")
		return
	}
	Error(c, status, err.Error())
}
