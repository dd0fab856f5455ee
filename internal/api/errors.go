package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/desk"
	"github.com/zulandar/switchboard/internal/roster"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch desk.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "unavailable", "lock_conflict", "capacity_exceeded":
		return http.StatusConflict
	case "invalid":
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, roster.ErrNotFound), errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrInvalidScore):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err with its kind and any structured fields.
func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := desk.Kind(err); kind != "" {
		body["kind"] = kind
	}

	var nf *desk.NotFoundError
	var ua *desk.UnavailableError
	var lc *desk.LockConflictError
	var ce *desk.CapacityError
	switch {
	case errors.As(err, &nf):
		body["resource"] = nf.Resource
		body["id"] = nf.ID
	case errors.As(err, &ua):
		body["operatorId"] = ua.OperatorID
		body["status"] = ua.Status
	case errors.As(err, &lc):
		body["inquiryId"] = lc.InquiryID
		body["holderId"] = lc.HolderID
		body["holderName"] = lc.HolderName
	case errors.As(err, &ce):
		body["operatorId"] = ce.OperatorID
		body["current"] = ce.Current
		body["max"] = ce.Max
		if ce.Status != "" {
			body["status"] = ce.Status
		}
	}
	c.JSON(statusFor(err), body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": "invalid"})
}
