package api

import (
	"net/http"
	"strings"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/common/metrics"
	"taf-intake/internal/intake/blacklist"
	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	msgEnterPassport = "Por favor, insira um ID de passaporte."
	msgBlacklisted   = "ESTA PESSOA ESTA NA BLACKLIST - NAO PODE SER RECRUTADA!"
	msgNotListed     = "ESTA PESSOA NAO ESTA NA BLACKLIST"
)

// CheckHandler serves the form's pre-submit checks. Neither persists anything.
type CheckHandler struct {
	gate   blacklist.Gate
	errors *errors.ErrorHandler
}

type blacklistCheckRequest struct {
	PassportID string `json:"passportId"`
}

// Blacklist handles POST /api/blacklist/check.
func (h *CheckHandler) Blacklist(c *gin.Context) {
	var req blacklistCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.Respond(c, errors.NewValidationError(msgInvalidJSON, err.Error()))
		return
	}

	id := strings.TrimSpace(req.PassportID)
	if id == "" {
		metrics.BlacklistChecksTotal.WithLabelValues("empty").Inc()
		h.errors.Respond(c, errors.NewValidationError(msgEnterPassport, "passportId"))
		return
	}

	listed := h.gate.IsBlacklisted(id)
	message := msgNotListed
	result := "clear"
	if listed {
		message = msgBlacklisted
		result = "blocked"
	}
	metrics.BlacklistChecksTotal.WithLabelValues(result).Inc()

	c.JSON(http.StatusOK, gin.H{
		"passportId":  id,
		"blacklisted": listed,
		"message":     message,
	})
}

type evaluateRequest struct {
	Criteria models.LabeledChecks `json:"criteria"`
}

// Evaluate handles POST /api/evaluate. Labels missing from the map count as
// not completed.
func (h *CheckHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.Respond(c, errors.NewValidationError(msgInvalidJSON, err.Error()))
		return
	}

	set, err := criteria.FromLabels(req.Criteria)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	result := criteria.Evaluate(set)
	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"status": result.Status(),
	})
}
