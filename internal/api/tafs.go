package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taf-intake/internal/common/errors"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/metrics"
	"taf-intake/internal/intake/assembler"
	"taf-intake/internal/intake/certificate"
	"taf-intake/internal/intake/listing"
	"taf-intake/internal/models"
	"taf-intake/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	msgSaved          = "TAF salvo com sucesso"
	msgMissingFields  = "Campos obrigatórios faltando"
	msgInvalidJSON    = "JSON inválido"
	msgBodyTooLarge   = "Requisição muito grande"
	msgNoDatabase     = "Banco de dados não configurado. Nenhum TAF disponível."
	maxBodyWithoutImg = 64 << 10
)

type TafHandler struct {
	store     store.Store
	assembler *assembler.Assembler
	errors    *errors.ErrorHandler
	timeout   time.Duration
	maxBody   int64
	certOpts  certificate.Options
	logger    logger.Logger
}

// Create handles POST /api/tafs.
func (h *TafHandler) Create(c *gin.Context) {
	rec, err := h.decode(c)
	if err != nil {
		h.reject(c, err)
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	id, err := h.store.Append(ctx, rec)
	if err != nil {
		h.reject(c, err)
		return
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	h.logger.Info("TAF stored", map[string]interface{}{
		"id":         id,
		"passportId": rec.PassportID,
		"approved":   rec.Status.Approved,
	})
	c.JSON(http.StatusCreated, gin.H{"message": msgSaved, "id": id})
}

// decode runs the body through schema validation and the assembler.
func (h *TafHandler) decode(c *gin.Context) (*models.CandidateRecord, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewValidationError(msgBodyTooLarge, fmt.Sprintf("limit %d bytes", tooLarge.Limit))
		}
		return nil, errors.NewValidationError(msgInvalidJSON, err.Error())
	}

	result, err := submissionSchema.ValidateBytes(body)
	if err != nil {
		return nil, errors.NewValidationError(msgInvalidJSON, err.Error())
	}
	if !result.Valid {
		return nil, errors.NewValidationError(msgMissingFields, strings.Join(result.GetErrorMessages(), "; "))
	}

	var sub models.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, errors.NewValidationError(msgInvalidJSON, err.Error())
	}

	in, err := assembler.InputFromSubmission(&sub)
	if err != nil {
		return nil, err
	}
	return h.assembler.Assemble(in)
}

func (h *TafHandler) reject(c *gin.Context, err error) {
	metrics.SubmissionsTotal.WithLabelValues(outcome(err)).Inc()
	h.errors.Respond(c, err)
}

func outcome(err error) string {
	stdErr := errors.Normalize(err)
	switch stdErr.Code {
	case errors.ErrCodeValidationFailed:
		return "invalid"
	case errors.ErrCodeBlacklistBlock:
		return "blacklisted"
	case errors.ErrCodeStorageUnavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// List handles GET /api/tafs?status=&q=. An unavailable store still answers
// 200 with an empty list.
func (h *TafHandler) List(c *gin.Context) {
	approval, err := listing.ParseApproval(c.Query("status"))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	records, err := h.store.ListAll(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeStorageUnavailable) {
			h.logger.Warn("listing without storage", map[string]interface{}{"error": err.Error()})
			c.JSON(http.StatusOK, gin.H{
				"message": msgNoDatabase,
				"tafs":    []models.CandidateRecord{},
				"summary": listing.Summary{},
			})
			return
		}
		h.errors.Respond(c, err)
		return
	}

	records = listing.Filter(records, listing.Query{Approval: approval, Search: c.Query("q")})
	c.JSON(http.StatusOK, gin.H{
		"tafs":    records,
		"summary": listing.Summarize(records),
	})
}

// Get handles GET /api/tafs/:id.
func (h *TafHandler) Get(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Certificate handles GET /api/tafs/:id/certificate.
func (h *TafHandler) Certificate(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}

	page, err := certificate.Render(certificate.NewView(rec, h.certOpts))
	if err != nil {
		h.errors.Respond(c, errors.NewInternalError(err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", certificate.Filename(rec)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *TafHandler) load(c *gin.Context) (*models.CandidateRecord, bool) {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	rec, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		h.errors.Respond(c, err)
		return nil, false
	}
	return rec, true
}

func (h *TafHandler) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
