// Package handler exposes the batch service over HTTP: a JSON API for the
// CLI-equivalent operations, the HTML dashboard, and operational endpoints
// (metrics, rate limiting, operator auth).
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/batchtrace/batchtrace/internal/batch"
	"github.com/batchtrace/batchtrace/internal/ledger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatchHandler handles HTTP requests for batch records.
type BatchHandler struct {
	svc    *batch.Service
	tokens *TokenIssuer // nil = open mode, mutations unauthenticated
	logger *zap.Logger
}

// NewBatchHandler creates a BatchHandler. tokens may be nil to disable
// operator auth on mutation routes (development only).
func NewBatchHandler(svc *batch.Service, tokens *TokenIssuer, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{svc: svc, tokens: tokens, logger: logger}
}

func (h *BatchHandler) requireOperator() gin.HandlerFunc {
	if h.tokens == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return RequireOperator(h.tokens)
}

// Register mounts the batch routes on the given router group.
func (h *BatchHandler) Register(rg *gin.RouterGroup) {
	b := rg.Group("/batches")
	{
		b.GET("", h.ListBatches)
		b.GET("/expiring/:date", h.FindByExpiration)
		b.GET("/:key", h.GetBatch)
		b.GET("/:key/history", h.GetHistory)
		b.GET("/:key/changes", h.GetChanges)

		b.POST("", h.requireOperator(), h.CreateBatch)
		b.POST("/:key/qc-tests", h.requireOperator(), h.AppendQCTest)
		b.POST("/:key/deviations", h.requireOperator(), h.AppendDeviation)
		b.POST("/:key/capas", h.requireOperator(), h.AppendCAPA)
		b.POST("/:key/oos", h.requireOperator(), h.AppendOOS)
		b.PATCH("/:key/release-status", h.requireOperator(), h.UpdateReleaseStatus)
		b.PATCH("/:key/expiration-date", h.requireOperator(), h.UpdateExpirationDate)
	}
}

// renderError maps the core error taxonomy onto HTTP status codes.
func (h *BatchHandler) renderError(c *gin.Context, err error) {
	var ve *batch.ValidationError
	var de *batch.DecodeError
	var te *ledger.TransportError

	switch {
	case errors.Is(err, batch.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "input": ve.Input})
	case errors.As(err, &de):
		// Data-integrity loss: log loudly, tell the caller the ledger is suspect.
		h.logger.Error("ledger payload corrupt", zap.String("batch", de.Key), zap.Error(de))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger payload corrupt"})
	case errors.As(err, &te):
		h.logger.Error("ledger unreachable", zap.Error(te))
		c.JSON(http.StatusBadGateway, gin.H{"error": "ledger unavailable"})
	default:
		h.logger.Error("batch operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ListBatches handles GET /batches — every distinct batch number, sorted.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	keys, err := h.svc.ListKeys(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"batches": keys})
}

// GetBatch handles GET /batches/:key — the current version of one batch.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	rec, err := h.svc.Current(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetHistory handles GET /batches/:key/history — all versions in chain order.
func (h *BatchHandler) GetHistory(c *gin.Context) {
	history, err := h.svc.History(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": history})
}

// GetChanges handles GET /batches/:key/changes — field diffs between each
// consecutive version pair.
func (h *BatchHandler) GetChanges(c *gin.Context) {
	diffs, err := h.svc.Changes(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": diffs})
}

// FindByExpiration handles GET /batches/expiring/:date where date is YYYY,
// YYYY-MM, or YYYY-MM-DD.
func (h *BatchHandler) FindByExpiration(c *gin.Context) {
	records, err := h.svc.FindByExpiration(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if records == nil {
		records = []*batch.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"batches": records})
}

type createBatchRequest struct {
	BatchNumber     string `json:"batch_number" binding:"required"`
	ManufactureDate string `json:"manufacture_date" binding:"required"`
	ExpirationDate  string `json:"expiration_date" binding:"required"`
}

// CreateBatch handles POST /batches.
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), req.BatchNumber, req.ManufactureDate, req.ExpirationDate)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type appendQCTestRequest struct {
	TestName   string `json:"test_name" binding:"required"`
	TestResult string `json:"test_result" binding:"required"`
	TestHash   string `json:"test_hash" binding:"required"`
}

// AppendQCTest handles POST /batches/:key/qc-tests.
func (h *BatchHandler) AppendQCTest(c *gin.Context) {
	var req appendQCTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.AppendQCTest(c.Request.Context(), c.Param("key"), batch.QCTest{
		TestName:   req.TestName,
		TestResult: req.TestResult,
		TestHash:   req.TestHash,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}

// AppendDeviation handles POST /batches/:key/deviations.
func (h *BatchHandler) AppendDeviation(c *gin.Context) {
	h.appendIdentifier(c, h.svc.AppendDeviation)
}

// AppendCAPA handles POST /batches/:key/capas.
func (h *BatchHandler) AppendCAPA(c *gin.Context) {
	h.appendIdentifier(c, h.svc.AppendCAPA)
}

// AppendOOS handles POST /batches/:key/oos.
func (h *BatchHandler) AppendOOS(c *gin.Context) {
	h.appendIdentifier(c, h.svc.AppendOOS)
}

// appendIdentifier is the shared body of the three identifier-list appends.
func (h *BatchHandler) appendIdentifier(c *gin.Context, op func(ctx context.Context, key, id string) (*batch.Record, error)) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := op(c.Request.Context(), c.Param("key"), req.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateStatusRequest struct {
	ReleaseStatus string `json:"release_status" binding:"required"`
}

// UpdateReleaseStatus handles PATCH /batches/:key/release-status.
func (h *BatchHandler) UpdateReleaseStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.UpdateReleaseStatus(c.Request.Context(), c.Param("key"), req.ReleaseStatus)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateExpirationRequest struct {
	ExpirationDate string `json:"expiration_date" binding:"required"`
}

// UpdateExpirationDate handles PATCH /batches/:key/expiration-date.
func (h *BatchHandler) UpdateExpirationDate(c *gin.Context) {
	var req updateExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.UpdateExpirationDate(c.Request.Context(), c.Param("key"), req.ExpirationDate)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
