package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-engine/internal/crypto"
	"vigilance-engine/internal/models"
	"vigilance-engine/internal/service"
)

type PipelineHandler interface {
	Ingest(c *gin.Context)
	Score(c *gin.Context)
	Freeze(c *gin.Context)
	Unfreeze(c *gin.Context)
	FreezeStatus(c *gin.Context)
	RecentAudit(c *gin.Context)
	RecentScores(c *gin.Context)
	Health(c *gin.Context)
}

type pipelineHandler struct {
	svc         service.PipelineService
	environment string
	exposeError bool
	logger      *zap.Logger
}

// NewPipelineHandler creates the HTTP surface. exposeError adds the underlying
// error message to 500 responses and should only be set in development.
func NewPipelineHandler(svc service.PipelineService, environment string, exposeError bool, logger *zap.Logger) PipelineHandler {
	return &pipelineHandler{
		svc:         svc,
		environment: environment,
		exposeError: exposeError,
		logger:      logger,
	}
}

// Ingest handles POST /ingest
func (h *pipelineHandler) Ingest(c *gin.Context) {
	var req models.IngestRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Ingest(req, origin(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.IngestResponse{
		Status:    "success",
		MessageID: res.MessageID,
		Frozen:    res.Frozen,
	})
}

// Score handles POST /score
func (h *pipelineHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if !h.bind(c, &req) {
		return
	}

	out, err := h.svc.Score(req, origin(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ScoreResponse{
		Status:      "success",
		Score:       out.Score,
		RiskLevel:   out.RiskTier,
		Flagged:     out.Flagged,
		Flags:       out.Flags,
		Explanation: out.Explanation,
		MessageID:   out.MessageID,
		AutoFrozen:  out.AutoFrozen,
	})
}

// Freeze handles POST /freeze
func (h *pipelineHandler) Freeze(c *gin.Context) {
	var req models.FreezeRequest
	if !h.bind(c, &req) {
		return
	}

	rec, err := h.svc.Freeze(req, origin(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FreezeResponse{
		Status:    "success",
		Frozen:    true,
		ChildID:   rec.ChildID,
		Reason:    rec.Reason,
		Timestamp: rec.SetAt.UnixMilli(),
	})
}

// Unfreeze handles POST /unfreeze and POST /freeze/unfreeze
func (h *pipelineHandler) Unfreeze(c *gin.Context) {
	var req models.UnfreezeRequest
	if !h.bind(c, &req) {
		return
	}

	rec, err := h.svc.Unfreeze(req, origin(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FreezeResponse{
		Status:  "unfrozen",
		Frozen:  false,
		ChildID: rec.ChildID,
	})
}

// FreezeStatus handles GET /freeze/:childId
func (h *pipelineHandler) FreezeStatus(c *gin.Context) {
	rec, err := h.svc.Status(c.Param("childId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := models.FreezeResponse{
		Status:  "success",
		Frozen:  rec.Frozen,
		ChildID: rec.ChildID,
	}
	if rec.Frozen {
		resp.Reason = rec.Reason
		resp.Timestamp = rec.SetAt.UnixMilli()
	}
	c.JSON(http.StatusOK, resp)
}

// RecentAudit handles GET /audit?limit=N
func (h *pipelineHandler) RecentAudit(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	entries := h.svc.RecentAudit(limit)
	c.JSON(http.StatusOK, gin.H{"status": "success", "entries": entries, "total": len(entries)})
}

// RecentScores handles GET /scores?limit=N
func (h *pipelineHandler) RecentScores(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	entries := h.svc.RecentScores(limit)
	c.JSON(http.StatusOK, gin.H{"status": "success", "entries": entries, "total": len(entries)})
}

// Health handles GET /health
func (h *pipelineHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.environment,
	})
}

func (h *pipelineHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorBody("Request body too large"))
			return false
		}
		h.logger.Debug("Failed to bind JSON", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("Invalid JSON body"))
		return false
	}
	return true
}

func (h *pipelineHandler) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return service.DefaultRecentLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, errorBody("limit must be a positive integer"))
		return 0, false
	}
	return limit, true
}

func (h *pipelineHandler) fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	var decodeErr *crypto.DecodeError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorBody(verr.Error()))
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusBadRequest, errorBody("Decryption failed: "+decodeErr.Error()))
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		body := errorBody("Internal Server Error")
		if h.exposeError {
			body.Message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func errorBody(msg string) models.ErrorResponse {
	return models.ErrorResponse{Status: "error", Error: msg}
}

func origin(c *gin.Context) models.RequestOrigin {
	return models.RequestOrigin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
