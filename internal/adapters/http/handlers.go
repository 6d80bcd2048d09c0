package httpadapter

import (
	"context"
	"errors"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/metrics"
	"svw.info/puzzle/internal/usecase"
)

const writeWait = 10 * time.Second

type Handler struct {
	UC       *usecase.Service
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func New(uc *usecase.Service, logger *zap.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		UC:      uc,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.handleHealth)
	api := r.Group("/api")
	api.GET("/puzzle", h.handleSnapshot)
	api.GET("/puzzle/image.png", h.handleComposite)
	api.GET("/puzzle/pieces/:id/image.png", h.handlePiece)
	api.POST("/puzzle/claims", h.handleClaim)
	api.POST("/puzzle/reload", h.handleReload)
	api.GET("/puzzle/ws", h.handleStream)
	api.GET("/events", h.handleEvents)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotInitialized), errors.Is(err, domain.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResp struct {
	Error string `json:"error"`
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorResp{Error: err.Error()})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "puzzle"})
}

// ---- Snapshot ----

type imageInfo struct {
	Source  string `json:"source"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Version uint64 `json:"version"`
}

type snapshotResp struct {
	Event    *domain.Event        `json:"event,omitempty"`
	Puzzle   *domain.PuzzleData   `json:"puzzle,omitempty"`
	Progress float64              `json:"progress"`
	Ranking  []domain.Contributor `json:"ranking"`
	Image    imageInfo            `json:"image"`
}

func (h *Handler) handleSnapshot(c *gin.Context) {
	v, err := h.UC.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ranking := v.Ranking
	if ranking == nil {
		ranking = []domain.Contributor{}
	}
	c.JSON(http.StatusOK, snapshotResp{
		Event:    v.Event,
		Puzzle:   v.Puzzle,
		Progress: v.Puzzle.Progress(),
		Ranking:  ranking,
		Image: imageInfo{
			Source:  v.ImageSource.String(),
			Width:   v.ImageSize.X,
			Height:  v.ImageSize.Y,
			Version: h.UC.Store.Image().Version(),
		},
	})
}

// ---- Images ----

func (h *Handler) handleComposite(c *gin.Context) {
	img, err := h.UC.Composite(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		h.logger.Warn("encode composite", zap.Error(err))
	}
}

func (h *Handler) handlePiece(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid piece id"})
		return
	}
	img, err := h.UC.Piece(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		h.logger.Warn("encode piece", zap.Int("piece", id), zap.Error(err))
	}
}

// ---- Claim ----

type claimReq struct {
	PieceID int `json:"pieceId" binding:"required,min=1"`
	User    struct {
		ID          int64  `json:"id" binding:"required,min=1"`
		DisplayName string `json:"displayName" binding:"required,max=64"`
	} `json:"user"`
}

type claimResp struct {
	Puzzle *domain.PuzzleData `json:"puzzle,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func (h *Handler) handleClaim(c *gin.Context) {
	var req claimReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, claimResp{Error: "invalid request: " + err.Error()})
		return
	}
	user := domain.User{ID: req.User.ID, DisplayName: req.User.DisplayName}
	d, err := h.UC.Claim(c.Request.Context(), req.PieceID, user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, claimResp{Puzzle: d})
}

// ---- Reload ----

type reloadReq struct {
	URL string `json:"url" binding:"omitempty,url"`
}

func (h *Handler) handleReload(c *gin.Context) {
	var req reloadReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResp{Error: "invalid request: " + err.Error()})
			return
		}
	}
	if err := h.UC.Reload(c.Request.Context(), req.URL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reloading"})
}

// ---- Events ----

type eventsResp struct {
	Events []domain.EventMeta `json:"events"`
}

func (h *Handler) handleEvents(c *gin.Context) {
	evs, err := h.UC.ListEvents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if evs == nil {
		evs = []domain.EventMeta{}
	}
	c.JSON(http.StatusOK, eventsResp{Events: evs})
}
