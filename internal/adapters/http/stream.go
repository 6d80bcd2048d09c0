package httpadapter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"svw.info/puzzle/internal/domain"
)

// streamMsg is one live update. Type is "puzzle" or "image".
type streamMsg struct {
	Type     string             `json:"type"`
	Puzzle   *domain.PuzzleData `json:"puzzle,omitempty"`
	Progress float64            `json:"progress"`
	Image    *imageInfo         `json:"image,omitempty"`
}

// handleStream pushes every snapshot and image change over a websocket.
// Clients re-render the grid (and re-fetch piece images) on each message.
func (h *Handler) handleStream(c *gin.Context) {
	st := h.UC.Store
	if st == nil {
		c.JSON(http.StatusServiceUnavailable, errorResp{Error: "store not configured"})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	dataID, dataCh := st.PuzzleData().Subscribe()
	defer st.PuzzleData().Unsubscribe(dataID)
	imgID, imgCh := st.Image().Subscribe()
	defer st.Image().Unsubscribe(imgID)

	// the read loop only notices the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		var msg streamMsg
		select {
		case d, ok := <-dataCh:
			if !ok {
				return
			}
			if d == nil {
				continue
			}
			msg = streamMsg{Type: "puzzle", Puzzle: d, Progress: d.Progress()}
		case img, ok := <-imgCh:
			if !ok {
				return
			}
			sz := img.Bounds().Size()
			msg = streamMsg{Type: "image", Image: &imageInfo{
				Source:  st.ImageSource().String(),
				Width:   sz.X,
				Height:  sz.Y,
				Version: st.Image().Version(),
			}}
		case <-gone:
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
