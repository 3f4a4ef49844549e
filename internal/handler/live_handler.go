package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/aggregate"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/service"
)

const keepAliveInterval = 30 * time.Second

// LiveHandler streams teacher views over Server-Sent Events. Each stream
// owns one live subscription, released when the client goes away.
type LiveHandler struct {
	viewService *service.ViewService
	log         zerolog.Logger
}

func NewLiveHandler(viewService *service.ViewService, log zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		viewService: viewService,
		log:         log.With().Str("component", "live_handler").Logger(),
	}
}

// Units godoc
// GET /api/v1/teacher/live/units
func (h *LiveHandler) Units(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sub, err := h.viewService.WatchUnits(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer sub.Close()

	h.log.Info().Str("teacher_id", claims.UserID.String()).Msg("Teacher attached to live units")
	streamSnapshots(c, sub, []aggregate.UnitGroup{})
}

// Submissions godoc
// GET /api/v1/teacher/live/tasks/:id/submissions
func (h *LiveHandler) Submissions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	sub, err := h.viewService.WatchSubmissions(c.Request.Context(), middleware.GetClaims(c).UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer sub.Close()

	h.log.Info().Str("task_id", id.String()).Msg("Teacher attached to live submissions")
	streamSnapshots(c, sub, nil)
}

// streamSnapshots writes every snapshot as a "snapshot" event until the
// client disconnects or the subscription ends. A failed query is sent as
// empty instead of an error.
func streamSnapshots[T any](c *gin.Context, sub *live.Subscription[T], empty T) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	updates := sub.Updates()
	for {
		select {
		case <-ctx.Done():
			return

		case snap, ok := <-updates:
			if !ok {
				return
			}
			data := snap.Data
			if snap.Err != nil {
				data = empty
			}
			c.SSEvent("snapshot", gin.H{"data": data, "at": snap.At})
			c.Writer.Flush()

		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{})
			c.Writer.Flush()
		}
	}
}
