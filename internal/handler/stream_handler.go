package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/service"
	ws "github.com/stemsi/artbox-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler pushes a student's live views over one WebSocket.
type StreamHandler struct {
	viewService *service.ViewService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(viewService *service.ViewService, log zerolog.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		viewService: viewService,
		log:         log.With().Str("component", "stream_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/student/stream?token=
// Each subscribe action starts one live subscription; repeating it
// replaces the previous one. Everything is released on disconnect.
func (h *StreamHandler) Stream(c *gin.Context) {
	student := middleware.GetUser(c)

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("student_id", student.ID.String()).Logger()
	wsLog.Info().Msg("Student connected")

	streams := newStreamSet()
	defer streams.closeAll()

	ctx := c.Request.Context()
	for {
		var msg ws.Request
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSubscribeWorks:
			sub, err := h.viewService.WatchStudentWorks(ctx, student.ID)
			if err != nil {
				wsLog.Error().Err(err).Msg("Subscribe works failed")
				conn.WriteError("subscribe failed")
				continue
			}
			streams.replace(ws.TopicWorks, sub.Close)
			go pushSnapshots(conn, sub.Updates(), func(works []model.Work) any {
				if works == nil {
					works = []model.Work{}
				}
				return ws.WorksResponse{Event: ws.EventWorks, Works: works}
			})
			conn.WriteTyped(ws.AckResponse{Event: ws.EventSubscribed, Topic: ws.TopicWorks})

		case ws.ActionSubscribeResources:
			sub, err := h.viewService.WatchResources(ctx, *student.ClassID)
			if err != nil {
				wsLog.Error().Err(err).Msg("Subscribe resources failed")
				conn.WriteError("subscribe failed")
				continue
			}
			streams.replace(ws.TopicResources, sub.Close)
			go pushSnapshots(conn, sub.Updates(), func(res []model.SharedResource) any {
				if res == nil {
					res = []model.SharedResource{}
				}
				return ws.ResourcesResponse{Event: ws.EventResources, Resources: res}
			})
			conn.WriteTyped(ws.AckResponse{Event: ws.EventSubscribed, Topic: ws.TopicResources})

		case ws.ActionUnsubscribe:
			if !streams.close(msg.Topic) {
				conn.WriteError("unknown topic: " + msg.Topic)
				continue
			}
			conn.WriteTyped(ws.AckResponse{Event: ws.EventUnsubscribed, Topic: msg.Topic})

		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// pushSnapshots forwards snapshots until the subscription closes its
// channel. Failed queries arrive with zero data and render as empty.
func pushSnapshots[T any](conn *ws.Conn, updates <-chan live.Snapshot[T], render func(T) any) {
	for snap := range updates {
		if err := conn.WriteTyped(render(snap.Data)); err != nil {
			return
		}
	}
}

// streamSet tracks the open subscriptions of one connection by topic.
type streamSet struct {
	mu     sync.Mutex
	closes map[string]func()
}

func newStreamSet() *streamSet {
	return &streamSet{closes: make(map[string]func())}
}

func (s *streamSet) replace(topic string, closeFn func()) {
	s.mu.Lock()
	prev := s.closes[topic]
	s.closes[topic] = closeFn
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (s *streamSet) close(topic string) bool {
	s.mu.Lock()
	closeFn, ok := s.closes[topic]
	delete(s.closes, topic)
	s.mu.Unlock()
	if ok {
		closeFn()
	}
	return ok
}

func (s *streamSet) closeAll() {
	s.mu.Lock()
	closes := s.closes
	s.closes = make(map[string]func())
	s.mu.Unlock()
	for _, fn := range closes {
		fn()
	}
}
