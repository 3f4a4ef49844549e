package websocket

import "github.com/stemsi/artbox-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSubscribeWorks     Action = "subscribe_works"
	ActionSubscribeResources Action = "subscribe_resources"
	ActionUnsubscribe        Action = "unsubscribe"
	ActionPing               Action = "ping"
)

// Request is a client message. Topic names the stream to drop on
// unsubscribe ("works" or "resources").
type Request struct {
	Action Action `json:"action"`
	Topic  string `json:"topic,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventSubscribed   Event = "subscribed"
	EventUnsubscribed Event = "unsubscribed"
	EventWorks        Event = "works"
	EventResources    Event = "resources"
	EventPong         Event = "pong"
)

// Stream topics a connection can hold.
const (
	TopicWorks     = "works"
	TopicResources = "resources"
)

type AckResponse struct {
	Event Event  `json:"event"`
	Topic string `json:"topic"`
}

// WorksResponse carries a full snapshot of the student's works.
type WorksResponse struct {
	Event Event        `json:"event"`
	Works []model.Work `json:"works"`
}

// ResourcesResponse carries a full snapshot of the class's shared resources.
type ResourcesResponse struct {
	Event     Event                  `json:"event"`
	Resources []model.SharedResource `json:"resources"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
