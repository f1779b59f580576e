package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-bot/internal/domain"
	"trivia-bot/internal/intake"
)

// MessageHandler consumes chat messages arriving from the bridge.
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.Message) intake.Result
}

// WSHandler is the chat bridge: every connection is one chat member in one
// channel. Inbound messages go through intake; announcements stream back.
type WSHandler struct {
	intake   MessageHandler
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(in MessageHandler, hub *Hub, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		intake: in,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type receiptPayload struct {
	Decision intake.Decision      `json:"decision"`
	Answer   *domain.AnswerResult `json:"answer,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and feeds chat messages into intake.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if channelID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing channelId, userId, or name", http.StatusBadRequest)
		return
	}
	isBot, _ := strconv.ParseBool(r.URL.Query().Get("bot"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(channelID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "announcement", Payload: ev}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "connected", Payload: domain.Participant{ID: userID, Name: displayName}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "message":
			var payload chatPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid message payload"}}
				continue
			}
			res := h.intake.Handle(r.Context(), domain.Message{
				ChannelID:  channelID,
				AuthorID:   userID,
				AuthorName: displayName,
				AuthorBot:  isBot,
				Text:       payload.Text,
				ReceivedAt: time.Now(),
			})
			send <- outboundMessage[any]{Type: "receipt", Payload: receiptPayload{Decision: res.Decision, Answer: res.Answer}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
