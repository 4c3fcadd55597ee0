package ws

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"time"

	"response-service/internal/answers"
	"response-service/internal/chat"
)

// eventTimeout bounds the storage work done for one inbound event.
const eventTimeout = 10 * time.Second

// Handler dispatches inbound events to the engine and the chat service
// and broadcasts the resulting records to the event's room. Engine
// returns go out verbatim as the wire payload.
type Handler struct {
	hub     *Hub
	answers *answers.Service
	chat    *chat.Service
}

func NewHandler(hub *Hub, answersSvc *answers.Service, chatSvc *chat.Service) *Handler {
	return &Handler{
		hub:     hub,
		answers: answersSvc,
		chat:    chatSvc,
	}
}

func (h *Handler) Handle(c *Client, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.Send(newErrorEvent("bad_event", "malformed event"))
		return
	}
	if !ev.Type.IsValid() {
		c.Send(newErrorEvent("unknown_event", "unknown event type: "+ev.Type.String()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch ev.Type {
	case EventJoinRoom:
		h.handleJoin(c, ev.Data)
	case EventLeaveRoom:
		h.handleLeave(c, ev.Data)
	case EventChatSend:
		h.handleChatSend(ctx, c, ev.Data)
	case EventChatHistory:
		h.handleChatHistory(ctx, c, ev.Data)
	case EventViewQuestion:
		h.handleViewQuestion(ctx, c, ev.Data)
	case EventSubmitAnswer:
		h.handleSubmitAnswer(ctx, c, ev.Data)
	}
}

func (h *Handler) handleJoin(c *Client, data json.RawMessage) {
	var d RoomData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" {
		c.Send(newErrorEvent("bad_payload", "room is required"))
		return
	}
	h.hub.JoinRoom(c, d.Room)
}

func (h *Handler) handleLeave(c *Client, data json.RawMessage) {
	var d RoomData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" {
		c.Send(newErrorEvent("bad_payload", "room is required"))
		return
	}
	h.hub.LeaveRoom(c, d.Room)
}

func (h *Handler) handleChatSend(ctx context.Context, c *Client, data json.RawMessage) {
	var d ChatSendData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" {
		c.Send(newErrorEvent("bad_payload", "malformed chat message"))
		return
	}

	// User-supplied text is escaped here, at the transport boundary
	d.Message.User = html.EscapeString(d.Message.User)
	d.Message.Text = html.EscapeString(d.Message.Text)

	if err := h.chat.Append(ctx, d.Room, d.Message); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
			c.Send(newErrorEvent("invalid_message", err.Error()))
		default:
			slog.Error("append chat message", "room", d.Room, "error", err)
			c.Send(newErrorEvent("storage_unavailable", "could not store message"))
		}
		return
	}

	event, err := Encode(EventChatAppend, []chat.Message{d.Message})
	if err != nil {
		slog.Error("encode chat event", "error", err)
		return
	}
	h.hub.BroadcastToRoom(ctx, d.Room, event)
}

func (h *Handler) handleChatHistory(ctx context.Context, c *Client, data json.RawMessage) {
	var d RoomData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" {
		c.Send(newErrorEvent("bad_payload", "room is required"))
		return
	}

	messages, err := h.chat.History(ctx, d.Room)
	if err != nil {
		slog.Error("load chat history", "room", d.Room, "error", err)
		c.Send(newErrorEvent("storage_unavailable", "could not load history"))
		return
	}
	if len(messages) == 0 {
		return
	}

	event, err := Encode(EventChatAppend, messages)
	if err != nil {
		slog.Error("encode chat history", "error", err)
		return
	}
	h.hub.BroadcastToRoom(ctx, d.Room, event)
}

func (h *Handler) handleViewQuestion(ctx context.Context, c *Client, data json.RawMessage) {
	var d ViewQuestionData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" {
		c.Send(newErrorEvent("bad_payload", "malformed view event"))
		return
	}
	if len(d.Questions) == 0 {
		return
	}

	update := ViewersUpdateData{Data: make([]*answers.Question, 0, len(d.Questions))}
	for _, question := range d.Questions {
		record, err := h.answers.RecordView(ctx, question, d.UserInfo)
		if err != nil {
			slog.Error("record view", "question", question, "error", err)
			c.Send(newErrorEvent("storage_unavailable", "could not record view"))
			return
		}
		update.Data = append(update.Data, record)
	}

	event, err := Encode(EventViewersUpdate, update)
	if err != nil {
		slog.Error("encode viewers update", "error", err)
		return
	}
	h.hub.BroadcastToRoom(ctx, d.Room, event)
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, c *Client, data json.RawMessage) {
	var d SubmitAnswerData
	if err := json.Unmarshal(data, &d); err != nil || d.Room == "" || d.Question == "" {
		c.Send(newErrorEvent("bad_payload", "malformed answer event"))
		return
	}

	qt := answers.QuestionType(d.QuestionType)
	if !qt.IsValid() {
		c.Send(newErrorEvent("invalid_question_type", "unrecognized question type: "+d.QuestionType))
		return
	}

	sub, err := d.DecodeAnswer(qt)
	if err != nil {
		c.Send(newErrorEvent("bad_payload", err.Error()))
		return
	}

	record, err := h.answers.RecordAnswer(ctx, d.Question, qt, sub, d.UserInfo)
	if err != nil {
		if errors.Is(err, answers.ErrInvalidQuestionType) {
			c.Send(newErrorEvent("invalid_question_type", err.Error()))
			return
		}
		slog.Error("record answer", "question", d.Question, "error", err)
		c.Send(newErrorEvent("storage_unavailable", "could not record answer"))
		return
	}
	if record == nil {
		// Toggle-off on a question nobody has seen; nothing to broadcast
		return
	}

	event, err := Encode(EventAnswersUpdate, record)
	if err != nil {
		slog.Error("encode answers update", "error", err)
		return
	}
	h.hub.BroadcastToRoom(ctx, d.Room, event)
}
