package ws

import (
	"encoding/json"
	"fmt"

	"response-service/internal/answers"
	"response-service/internal/chat"
)

// EventType identifies a websocket event on the wire.
type EventType string

const (
	// Client → server
	EventJoinRoom     EventType = "room.join"
	EventLeaveRoom    EventType = "room.leave"
	EventChatSend     EventType = "chat.send"
	EventChatHistory  EventType = "chat.history"
	EventViewQuestion EventType = "question.view"
	EventSubmitAnswer EventType = "answer.submit"

	// Server → client
	EventChatAppend    EventType = "chat.append"
	EventViewersUpdate EventType = "question.viewers"
	EventAnswersUpdate EventType = "question.answers"
	EventError         EventType = "error"
)

func (t EventType) String() string {
	return string(t)
}

// IsValid checks if the EventType is one a client may send.
func (t EventType) IsValid() bool {
	switch t {
	case EventJoinRoom, EventLeaveRoom, EventChatSend, EventChatHistory,
		EventViewQuestion, EventSubmitAnswer:
		return true
	default:
		return false
	}
}

// Event is the wire envelope for both directions.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode builds a wire-ready event with the given payload.
func Encode(t EventType, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return json.Marshal(Event{Type: t, Data: raw})
}

/** -------------------- Payloads -------------------- */

type RoomData struct {
	Room string `json:"room"`
}

type ChatSendData struct {
	Room    string       `json:"room"`
	Message chat.Message `json:"message"`
}

type ViewQuestionData struct {
	Room      string   `json:"room"`
	UserInfo  string   `json:"user_info"`
	Questions []string `json:"questions"`
}

type SubmitAnswerData struct {
	Room         string          `json:"room"`
	Question     string          `json:"question"`
	QuestionType string          `json:"question_type"`
	UserInfo     string          `json:"user_info"`
	Answer       json.RawMessage `json:"answer"`
}

// DecodeAnswer turns the raw answer field into a submission. Single-answer
// types carry a plain string; checkbox types carry a two-element
// [value, selected] array.
func (d *SubmitAnswerData) DecodeAnswer(qt answers.QuestionType) (answers.Submission, error) {
	if qt == answers.TypeCheckbox {
		var pair []json.RawMessage
		if err := json.Unmarshal(d.Answer, &pair); err != nil || len(pair) != 2 {
			return answers.Submission{}, fmt.Errorf("checkbox answer must be a [value, selected] pair")
		}
		var sub answers.Submission
		if err := json.Unmarshal(pair[0], &sub.Value); err != nil {
			return answers.Submission{}, fmt.Errorf("checkbox answer value: %w", err)
		}
		if err := json.Unmarshal(pair[1], &sub.Selected); err != nil {
			return answers.Submission{}, fmt.Errorf("checkbox answer toggle: %w", err)
		}
		return sub, nil
	}

	var value string
	if err := json.Unmarshal(d.Answer, &value); err != nil {
		return answers.Submission{}, fmt.Errorf("answer must be a string: %w", err)
	}
	return answers.Submission{Value: value}, nil
}

type ViewersUpdateData struct {
	Data []*answers.Question `json:"data"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorEvent(code, message string) []byte {
	data, _ := Encode(EventError, ErrorData{Code: code, Message: message})
	return data
}
