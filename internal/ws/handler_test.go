package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"response-service/internal/answers"
	"response-service/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, *Hub) {
	hub := NewHub(nil)
	return NewHandler(
		hub,
		answers.NewService(answers.NewMemoryStore()),
		chat.NewService(chat.NewMemoryRepository()),
	), hub
}

func joinedClient(hub *Hub, room string) *Client {
	c := newTestClient(hub)
	hub.JoinRoom(c, room)
	return c
}

func decodeEvent(t *testing.T, raw []byte) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestHandleJoinAndLeave(t *testing.T) {
	handler, hub := newTestHandler()
	c := newTestClient(hub)

	handler.Handle(c, []byte(`{"type":"room.join","data":{"room":"room-1"}}`))
	assert.Equal(t, 1, hub.RoomSize("room-1"))

	handler.Handle(c, []byte(`{"type":"room.leave","data":{"room":"room-1"}}`))
	assert.Equal(t, 0, hub.RoomSize("room-1"))
}

func TestHandleMalformedEvent(t *testing.T) {
	handler, hub := newTestHandler()
	c := newTestClient(hub)

	handler.Handle(c, []byte(`not json`))
	ev := decodeEvent(t, receive(t, c))
	assert.Equal(t, EventError, ev.Type)

	handler.Handle(c, []byte(`{"type":"no.such.event"}`))
	ev = decodeEvent(t, receive(t, c))
	assert.Equal(t, EventError, ev.Type)
}

func TestHandleViewQuestionBroadcastsRecords(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"question.view","data":{"room":"room-1","user_info":"u1","questions":["Q1","Q2"]}}`))

	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventViewersUpdate, ev.Type)

	var update ViewersUpdateData
	require.NoError(t, json.Unmarshal(ev.Data, &update))
	require.Len(t, update.Data, 2)
	assert.Equal(t, "Q1", update.Data[0].Text)
	assert.Equal(t, []string{"u1"}, update.Data[0].Viewers)
	assert.Empty(t, update.Data[0].Answers)
}

func TestHandleViewQuestionEmptyBatch(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"question.view","data":{"room":"room-1","user_info":"u1","questions":[]}}`))
	assert.Empty(t, c.send)
}

func TestHandleSubmitSingleAnswer(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"answer.submit","data":{"room":"room-1","question":"Q1","question_type":"numerical","user_info":"u1","answer":"42"}}`))

	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventAnswersUpdate, ev.Type)

	var record answers.Question
	require.NoError(t, json.Unmarshal(ev.Data, &record))
	require.Len(t, record.Answers, 1)
	assert.Equal(t, "42", record.Answers[0].Value)
	assert.Equal(t, []string{"u1"}, record.Answers[0].Voters)
}

func TestHandleSubmitCheckboxToggle(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	submit := func(value string, selected bool) {
		raw := fmt.Sprintf(`{"type":"answer.submit","data":{"room":"room-1","question":"Q2","question_type":"multichoice_checkbox","user_info":"u1","answer":[%q, %v]}}`, value, selected)
		handler.Handle(c, []byte(raw))
	}

	submit("A", true)
	receive(t, c)
	submit("B", true)
	receive(t, c)
	submit("A", false)

	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventAnswersUpdate, ev.Type)

	var record answers.Question
	require.NoError(t, json.Unmarshal(ev.Data, &record))
	require.Len(t, record.Answers, 1)
	assert.Equal(t, "B", record.Answers[0].Value)
}

func TestHandleSubmitUnknownQuestionType(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"answer.submit","data":{"room":"room-1","question":"Q1","question_type":"ranking","user_info":"u1","answer":"42"}}`))

	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventError, ev.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "invalid_question_type", data.Code)
}

func TestHandleChatSendEscapesAndBroadcasts(t *testing.T) {
	handler, hub := newTestHandler()
	sender := joinedClient(hub, "room-1")
	peer := joinedClient(hub, "room-1")

	handler.Handle(sender, []byte(`{"type":"chat.send","data":{"room":"room-1","message":{"user":"<b>alice</b>","user_info":"tok-a","text":"<script>hi</script>"}}}`))

	ev := decodeEvent(t, receive(t, peer))
	require.Equal(t, EventChatAppend, ev.Type)

	var messages []chat.Message
	require.NoError(t, json.Unmarshal(ev.Data, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "&lt;b&gt;alice&lt;/b&gt;", messages[0].User)
	assert.Equal(t, "&lt;script&gt;hi&lt;/script&gt;", messages[0].Text)
	assert.Equal(t, "tok-a", messages[0].UserInfo)
}

func TestHandleChatSendRejectsEmptyText(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"chat.send","data":{"room":"room-1","message":{"user":"alice","text":""}}}`))

	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventError, ev.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "invalid_message", data.Code)
}

func TestHandleChatHistory(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"chat.send","data":{"room":"room-1","message":{"user":"alice","text":"hello"}}}`))
	receive(t, c)

	handler.Handle(c, []byte(`{"type":"chat.history","data":{"room":"room-1"}}`))
	ev := decodeEvent(t, receive(t, c))
	require.Equal(t, EventChatAppend, ev.Type)

	var messages []chat.Message
	require.NoError(t, json.Unmarshal(ev.Data, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)
}

func TestHandleChatHistoryEmptyRoomIsSilent(t *testing.T) {
	handler, hub := newTestHandler()
	c := joinedClient(hub, "room-1")

	handler.Handle(c, []byte(`{"type":"chat.history","data":{"room":"room-1"}}`))
	assert.Empty(t, c.send)
}
