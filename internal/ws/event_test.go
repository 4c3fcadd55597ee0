package ws

import (
	"encoding/json"
	"testing"

	"response-service/internal/answers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeIsValid(t *testing.T) {
	for _, et := range []EventType{EventJoinRoom, EventLeaveRoom, EventChatSend,
		EventChatHistory, EventViewQuestion, EventSubmitAnswer} {
		assert.True(t, et.IsValid(), et.String())
	}

	// Server-to-client types are not accepted inbound
	assert.False(t, EventChatAppend.IsValid())
	assert.False(t, EventError.IsValid())
	assert.False(t, EventType("bogus").IsValid())
}

func TestDecodeSingleAnswer(t *testing.T) {
	d := SubmitAnswerData{Answer: json.RawMessage(`"42"`)}

	sub, err := d.DecodeAnswer(answers.TypeNumerical)
	require.NoError(t, err)
	assert.Equal(t, answers.Submission{Value: "42"}, sub)
}

func TestDecodeCheckboxAnswerPair(t *testing.T) {
	d := SubmitAnswerData{Answer: json.RawMessage(`["A", true]`)}
	sub, err := d.DecodeAnswer(answers.TypeCheckbox)
	require.NoError(t, err)
	assert.Equal(t, answers.Submission{Value: "A", Selected: true}, sub)

	d.Answer = json.RawMessage(`["B", false]`)
	sub, err = d.DecodeAnswer(answers.TypeCheckbox)
	require.NoError(t, err)
	assert.Equal(t, answers.Submission{Value: "B", Selected: false}, sub)
}

func TestDecodeAnswerRejectsMalformedPayload(t *testing.T) {
	d := SubmitAnswerData{Answer: json.RawMessage(`["A"]`)}
	_, err := d.DecodeAnswer(answers.TypeCheckbox)
	assert.Error(t, err)

	d.Answer = json.RawMessage(`"A"`)
	_, err = d.DecodeAnswer(answers.TypeCheckbox)
	assert.Error(t, err)

	d.Answer = json.RawMessage(`["A", true]`)
	_, err = d.DecodeAnswer(answers.TypeShortAnswer)
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := Encode(EventError, ErrorData{Code: "x", Message: "y"})
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, EventError, ev.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "x", data.Code)
}
