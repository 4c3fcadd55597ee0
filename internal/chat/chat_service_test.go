package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndHistory(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	msgs := []Message{
		{User: "alice", UserInfo: "tok-a", Text: "hello"},
		{User: "bob", UserInfo: "tok-b", Text: "hi"},
		{User: "alice", UserInfo: "tok-a", Text: "ready?"},
	}
	for _, m := range msgs {
		require.NoError(t, svc.Append(ctx, "room-1", m))
	}

	got, err := svc.History(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
}

func TestHistoryUnknownRoom(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	got, err := svc.History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestAppendRejectsEmptyText(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	err := svc.Append(context.Background(), "room-1", Message{User: "alice", Text: ""})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAppendEnforcesLengthBound(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	// 799 chars is the longest accepted message
	ok := strings.Repeat("x", 799)
	require.NoError(t, svc.Append(ctx, "room-1", Message{User: "alice", Text: ok}))

	tooLong := strings.Repeat("x", 800)
	err := svc.Append(ctx, "room-1", Message{User: "alice", Text: tooLong})
	assert.ErrorIs(t, err, ErrMessageTooLong)

	got, err := svc.History(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRoomsAreIsolated(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, "room-1", Message{User: "alice", Text: "one"}))
	require.NoError(t, svc.Append(ctx, "room-2", Message{User: "bob", Text: "two"}))

	got, err := svc.History(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Text)
}
