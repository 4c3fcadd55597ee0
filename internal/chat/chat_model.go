package chat

import "errors"

// ChatLog is the append-only message list for one room.
type ChatLog struct {
	Room     string    `bson:"room" json:"room"`
	Messages []Message `bson:"messages" json:"messages"`
}

type Message struct {
	User     string `bson:"user" json:"user"`
	UserInfo string `bson:"user_info" json:"user_info"`
	Text     string `bson:"text" json:"text"`
}

// maxTextLen is exclusive: a message must be shorter than this.
const maxTextLen = 800

var (
	ErrEmptyMessage   = errors.New("chat: empty message")
	ErrMessageTooLong = errors.New("chat: message too long")
)
