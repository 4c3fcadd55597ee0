package chat

import "context"

// Service guards the room chat log. Escaping of user-supplied text is the
// transport layer's job; the service only enforces the length bound.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Append(ctx context.Context, room string, msg Message) error {
	if len(msg.Text) == 0 {
		return ErrEmptyMessage
	}
	if len(msg.Text) >= maxTextLen {
		return ErrMessageTooLong
	}
	return s.repo.AppendMessage(ctx, room, msg)
}

// History returns the room's messages in append order; an unknown room
// yields an empty slice.
func (s *Service) History(ctx context.Context, room string) ([]Message, error) {
	log, err := s.repo.FindLog(ctx, room)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return []Message{}, nil
	}
	return log.Messages, nil
}
