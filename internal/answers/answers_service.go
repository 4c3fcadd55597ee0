package answers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service is the answer-aggregation engine. Every mutating operation runs
// as one storage transaction spanning all of its read and write steps, so
// a retry re-runs the operation as a whole and concurrent submissions on
// the same question serialize at the transaction boundary.
type Service struct {
	store QuestionStore
}

func NewService(store QuestionStore) *Service {
	return &Service{store: store}
}

// Submission is one decoded answer action. Selected carries the checkbox
// toggle state and is ignored for single-answer types.
type Submission struct {
	Value    string
	Selected bool
}

// RecordAnswer maps the question type tag onto single-answer or checkbox
// behavior. Unknown tags are rejected before any storage access.
func (s *Service) RecordAnswer(ctx context.Context, question string, qt QuestionType, sub Submission, user string) (*Question, error) {
	switch {
	case qt.IsSingle():
		return s.RecordSingleAnswer(ctx, question, sub.Value, user, qt)
	case qt == TypeCheckbox:
		return s.RecordCheckboxAnswer(ctx, question, sub.Value, sub.Selected, user)
	default:
		return nil, ErrInvalidQuestionType
	}
}

// RecordView adds user to the question's viewer set, creating the record
// if this is the first time the question is seen.
func (s *Service) RecordView(ctx context.Context, question, user string) (*Question, error) {
	var result *Question
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		result = nil

		q, err := s.store.FindQuestion(ctx, question)
		if err != nil {
			return err
		}
		if q == nil {
			q = newQuestion(question)
			q.Viewers = []string{user}
			if err := s.store.InsertQuestion(ctx, q); err != nil {
				return err
			}
			result = q
			return nil
		}
		if contains(q.Viewers, user) {
			result = q
			return nil
		}
		result, err = s.store.AddViewer(ctx, question, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("recorded view", "question", question, "viewers", len(result.Viewers))
	return result, nil
}

// RecordSingleAnswer records user's answer for a question type where each
// user holds at most one value. The user's prior choice is retracted
// before the new one is written, inside the same transaction, so the user
// can never end up in two buckets.
func (s *Service) RecordSingleAnswer(ctx context.Context, question, answer, user string, qt QuestionType) (*Question, error) {
	if !qt.IsSingle() {
		return nil, ErrInvalidQuestionType
	}

	var result *Question
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		result = nil

		q, err := s.store.FindQuestion(ctx, question)
		if err != nil {
			return err
		}
		if q == nil {
			if err := s.store.InsertQuestion(ctx, newQuestion(question)); err != nil {
				return err
			}
		}

		if err := s.store.PullVoterEverywhere(ctx, question, user); err != nil {
			return err
		}
		if err := s.store.PruneEmptyBuckets(ctx, question); err != nil {
			return err
		}

		withBucket, err := s.store.FindQuestionWithAnswer(ctx, question, answer)
		if err != nil {
			return err
		}
		if withBucket == nil {
			result, err = s.store.PushBucket(ctx, question, answer, user)
		} else {
			result, err = s.store.PushVoter(ctx, question, answer, user)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("recorded answer", "question", question, "type", qt.String())
	return result, nil
}

// RecordCheckboxAnswer toggles one option for user on a checkbox
// question. Options toggle independently: a toggle never touches any
// bucket other than the one for optionValue.
//
// A toggle-off on a question that has no record returns (nil, nil); only
// a view or a constructive answer creates the record.
func (s *Service) RecordCheckboxAnswer(ctx context.Context, question, optionValue string, selected bool, user string) (*Question, error) {
	var result *Question
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		result = nil

		if !selected {
			if _, err := s.store.PullVoterFromBucket(ctx, question, optionValue, user); err != nil {
				return err
			}
			if err := s.store.PruneEmptyBuckets(ctx, question); err != nil {
				return err
			}
			// Re-read after the prune so the returned record never shows
			// the emptied bucket.
			var err error
			result, err = s.store.FindQuestion(ctx, question)
			return err
		}

		q, err := s.store.FindQuestion(ctx, question)
		if err != nil {
			return err
		}
		if q == nil {
			q = newQuestion(question)
			if err := s.store.InsertQuestion(ctx, q); err != nil {
				return err
			}
		}

		voted, err := s.store.HasVoted(ctx, question, optionValue, user)
		if err != nil {
			return err
		}
		if voted {
			result = q
			return nil
		}

		withBucket, err := s.store.FindQuestionWithAnswer(ctx, question, optionValue)
		if err != nil {
			return err
		}
		if withBucket == nil {
			result, err = s.store.PushBucket(ctx, question, optionValue, user)
		} else {
			result, err = s.store.PushVoter(ctx, question, optionValue, user)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HasVoted reports whether user currently holds optionValue on question.
func (s *Service) HasVoted(ctx context.Context, question, optionValue, user string) (bool, error) {
	return s.store.HasVoted(ctx, question, optionValue, user)
}

// HasVotedAnything reports whether user holds any answer on question.
func (s *Service) HasVotedAnything(ctx context.Context, question, user string) (bool, error) {
	return s.store.HasVotedAnything(ctx, question, user)
}

func newQuestion(text string) *Question {
	return &Question{
		ID:      uuid.New().String(),
		Text:    text,
		Answers: []AnswerBucket{},
		Viewers: []string{},
	}
}
