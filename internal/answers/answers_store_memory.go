package answers

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory QuestionStore used by tests and local
// development. Transactions serialize on a single mutex, which gives the
// same observable semantics as the storage layer's conflict-retry model:
// each transaction sees a consistent snapshot and commits atomically.
type MemoryStore struct {
	txnMu sync.Mutex // serializes whole transactions
	mu    sync.Mutex // guards the map for individual operations
	data  map[string]*Question
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Question),
	}
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	return fn(ctx)
}

func (s *MemoryStore) FindQuestion(_ context.Context, question string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[question].clone(), nil
}

func (s *MemoryStore) FindQuestionWithAnswer(_ context.Context, question, value string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil || q.Bucket(value) == nil {
		return nil, nil
	}
	return q.clone(), nil
}

func (s *MemoryStore) InsertQuestion(_ context.Context, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[q.Text] = q.clone()
	return nil
}

func (s *MemoryStore) AddViewer(_ context.Context, question, user string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil, nil
	}
	if !contains(q.Viewers, user) {
		q.Viewers = append(q.Viewers, user)
	}
	return q.clone(), nil
}

func (s *MemoryStore) PullVoterEverywhere(_ context.Context, question, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil
	}
	for i := range q.Answers {
		q.Answers[i].Voters = remove(q.Answers[i].Voters, user)
	}
	return nil
}

func (s *MemoryStore) PullVoterFromBucket(_ context.Context, question, value, user string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil, nil
	}
	b := q.Bucket(value)
	if b == nil {
		return nil, nil
	}
	b.Voters = remove(b.Voters, user)
	return q.clone(), nil
}

func (s *MemoryStore) PushBucket(_ context.Context, question, value, user string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil, nil
	}
	q.Answers = append(q.Answers, AnswerBucket{Value: value, Voters: []string{user}})
	return q.clone(), nil
}

func (s *MemoryStore) PushVoter(_ context.Context, question, value, user string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil, nil
	}
	b := q.Bucket(value)
	if b == nil {
		return nil, nil
	}
	if !contains(b.Voters, user) {
		b.Voters = append(b.Voters, user)
	}
	return q.clone(), nil
}

func (s *MemoryStore) PruneEmptyBuckets(_ context.Context, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return nil
	}
	kept := q.Answers[:0]
	for _, b := range q.Answers {
		if len(b.Voters) > 0 {
			kept = append(kept, b)
		}
	}
	q.Answers = kept
	return nil
}

func (s *MemoryStore) HasVoted(_ context.Context, question, value, user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return false, nil
	}
	b := q.Bucket(value)
	return b != nil && contains(b.Voters, user), nil
}

func (s *MemoryStore) HasVotedAnything(_ context.Context, question, user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.data[question]
	if q == nil {
		return false, nil
	}
	for _, b := range q.Answers {
		if contains(b.Voters, user) {
			return true, nil
		}
	}
	return false, nil
}

func (q *Question) clone() *Question {
	if q == nil {
		return nil
	}
	out := &Question{
		ID:      q.ID,
		Text:    q.Text,
		Answers: make([]AnswerBucket, len(q.Answers)),
		Viewers: append([]string{}, q.Viewers...),
	}
	for i, b := range q.Answers {
		out.Answers[i] = AnswerBucket{Value: b.Value, Voters: append([]string{}, b.Voters...)}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
