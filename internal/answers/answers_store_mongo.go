package answers

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// txnMaxAttempts bounds how often a conflicting transaction is re-run
// before the conflict surfaces as ErrStorageUnavailable.
const txnMaxAttempts = 3

// MongoStore implements QuestionStore on a MongoDB collection. All
// filters key on the question text; update documents mirror the array
// operators the engine's semantics are defined in terms of.
type MongoStore struct {
	client    *mongo.Client
	questions *mongo.Collection
}

func NewMongoStore(client *mongo.Client, questions *mongo.Collection) *MongoStore {
	return &MongoStore{
		client:    client,
		questions: questions,
	}
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", ErrStorageUnavailable, err)
	}
	defer session.EndSession(ctx)

	var last error
	for attempt := 0; attempt < txnMaxAttempts; attempt++ {
		err := mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
			if err := session.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = session.AbortTransaction(sc)
				return err
			}
			return session.CommitTransaction(sc)
		})
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		last = fmt.Errorf("%w: %v", ErrTransactionConflict, err)
	}
	return fmt.Errorf("%w: retries exhausted: %v", ErrStorageUnavailable, last)
}

// isTransient reports whether the driver flagged the error as safe to
// retry as a whole transaction. A duplicate key on the question index
// means a concurrent transaction created the record first; the re-run
// will find it and take the update path instead.
func isTransient(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorLabel("TransientTransactionError")
	}
	return errors.Is(err, ErrTransactionConflict)
}

// EnsureIndexes creates the unique index backing the one-record-per-
// question invariant.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.questions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "question", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create question index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindQuestion(ctx context.Context, question string) (*Question, error) {
	return s.findOne(ctx, bson.M{"question": question})
}

func (s *MongoStore) FindQuestionWithAnswer(ctx context.Context, question, value string) (*Question, error) {
	return s.findOne(ctx, bson.M{"question": question, "answers.answer": value})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Question, error) {
	var q Question
	err := s.questions.FindOne(ctx, filter).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &q, nil
}

func (s *MongoStore) InsertQuestion(ctx context.Context, q *Question) error {
	if _, err := s.questions.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *MongoStore) AddViewer(ctx context.Context, question, user string) (*Question, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"question": question},
		bson.M{"$addToSet": bson.M{"viewers": user}},
	)
}

func (s *MongoStore) PullVoterEverywhere(ctx context.Context, question, user string) error {
	// $[] hits every bucket; a single-answer question holds the user in
	// at most one, but the removal must not depend on that.
	_, err := s.questions.UpdateMany(ctx,
		bson.M{"question": question},
		bson.M{"$pull": bson.M{"answers.$[].users": user}},
	)
	if err != nil {
		return fmt.Errorf("pull voter: %w", err)
	}
	return nil
}

func (s *MongoStore) PullVoterFromBucket(ctx context.Context, question, value, user string) (*Question, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"question": question, "answers.answer": value},
		bson.M{"$pull": bson.M{"answers.$.users": user}},
	)
}

func (s *MongoStore) PushBucket(ctx context.Context, question, value, user string) (*Question, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"question": question},
		bson.M{"$push": bson.M{"answers": bson.M{"answer": value, "users": bson.A{user}}}},
	)
}

func (s *MongoStore) PushVoter(ctx context.Context, question, value, user string) (*Question, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"question": question, "answers.answer": value},
		bson.M{"$addToSet": bson.M{"answers.$.users": user}},
	)
}

func (s *MongoStore) PruneEmptyBuckets(ctx context.Context, question string) error {
	_, err := s.questions.UpdateMany(ctx,
		bson.M{"question": question},
		bson.M{"$pull": bson.M{"answers": bson.M{"users": bson.M{"$size": 0}}}},
	)
	if err != nil {
		return fmt.Errorf("prune empty buckets: %w", err)
	}
	return nil
}

func (s *MongoStore) HasVoted(ctx context.Context, question, value, user string) (bool, error) {
	// $elemMatch pins both conditions to the same bucket; matching them
	// independently would report a vote on A because of a vote on B.
	q, err := s.findOne(ctx, bson.M{
		"question": question,
		"answers":  bson.M{"$elemMatch": bson.M{"answer": value, "users": user}},
	})
	return q != nil, err
}

func (s *MongoStore) HasVotedAnything(ctx context.Context, question, user string) (bool, error) {
	q, err := s.findOne(ctx, bson.M{"question": question, "answers.users": user})
	return q != nil, err
}

func (s *MongoStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*Question, error) {
	var q Question
	err := s.questions.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &q, nil
}
