package answers

import "context"

// QuestionStore is the storage dependency of the engine. Every method is
// transaction-scoped: when called with the context handed to a
// WithTransaction callback, the operation joins that transaction.
//
// Mutating methods that return *Question return the post-update record
// (or nil when the filter matched nothing), mirroring a
// findOneAndUpdate with ReturnDocument.AFTER.
type QuestionStore interface {
	// WithTransaction runs fn as one atomic unit, retrying it as a whole
	// on transient conflicts up to a bounded number of attempts. fn must
	// be safe to re-run from the top.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// FindQuestion returns the record for the question text, or nil when
	// no record exists.
	FindQuestion(ctx context.Context, question string) (*Question, error)

	// FindQuestionWithAnswer returns the record only if it holds a bucket
	// for value, nil otherwise.
	FindQuestionWithAnswer(ctx context.Context, question, value string) (*Question, error)

	// InsertQuestion creates a new record.
	InsertQuestion(ctx context.Context, q *Question) error

	// AddViewer appends user to the viewers set.
	AddViewer(ctx context.Context, question, user string) (*Question, error)

	// PullVoterEverywhere removes user from the voter set of whichever
	// bucket currently holds them.
	PullVoterEverywhere(ctx context.Context, question, user string) error

	// PullVoterFromBucket removes user from the voter set of the bucket
	// for value. Returns nil when no such bucket exists.
	PullVoterFromBucket(ctx context.Context, question, value, user string) (*Question, error)

	// PushBucket appends a new bucket {value, [user]}.
	PushBucket(ctx context.Context, question, value, user string) (*Question, error)

	// PushVoter adds user to the voter set of the bucket for value.
	PushVoter(ctx context.Context, question, value, user string) (*Question, error)

	// PruneEmptyBuckets removes every bucket whose voter set is empty.
	PruneEmptyBuckets(ctx context.Context, question string) error

	// HasVoted reports whether user is a voter on the bucket for value.
	HasVoted(ctx context.Context, question, value, user string) (bool, error)

	// HasVotedAnything reports whether user is a voter on any bucket of
	// the question.
	HasVotedAnything(ctx context.Context, question, user string) (bool, error)
}
