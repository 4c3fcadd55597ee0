package answers

import "errors"

/** --------------------ENTITIES-------------------- */

// Question is the shared per-question record mutated by concurrent
// submissions. It is keyed by its text; ID is an opaque attribute
// assigned once at creation.
type Question struct {
	ID      string         `bson:"id" json:"id"`
	Text    string         `bson:"question" json:"question"`
	Answers []AnswerBucket `bson:"answers" json:"answers"`
	Viewers []string       `bson:"viewers" json:"viewers"`
}

// AnswerBucket holds one answer value and the users who chose it.
// A bucket never persists with an empty voter set.
type AnswerBucket struct {
	Value  string   `bson:"answer" json:"answer"`
	Voters []string `bson:"users" json:"users"`
}

// Bucket returns the bucket for value, or nil if no user has chosen it.
func (q *Question) Bucket(value string) *AnswerBucket {
	for i := range q.Answers {
		if q.Answers[i].Value == value {
			return &q.Answers[i]
		}
	}
	return nil
}

// QuestionType is the closed set of recognized question type tags.
type QuestionType string

const (
	TypeShortAnswer QuestionType = "shortanswer"
	TypeNumerical   QuestionType = "numerical"
	TypeMultiChoice QuestionType = "multichoice"
	TypeTrueFalse   QuestionType = "truefalse"
	TypeCheckbox    QuestionType = "multichoice_checkbox"
)

func (t QuestionType) String() string {
	return string(t)
}

// IsValid checks if the QuestionType is a recognized tag.
func (t QuestionType) IsValid() bool {
	switch t {
	case TypeShortAnswer, TypeNumerical, TypeMultiChoice, TypeTrueFalse, TypeCheckbox:
		return true
	default:
		return false
	}
}

// IsSingle reports whether a user holds at most one answer for this type.
// Checkbox questions are the only type where options toggle independently.
func (t QuestionType) IsSingle() bool {
	return t.IsValid() && t != TypeCheckbox
}

/** --------------------ERRORS-------------------- */

var (
	// ErrInvalidQuestionType is returned before any storage access when
	// the caller passes a tag outside the recognized set.
	ErrInvalidQuestionType = errors.New("answers: invalid question type")

	// ErrStorageUnavailable is returned when the storage layer cannot be
	// reached or a transaction could not commit within the retry bound.
	ErrStorageUnavailable = errors.New("answers: storage unavailable")

	// ErrTransactionConflict signals an optimistic-concurrency conflict.
	// It is retried inside WithTransaction and only ever surfaces wrapped
	// in ErrStorageUnavailable once retries are exhausted.
	ErrTransactionConflict = errors.New("answers: transaction conflict")
)
