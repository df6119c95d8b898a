package store

import (
	"context"
	"errors"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/transcript"
)

var (
	// ErrNotFound is returned when no interview matches a call_id.
	ErrNotFound = errors.New("interview not found")
	// ErrDuplicateCallID is returned by InsertInterview when the call_id
	// uniqueness constraint rejects the row.
	ErrDuplicateCallID = errors.New("interview with this call_id already exists")
)

// Interview is one stored call.
type Interview struct {
	ID              string                 `json:"id"`
	CallID          string                 `json:"call_id"`
	ParticipantID   *string                `json:"participant_id,omitempty"`
	Transcript      []transcript.Utterance `json:"transcript"`
	DurationSeconds int                    `json:"duration_seconds"`
	Completed       bool                   `json:"completed"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// InterviewUpdate holds the fields rewritten on every later delivery for a
// call. A nil Transcript leaves the stored transcript untouched.
type InterviewUpdate struct {
	DurationSeconds int
	Completed       bool
	Transcript      []transcript.Utterance
}

// DataStore is the interface consumed by the webhook handler, the API and the
// CLI. Implementations: *Store (pgx) and *SQLiteStore.
type DataStore interface {
	FindByCallID(ctx context.Context, callID string) (*Interview, error)
	InsertInterview(ctx context.Context, iv *Interview) error
	UpdateInterview(ctx context.Context, callID string, u InterviewUpdate) error
	ListInterviews(ctx context.Context, limit int) ([]Interview, error)
	Migrate(ctx context.Context) error
	Close()
}
