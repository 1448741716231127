package store

import (
	"context"
	"errors"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
)

// ErrNotFound is returned when an id does not resolve to a record.
var ErrNotFound = errors.New("record not found")

// RecordPatch is a partial-merge update: nil fields are left untouched, the
// way a document-store merge write behaves.
type RecordPatch struct {
	Name        *string
	Title       *string
	Description *string
	PatientAge  *string
	VisitDate   *string
	Summary     *string
	Transcript  *string
	AudioURL    *string
	UpdatedAt   time.Time
}

// String returns a pointer patch field for a plain value.
func String(v string) *string {
	return &v
}

// RecordStore is the persistence boundary for patient records. Create assigns
// and returns a durable id; Update merges by id; reads reflect the most
// recent successful write.
type RecordStore interface {
	Create(ctx context.Context, rec *model.PatientRecord) (string, error)
	Get(ctx context.Context, id string) (*model.PatientRecord, error)
	List(ctx context.Context) ([]model.PatientRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.PatientRecord, error)
	Update(ctx context.Context, id string, patch RecordPatch) error
	Delete(ctx context.Context, id string) error
}
