package save

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/pipeline"
	"github.com/Nephrolytics-ai/chartscribe/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecordStore struct {
	created   []model.PatientRecord
	updates   map[string]store.RecordPatch
	createErr error
	updateErr error
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{updates: map[string]store.RecordPatch{}}
}

func (f *fakeRecordStore) Create(ctx context.Context, rec *model.PatientRecord) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	rec.ID = "rec-1"
	f.created = append(f.created, *rec)
	return rec.ID, nil
}

func (f *fakeRecordStore) Get(ctx context.Context, id string) (*model.PatientRecord, error) {
	return nil, store.ErrNotFound
}

func (f *fakeRecordStore) List(ctx context.Context) ([]model.PatientRecord, error) {
	return nil, nil
}

func (f *fakeRecordStore) ListByUser(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	return nil, nil
}

func (f *fakeRecordStore) Update(ctx context.Context, id string, patch store.RecordPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[id] = patch
	return nil
}

func (f *fakeRecordStore) Delete(ctx context.Context, id string) error {
	return nil
}

type fakeBlobStorage struct {
	puts     int
	lastPath string
	err      error
}

func (f *fakeBlobStorage) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.puts++
	f.lastPath = path
	if f.err != nil {
		return "", f.err
	}
	return "https://blobs.example.com/" + path, nil
}

type fakeProcessor struct {
	result model.ProcessingResult
	err    error

	calls   int
	lastReq pipeline.Request
	block   chan struct{} // when set, Process waits until closed
	started chan struct{} // when set, closed once Process is entered
}

func (f *fakeProcessor) Process(ctx context.Context, req pipeline.Request) (model.ProcessingResult, error) {
	f.calls++
	f.lastReq = req
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func newTestCoordinator(records *fakeRecordStore, blobs *fakeBlobStorage, processor *fakeProcessor) *Coordinator {
	c := NewCoordinator(records, blobs, processor)
	c.now = func() time.Time {
		return time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)
	}
	return c
}

func TestSaveNewRecordWithAudioProcessesOnce(t *testing.T) {
	records := newFakeRecordStore()
	blobs := &fakeBlobStorage{}
	processor := &fakeProcessor{result: model.ProcessingResult{Transcript: "t", Summary: "s"}}
	c := newTestCoordinator(records, blobs, processor)

	rec, err := c.Save(context.Background(), Request{
		Ref:    model.NewRecord(),
		Audio:  &model.AudioArtifact{Data: []byte("wav"), MIMEType: "audio/wav", FileName: "recording.wav"},
		Form:   model.VisitForm{Name: "Jordan Lee", Title: "Follow-up"},
		UserID: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, blobs.puts)
	assert.Equal(t, 1, processor.calls)
	assert.Equal(t, "Jordan Lee", processor.lastReq.PatientName)
	assert.Equal(t, "u1", processor.lastReq.UserID)

	require.Len(t, records.created, 1)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "t", rec.Transcript)
	assert.Equal(t, "s", rec.Summary)
	assert.Equal(t, "https://blobs.example.com/"+blobs.lastPath, rec.AudioURL)
	assert.Equal(t, "u1", rec.UserID)
	assert.False(t, c.InFlight())
}

func TestSaveNewRecordWithoutAudioSkipsProcessing(t *testing.T) {
	records := newFakeRecordStore()
	processor := &fakeProcessor{}
	c := newTestCoordinator(records, &fakeBlobStorage{}, processor)

	rec, err := c.Save(context.Background(), Request{
		Ref:    model.NewRecord(),
		Form:   model.VisitForm{Name: "Jordan Lee", Title: "Phone note"},
		UserID: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, processor.calls)
	assert.Empty(t, rec.Transcript)
	assert.Empty(t, rec.Summary)
	assert.Empty(t, rec.AudioURL)
	require.Len(t, records.created, 1)
}

func TestSaveEditNeverReprocessesEvenWithNewAudio(t *testing.T) {
	records := newFakeRecordStore()
	blobs := &fakeBlobStorage{}
	processor := &fakeProcessor{}
	c := newTestCoordinator(records, blobs, processor)

	prior := &model.PatientRecord{
		ID:         "rec-9",
		Transcript: "X",
		Summary:    "Y",
		AudioURL:   "https://blobs.example.com/audio/u1/old.wav",
		UserID:     "u1",
	}

	rec, err := c.Save(context.Background(), Request{
		Ref:    model.ExistingRecord("rec-9"),
		Prior:  prior,
		Audio:  &model.AudioArtifact{Data: []byte("new"), MIMEType: "audio/wav", FileName: "recording.wav"},
		Form:   model.VisitForm{Name: "Jordan Lee"},
		UserID: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, processor.calls)
	assert.Equal(t, 1, blobs.puts)
	assert.Equal(t, "X", rec.Transcript)
	assert.Equal(t, "Y", rec.Summary)
	assert.Equal(t, "https://blobs.example.com/"+blobs.lastPath, rec.AudioURL)

	patch, ok := records.updates["rec-9"]
	require.True(t, ok)
	require.NotNil(t, patch.Transcript)
	assert.Equal(t, "X", *patch.Transcript)
	require.NotNil(t, patch.Summary)
	assert.Equal(t, "Y", *patch.Summary)
}

func TestSaveEditRetainsPriorAudioURL(t *testing.T) {
	records := newFakeRecordStore()
	blobs := &fakeBlobStorage{}
	c := newTestCoordinator(records, blobs, &fakeProcessor{})

	prior := &model.PatientRecord{ID: "rec-9", AudioURL: "https://blobs.example.com/audio/u1/old.wav"}
	rec, err := c.Save(context.Background(), Request{
		Ref:    model.ExistingRecord("rec-9"),
		Prior:  prior,
		UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, blobs.puts)
	assert.Equal(t, prior.AudioURL, rec.AudioURL)
}

func TestSaveEditedSummaryWinsOverStored(t *testing.T) {
	records := newFakeRecordStore()
	c := newTestCoordinator(records, &fakeBlobStorage{}, &fakeProcessor{})

	prior := &model.PatientRecord{ID: "rec-9", Transcript: "X", Summary: "Y"}
	rec, err := c.Save(context.Background(), Request{
		Ref:    model.ExistingRecord("rec-9"),
		Prior:  prior,
		Form:   model.VisitForm{Summary: "corrected chart"},
		UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "corrected chart", rec.Summary)
	assert.Equal(t, "X", rec.Transcript)
}

func TestSaveEditRequiresPriorRecord(t *testing.T) {
	c := newTestCoordinator(newFakeRecordStore(), &fakeBlobStorage{}, &fakeProcessor{})

	_, err := c.Save(context.Background(), Request{
		Ref:    model.ExistingRecord("rec-9"),
		UserID: "u1",
	})
	require.Error(t, err)
	assert.False(t, c.InFlight())
}

func TestSaveIsSingleFlight(t *testing.T) {
	records := newFakeRecordStore()
	processor := &fakeProcessor{
		result:  model.ProcessingResult{Transcript: "t", Summary: "s"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := newTestCoordinator(records, &fakeBlobStorage{}, processor)

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(context.Background(), Request{
			Ref:    model.NewRecord(),
			Audio:  &model.AudioArtifact{Data: []byte("wav"), FileName: "recording.wav"},
			UserID: "u1",
		})
		done <- err
	}()

	<-processor.started
	assert.True(t, c.InFlight())

	_, err := c.Save(context.Background(), Request{Ref: model.NewRecord(), UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrSaveInFlight)

	close(processor.block)
	require.NoError(t, <-done)
	assert.False(t, c.InFlight())

	// The flag clears after completion, so a retry goes through.
	_, err = c.Save(context.Background(), Request{Ref: model.NewRecord(), UserID: "u1"})
	assert.NoError(t, err)
}

func TestSaveProcessingFailureWritesNothing(t *testing.T) {
	records := newFakeRecordStore()
	processor := &fakeProcessor{err: model.ErrTranscriptionFailed}
	c := newTestCoordinator(records, &fakeBlobStorage{}, processor)

	_, err := c.Save(context.Background(), Request{
		Ref:    model.NewRecord(),
		Audio:  &model.AudioArtifact{Data: []byte("wav"), FileName: "recording.wav"},
		UserID: "u1",
	})
	assert.ErrorIs(t, err, model.ErrTranscriptionFailed)
	assert.Empty(t, records.created)
	assert.False(t, c.InFlight())
}

func TestSaveUploadFailureAbortsBeforeProcessing(t *testing.T) {
	records := newFakeRecordStore()
	blobs := &fakeBlobStorage{err: errors.New("bucket unreachable")}
	processor := &fakeProcessor{}
	c := newTestCoordinator(records, blobs, processor)

	_, err := c.Save(context.Background(), Request{
		Ref:    model.NewRecord(),
		Audio:  &model.AudioArtifact{Data: []byte("wav"), FileName: "recording.wav"},
		UserID: "u1",
	})
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	assert.Equal(t, 0, processor.calls)
	assert.Empty(t, records.created)
	assert.False(t, c.InFlight())
}

func TestSavePersistenceFailureSurfaces(t *testing.T) {
	records := newFakeRecordStore()
	records.createErr = errors.New("disk full")
	c := newTestCoordinator(records, &fakeBlobStorage{}, &fakeProcessor{result: model.ProcessingResult{Transcript: "t", Summary: "s"}})

	_, err := c.Save(context.Background(), Request{
		Ref:    model.NewRecord(),
		Audio:  &model.AudioArtifact{Data: []byte("wav"), FileName: "recording.wav"},
		UserID: "u1",
	})
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	assert.False(t, c.InFlight())
}
