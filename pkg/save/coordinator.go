package save

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/blob"
	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/pipeline"
	"github.com/Nephrolytics-ai/chartscribe/pkg/store"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

// Name attached to processed uploads when the artifact carries no better one.
const defaultUploadName = "default"

// Processor is the processing boundary the coordinator invokes for brand-new
// records.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (model.ProcessingResult, error)
}

// Request carries everything one save action needs: the identity variant, the
// prior record for edits, the pending audio artifact if one was captured or
// selected, and the metadata form.
type Request struct {
	Ref    model.RecordRef
	Prior  *model.PatientRecord
	Audio  *model.AudioArtifact
	Form   model.VisitForm
	UserID string
}

// Coordinator runs the save protocol: upload audio, conditionally invoke the
// processing pipeline, then create or update the record. It is single-flight:
// a save started while another is running is rejected with
// model.ErrSaveInFlight. Transcription and summarization run only for
// brand-new records; an edit never re-triggers them, even with new audio.
type Coordinator struct {
	records   store.RecordStore
	blobs     blob.Storage
	processor Processor

	mu       sync.Mutex
	inFlight bool

	now func() time.Time
}

func NewCoordinator(records store.RecordStore, blobs blob.Storage, processor Processor) *Coordinator {
	return &Coordinator{
		records:   records,
		blobs:     blobs,
		processor: processor,
		now:       time.Now,
	}
}

// InFlight reports whether a save is currently running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return model.ErrSaveInFlight
	}
	c.inFlight = true
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Save executes one save action and returns the persisted record. Any failed
// step aborts the rest; no partial record write is applied and the in-flight
// flag is always cleared so the user can retry.
func (c *Coordinator) Save(ctx context.Context, req Request) (*model.PatientRecord, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	log := logging.NewLogger(ctx)

	priorID, isEdit := req.Ref.Existing()
	if isEdit && req.Prior == nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("prior record is required when editing %q", priorID))
	}

	audioURL, err := c.resolveAudioURL(ctx, req)
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, err
	}

	transcript, summary, err := c.resolveContent(ctx, req, isEdit, audioURL)
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, err
	}

	if isEdit {
		return c.updateRecord(ctx, priorID, req, audioURL, transcript, summary)
	}
	return c.createRecord(ctx, req, audioURL, transcript, summary)
}

// resolveAudioURL uploads a pending artifact to a per-user, timestamped path,
// or retains the prior record's reference when no new audio was supplied.
func (c *Coordinator) resolveAudioURL(ctx context.Context, req Request) (string, error) {
	audioURL := ""
	if req.Prior != nil {
		audioURL = req.Prior.AudioURL
	}
	if req.Audio == nil {
		return audioURL, nil
	}

	fileName := req.Audio.FileName
	if fileName == "" {
		fileName = defaultUploadName
	}

	path := blob.ObjectPath(req.UserID, fileName, c.now())
	url, err := c.blobs.Put(ctx, path, req.Audio.Data, req.Audio.MIMEType)
	if err != nil {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err))
	}

	logging.NewLogger(ctx).Infof("audio_uploaded user=%q path=%q", req.UserID, path)
	return url, nil
}

// resolveContent decides the transcript/summary pair. New records with audio
// go through the processing pipeline exactly once; edits always reuse the
// stored transcript, and the form's summary text wins over the stored summary
// so manual corrections survive.
func (c *Coordinator) resolveContent(ctx context.Context, req Request, isEdit bool, audioURL string) (string, string, error) {
	if isEdit {
		transcript := req.Prior.Transcript
		summary := req.Prior.Summary
		if edited := strings.TrimSpace(req.Form.Summary); edited != "" {
			summary = req.Form.Summary
		}
		return transcript, summary, nil
	}

	if audioURL == "" {
		return "", "", nil
	}

	result, err := c.processor.Process(ctx, pipeline.Request{
		AudioURL:    audioURL,
		PatientName: req.Form.Name,
		UserID:      req.UserID,
		AudioName:   defaultUploadName,
	})
	if err != nil {
		return "", "", err
	}
	return result.Transcript, result.Summary, nil
}

func (c *Coordinator) createRecord(ctx context.Context, req Request, audioURL, transcript, summary string) (*model.PatientRecord, error) {
	now := c.now().UTC()
	rec := &model.PatientRecord{
		Name:        req.Form.Name,
		Title:       req.Form.Title,
		Description: req.Form.Description,
		PatientAge:  req.Form.PatientAge,
		VisitDate:   req.Form.VisitDate,
		Summary:     summary,
		Transcript:  transcript,
		AudioURL:    audioURL,
		UserID:      req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := c.records.Create(ctx, rec)
	if err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err))
	}

	logging.NewLogger(ctx).Infof("record_created id=%q user=%q", id, req.UserID)
	return rec, nil
}

func (c *Coordinator) updateRecord(ctx context.Context, id string, req Request, audioURL, transcript, summary string) (*model.PatientRecord, error) {
	now := c.now().UTC()
	patch := store.RecordPatch{
		Name:        store.String(req.Form.Name),
		Title:       store.String(req.Form.Title),
		Description: store.String(req.Form.Description),
		PatientAge:  store.String(req.Form.PatientAge),
		VisitDate:   store.String(req.Form.VisitDate),
		Summary:     store.String(summary),
		Transcript:  store.String(transcript),
		AudioURL:    store.String(audioURL),
		UpdatedAt:   now,
	}

	if err := c.records.Update(ctx, id, patch); err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err))
	}

	updated := *req.Prior
	updated.Name = req.Form.Name
	updated.Title = req.Form.Title
	updated.Description = req.Form.Description
	updated.PatientAge = req.Form.PatientAge
	updated.VisitDate = req.Form.VisitDate
	updated.Summary = summary
	updated.Transcript = transcript
	updated.AudioURL = audioURL
	updated.UpdatedAt = now

	logging.NewLogger(ctx).Infof("record_updated id=%q user=%q", id, req.UserID)
	return &updated, nil
}
