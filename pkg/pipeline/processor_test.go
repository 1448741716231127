package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	artifact *model.AudioArtifact
	err      error

	calls    int
	lastURL  string
	lastName string
}

func (f *fakeIngester) Fetch(ctx context.Context, audioURL, logicalName string) (*model.AudioArtifact, error) {
	f.calls++
	f.lastURL = audioURL
	f.lastName = logicalName
	return f.artifact, f.err
}

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, artifact *model.AudioArtifact) (string, error) {
	f.calls++
	return f.transcript, f.err
}

type fakeSummarizer struct {
	summary string
	err     error

	calls          int
	lastTranscript string
	lastName       string
	lastDate       string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript, patientName, visitDate string) (string, error) {
	f.calls++
	f.lastTranscript = transcript
	f.lastName = patientName
	f.lastDate = visitDate
	return f.summary, f.err
}

func newTestProcessor(ingester *fakeIngester, transcriber *fakeTranscriber, summarizer *fakeSummarizer) *Processor {
	p := NewProcessor(ingester, transcriber, summarizer)
	p.now = func() time.Time {
		return time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)
	}
	return p
}

func TestProcessRunsStagesInSequence(t *testing.T) {
	ingester := &fakeIngester{artifact: &model.AudioArtifact{Data: []byte("x"), MIMEType: "audio/wav", FileName: "visit.wav"}}
	transcriber := &fakeTranscriber{transcript: "patient reports a cough"}
	summarizer := &fakeSummarizer{summary: "## HPI\n- cough"}
	p := newTestProcessor(ingester, transcriber, summarizer)

	result, err := p.Process(context.Background(), Request{
		AudioURL:    "https://blobs.example.com/audio/u1/1_visit.wav",
		PatientName: "Jordan Lee",
		UserID:      "u1",
		AudioName:   "visit",
	})
	require.NoError(t, err)

	assert.Equal(t, "patient reports a cough", result.Transcript)
	assert.Equal(t, "## HPI\n- cough", result.Summary)
	assert.Equal(t, 1, ingester.calls)
	assert.Equal(t, "visit", ingester.lastName)
	assert.Equal(t, 1, transcriber.calls)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, "patient reports a cough", summarizer.lastTranscript)
	assert.Equal(t, "Jordan Lee", summarizer.lastName)
	assert.Equal(t, "3/9/2026", summarizer.lastDate)
}

func TestProcessDefaultsAudioName(t *testing.T) {
	ingester := &fakeIngester{artifact: &model.AudioArtifact{}}
	p := newTestProcessor(ingester, &fakeTranscriber{transcript: "t"}, &fakeSummarizer{summary: "s"})

	_, err := p.Process(context.Background(), Request{AudioURL: "https://example.com/a", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "audio", ingester.lastName)
}

func TestProcessRequiresAudioURL(t *testing.T) {
	ingester := &fakeIngester{}
	p := newTestProcessor(ingester, &fakeTranscriber{}, &fakeSummarizer{})

	result, err := p.Process(context.Background(), Request{UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrFetchFailed)
	assert.Equal(t, model.ProcessingResult{}, result)
	assert.Equal(t, 0, ingester.calls)
}

func TestProcessFetchFailureStopsPipeline(t *testing.T) {
	ingester := &fakeIngester{err: model.ErrFetchFailed}
	transcriber := &fakeTranscriber{}
	summarizer := &fakeSummarizer{}
	p := newTestProcessor(ingester, transcriber, summarizer)

	result, err := p.Process(context.Background(), Request{AudioURL: "https://example.com/a", UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrFetchFailed)
	assert.Equal(t, model.ProcessingResult{}, result)
	assert.Equal(t, 0, transcriber.calls)
	assert.Equal(t, 0, summarizer.calls)
}

func TestProcessTranscriptionFailureSkipsSummarization(t *testing.T) {
	transcriber := &fakeTranscriber{err: errors.New("upstream rejected audio")}
	summarizer := &fakeSummarizer{}
	p := newTestProcessor(&fakeIngester{artifact: &model.AudioArtifact{}}, transcriber, summarizer)

	result, err := p.Process(context.Background(), Request{AudioURL: "https://example.com/a", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, model.ProcessingResult{}, result)
	assert.Equal(t, 0, summarizer.calls)
}

func TestProcessSummarizationFailureDiscardsTranscript(t *testing.T) {
	summarizer := &fakeSummarizer{err: errors.New("model overloaded")}
	p := newTestProcessor(&fakeIngester{artifact: &model.AudioArtifact{}}, &fakeTranscriber{transcript: "t"}, summarizer)

	result, err := p.Process(context.Background(), Request{AudioURL: "https://example.com/a", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, model.ProcessingResult{}, result)
}
