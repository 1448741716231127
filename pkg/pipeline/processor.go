package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/summarize"
	"github.com/Nephrolytics-ai/chartscribe/pkg/transcribe"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

const defaultAudioName = "audio"

// Ingester fetches audio bytes from a reference URL.
type Ingester interface {
	Fetch(ctx context.Context, audioURL, logicalName string) (*model.AudioArtifact, error)
}

// Request identifies one processing invocation. AudioURL and UserID are
// required; AudioName defaults to "audio".
type Request struct {
	AudioURL    string `json:"audioUrl"`
	PatientName string `json:"patientName,omitempty"`
	UserID      string `json:"userId"`
	AudioName   string `json:"audioName,omitempty"`
}

// Processor composes ingest, transcription, and summarization into one atomic
// unit: either both transcript and summary are produced, or neither is.
type Processor struct {
	ingester    Ingester
	transcriber transcribe.Transcriber
	summarizer  summarize.Summarizer
	now         func() time.Time
}

func NewProcessor(ingester Ingester, transcriber transcribe.Transcriber, summarizer summarize.Summarizer) *Processor {
	return &Processor{
		ingester:    ingester,
		transcriber: transcriber,
		summarizer:  summarizer,
		now:         time.Now,
	}
}

// Process runs ingest → transcribe → summarize in strict sequence. A failed
// transcription means summarization is never invoked; a failed summarization
// discards the transcript. No partial result is ever returned.
func (p *Processor) Process(ctx context.Context, req Request) (model.ProcessingResult, error) {
	if strings.TrimSpace(req.AudioURL) == "" {
		return model.ProcessingResult{}, utils.WrapIfNotNil(
			fmt.Errorf("%w: audio URL is required", model.ErrFetchFailed),
		)
	}

	audioName := strings.TrimSpace(req.AudioName)
	if audioName == "" {
		audioName = defaultAudioName
	}

	log := logging.NewLogger(ctx)
	log.Infof("process_start user=%q audio=%q", req.UserID, req.AudioURL)

	artifact, err := p.ingester.Fetch(ctx, req.AudioURL, audioName)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.ProcessingResult{}, err
	}

	transcript, err := p.transcriber.Transcribe(ctx, artifact)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.ProcessingResult{}, err
	}

	summary, err := p.summarizer.Summarize(ctx, transcript, req.PatientName, p.now().Format("1/2/2006"))
	if err != nil {
		log.Errorf("error: %v", err)
		return model.ProcessingResult{}, err
	}

	log.Infof("process_done user=%q transcript_len=%d summary_len=%d", req.UserID, len(transcript), len(summary))
	return model.ProcessingResult{Transcript: transcript, Summary: summary}, nil
}
