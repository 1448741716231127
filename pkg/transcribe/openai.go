package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAITranscriptionModel = "whisper-1"

type openAITranscriber struct {
	apiClient openai.Client
	modelName string
}

func newOpenAITranscriber(opts Options) *openAITranscriber {
	requestOpts := make([]option.RequestOption, 0, 2)
	if opts.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.URL))
	}
	if opts.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(opts.AuthToken))
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultOpenAITranscriptionModel
	}

	return &openAITranscriber{
		apiClient: openai.NewClient(requestOpts...),
		modelName: modelName,
	}
}

func (t *openAITranscriber) Transcribe(ctx context.Context, artifact *model.AudioArtifact) (string, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: audio payload is empty", model.ErrTranscriptionFailed))
	}

	start := time.Now()
	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request provider=openai model=%q file=%q", t.modelName, artifact.FileName)

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(artifact.Data), artifact.FileName, artifact.MIMEType),
		Model:          openai.AudioModel(t.modelName),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}

	response, err := t.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrTranscriptionFailed, err))
	}
	if response == nil {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: nil transcription response", model.ErrTranscriptionFailed))
	}

	transcript := strings.TrimSpace(response.Text)
	if transcript == "" {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: transcription response is empty", model.ErrTranscriptionFailed))
	}

	log.Infof("audio_transcription_done latency_ms=%d", time.Since(start).Milliseconds())
	return transcript, nil
}
