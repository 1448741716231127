package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
	"google.golang.org/genai"
)

const (
	defaultGeminiTranscriptionModel = "gemini-2.5-flash"
	envGeminiAPIKey                 = "GEMINI_KEY"

	geminiTranscriptionPrompt = "Transcribe the attached audio recording verbatim. " +
		"Return only the spoken words as plain text, with no commentary."
)

type geminiTranscriber struct {
	opts Options
}

func newGeminiTranscriber(opts Options) *geminiTranscriber {
	return &geminiTranscriber{opts: opts}
}

func (t *geminiTranscriber) Transcribe(ctx context.Context, artifact *model.AudioArtifact) (string, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: audio payload is empty", model.ErrTranscriptionFailed))
	}

	start := time.Now()
	modelName := strings.TrimSpace(t.opts.Model)
	if modelName == "" {
		modelName = defaultGeminiTranscriptionModel
	}

	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request provider=gemini model=%q file=%q", modelName, artifact.FileName)

	client, err := t.newAPIClient(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrTranscriptionFailed, err))
	}

	mimeType := strings.TrimSpace(artifact.MIMEType)
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(geminiTranscriptionPrompt),
				genai.NewPartFromBytes(artifact.Data, mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrTranscriptionFailed, err))
	}

	transcript := strings.TrimSpace(response.Text())
	if transcript == "" {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: transcription response is empty", model.ErrTranscriptionFailed))
	}

	log.Infof("audio_transcription_done latency_ms=%d", time.Since(start).Milliseconds())
	return transcript, nil
}

func (t *geminiTranscriber) newAPIClient(ctx context.Context) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	token := strings.TrimSpace(t.opts.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(envGeminiAPIKey))
	}
	if token != "" {
		clientCfg.APIKey = token
	}

	if baseURL := strings.TrimSpace(t.opts.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	return genai.NewClient(ctx, clientCfg)
}
