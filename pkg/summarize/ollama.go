package summarize

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

const (
	defaultOllamaSummaryModel = "llama3.1"
	defaultOllamaBaseURL      = "http://localhost:11434"
	envOllamaBaseURL          = "OLLAMA_BASE_URL"
)

// ollamaSummarizer is the local development backend. The output-length cap is
// advisory only; ollama chat has no max-token parameter in this SDK.
type ollamaSummarizer struct {
	apiClient    *ollamasdk.OllamaClient
	modelName    string
	systemPrompt string
}

func newOllamaSummarizer(opts Options) *ollamaSummarizer {
	baseURL := strings.TrimSpace(opts.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(envOllamaBaseURL))
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultOllamaSummaryModel
	}

	return &ollamaSummarizer{
		apiClient:    ollamasdk.NewClient(baseURL),
		modelName:    modelName,
		systemPrompt: resolveSystemPrompt(opts),
	}
}

func (s *ollamaSummarizer) Summarize(ctx context.Context, transcript, patientName, visitDate string) (string, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)
	log.Infof("summary_request provider=ollama model=%q transcript_len=%d", s.modelName, len(transcript))

	messages := []ollamasdk.ChatMessage{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: buildUserMessage(transcript, patientName, visitDate)},
	}

	text, err := s.apiClient.Chat(s.modelName, messages)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrSummarizationFailed, err))
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: chat response is empty", model.ErrSummarizationFailed))
	}

	log.Infof("summary_done latency_ms=%d", time.Since(start).Milliseconds())
	return summary, nil
}
