package summarize

import (
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

const defaultOpenAISummaryModel = "gpt-4"

type openAISummarizer struct {
	apiClient    openai.Client
	modelName    string
	systemPrompt string
}

func newOpenAISummarizer(opts Options) *openAISummarizer {
	requestOpts := make([]option.RequestOption, 0, 2)
	if opts.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.URL))
	}
	if opts.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(opts.AuthToken))
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultOpenAISummaryModel
	}

	return &openAISummarizer{
		apiClient:    openai.NewClient(requestOpts...),
		modelName:    modelName,
		systemPrompt: resolveSystemPrompt(opts),
	}
}

func (s *openAISummarizer) Summarize(ctx context.Context, transcript, patientName, visitDate string) (string, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)
	log.Infof("summary_request provider=openai model=%q transcript_len=%d", s.modelName, len(transcript))

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt),
			openai.UserMessage(buildUserMessage(transcript, patientName, visitDate)),
		},
		MaxTokens:   openai.Int(defaultMaxOutputTokens),
		Temperature: openai.Float(defaultTemperature),
	}

	response, err := s.apiClient.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrSummarizationFailed, err))
	}
	if response == nil || len(response.Choices) == 0 {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: empty completion response", model.ErrSummarizationFailed))
	}

	summary := strings.TrimSpace(response.Choices[0].Message.Content)
	if summary == "" {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: completion content is empty", model.ErrSummarizationFailed))
	}

	log.Infof("summary_done latency_ms=%d", time.Since(start).Milliseconds())
	return summary, nil
}
