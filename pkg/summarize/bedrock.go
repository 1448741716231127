package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/awsconf"
	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const defaultBedrockSummaryModel = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"

type bedrockSummarizer struct {
	modelName    string
	baseURL      string
	systemPrompt string
}

func newBedrockSummarizer(opts Options) *bedrockSummarizer {
	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultBedrockSummaryModel
	}

	return &bedrockSummarizer{
		modelName:    modelName,
		baseURL:      strings.TrimSpace(opts.URL),
		systemPrompt: resolveSystemPrompt(opts),
	}
}

func (s *bedrockSummarizer) Summarize(ctx context.Context, transcript, patientName, visitDate string) (string, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)
	log.Infof("summary_request provider=bedrock model=%q transcript_len=%d", s.modelName, len(transcript))

	client, err := s.newAPIClient(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrSummarizationFailed, err))
	}

	maxTokens := int32(defaultMaxOutputTokens)
	temperature := float32(defaultTemperature)

	output, err := client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(s.modelName),
		System: []bedrocktypes.SystemContentBlock{
			&bedrocktypes.SystemContentBlockMemberText{Value: s.systemPrompt},
		},
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{
						Value: buildUserMessage(transcript, patientName, visitDate),
					},
				},
			},
		},
		InferenceConfig: &bedrocktypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(temperature),
		},
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrSummarizationFailed, err))
	}

	summary, err := extractConverseText(output.Output)
	if err != nil {
		return "", utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrSummarizationFailed, err))
	}

	log.Infof("summary_done latency_ms=%d", time.Since(start).Milliseconds())
	return summary, nil
}

func (s *bedrockSummarizer) newAPIClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := awsconf.Load(ctx)
	if err != nil {
		return nil, err
	}

	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if s.baseURL != "" {
			o.BaseEndpoint = aws.String(s.baseURL)
		}
	}), nil
}

func extractConverseText(output bedrocktypes.ConverseOutput) (string, error) {
	messageOutput, ok := output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || messageOutput == nil {
		return "", fmt.Errorf("converse output is not a message")
	}

	var sb strings.Builder
	for _, block := range messageOutput.Value.Content {
		if textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText); ok {
			sb.WriteString(textBlock.Value)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("converse response contains no text")
	}
	return text, nil
}
