package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
)

// DefaultSystemPrompt is the fixed charting policy. It is not configurable
// per call; deployments may override it globally via configuration.
const DefaultSystemPrompt = `Role: You are a medical scribe assistant. Your task is to generate a structured medical chart from a patient interaction, formatted in Markdown. The chart is organized into the following sections:

Instructions:
Focus on Relevant Information:
- Concentrate on the patient's reason for the visit.
- Exclude unrelated personal details unless they contribute to the patient's stress or affect their health.

Avoid Common Mistakes:
- Spelling: Ensure all medications and medical terms are spelled correctly.
- Repetition: Do not repeat information unnecessarily from the conversation.
- Use bullet points for readability.

Critical Thinking:
- Before charting each section, consider the context and significance of the information.
- Determine what is essential for the patient's medical record.

Formatting Instructions:
- Use Markdown syntax.
- Use H2 (##) for main section titles and H3 (###) for sub-sections.
- Use **bold** for important terms, and bullet points for lists.
- Keep the format concise and structured for readability.

Chart Organization:
## History of Present Illness (HPI)
- Provide a brief overview of why the patient is following up.
- Include bullet points for symptoms, duration, and factors affecting their condition.

## Physical Examination
- Organize findings by system (e.g., **General**, **HEENT**, **LUNGS**).
- Note any abnormalities and normal findings.

## Plan
- Outline the treatment and management plan, including medications, education, and follow-up.
- Use bullet points to list each item clearly.

Note: If no patient interaction or information is provided, create a clearly labeled demo chart to illustrate the format.`

// Bounded output cap for every backend.
const defaultMaxOutputTokens = 300

const defaultTemperature = 0.5

// Summarizer turns a transcript plus light patient context into a
// Markdown-formatted chart in a single round trip.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, patientName, visitDate string) (string, error)
}

// Options configures a summarizer backend.
type Options struct {
	AuthToken    string
	Model        string
	URL          string
	SystemPrompt string // empty selects DefaultSystemPrompt
}

// New returns the summarizer for the named provider. An empty provider
// selects OpenAI.
func New(provider string, opts Options) (Summarizer, error) {
	switch strings.TrimSpace(provider) {
	case "", ProviderOpenAI:
		return newOpenAISummarizer(opts), nil
	case ProviderBedrock:
		return newBedrockSummarizer(opts), nil
	case ProviderOllama:
		return newOllamaSummarizer(opts), nil
	default:
		return nil, utils.WrapIfNotNil(fmt.Errorf("unknown summarization provider %q", provider))
	}
}

func resolveSystemPrompt(opts Options) string {
	if prompt := strings.TrimSpace(opts.SystemPrompt); prompt != "" {
		return prompt
	}
	return DefaultSystemPrompt
}

// buildUserMessage prepends the optional patient context to the transcript.
func buildUserMessage(transcript, patientName, visitDate string) string {
	var sb strings.Builder
	if name := strings.TrimSpace(patientName); name != "" {
		fmt.Fprintf(&sb, "Patient: %s\n", name)
	}
	if date := strings.TrimSpace(visitDate); date != "" {
		fmt.Fprintf(&sb, "Date of visit: %s\n", date)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(transcript)
	return sb.String()
}
