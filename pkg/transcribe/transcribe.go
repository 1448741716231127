package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Transcriber converts an audio artifact into a plain-text transcript in a
// single request/response round trip. No retry, no chunking, no streaming.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact *model.AudioArtifact) (string, error)
}

// Options configures a transcriber. AuthToken falls back to the provider's
// usual environment variable when empty.
type Options struct {
	AuthToken string
	Model     string
	URL       string
}

// New returns the transcriber for the named provider. An empty provider
// selects OpenAI.
func New(provider string, opts Options) (Transcriber, error) {
	switch strings.TrimSpace(provider) {
	case "", ProviderOpenAI:
		return newOpenAITranscriber(opts), nil
	case ProviderGemini:
		return newGeminiTranscriber(opts), nil
	default:
		return nil, utils.WrapIfNotNil(fmt.Errorf("unknown transcription provider %q", provider))
	}
}
