package main

import (
	"testing"

	"github.com/Nephrolytics-ai/chartscribe/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestTranscribeOptionsSelectKeyByProvider(t *testing.T) {
	cfg := &config.Config{
		TranscribeProvider: "openai",
		TranscribeModel:    "whisper-1",
		OpenAIKey:          "sk-openai",
		GeminiKey:          "g-key",
	}

	opts := transcribeOptions(cfg)
	assert.Equal(t, "sk-openai", opts.AuthToken)
	assert.Equal(t, "whisper-1", opts.Model)

	cfg.TranscribeProvider = "gemini"
	opts = transcribeOptions(cfg)
	assert.Equal(t, "g-key", opts.AuthToken)
}

func TestSummarizeOptionsIsolateBackendSettings(t *testing.T) {
	cfg := &config.Config{
		SummaryProvider: "openai",
		OpenAIKey:       "sk-openai",
		OllamaURL:       "http://box:11434",
	}

	opts := summarizeOptions(cfg)
	assert.Equal(t, "sk-openai", opts.AuthToken)
	assert.Empty(t, opts.URL)

	cfg.SummaryProvider = "ollama"
	opts = summarizeOptions(cfg)
	assert.Equal(t, "http://box:11434", opts.URL)
	assert.Empty(t, opts.AuthToken)

	cfg.SummaryProvider = "bedrock"
	opts = summarizeOptions(cfg)
	assert.Empty(t, opts.AuthToken)
	assert.Empty(t, opts.URL)
}
