package transcribe

import (
	"context"
	"testing"

	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	tr, err := New("", Options{})
	require.NoError(t, err)
	assert.IsType(t, &openAITranscriber{}, tr)

	tr, err = New(ProviderGemini, Options{AuthToken: "k"})
	require.NoError(t, err)
	assert.IsType(t, &geminiTranscriber{}, tr)

	_, err = New("dragon", Options{})
	assert.ErrorContains(t, err, "unknown transcription provider")
}

func TestOpenAIDefaultsModel(t *testing.T) {
	tr := newOpenAITranscriber(Options{})
	assert.Equal(t, "whisper-1", tr.modelName)

	tr = newOpenAITranscriber(Options{Model: "whisper-large"})
	assert.Equal(t, "whisper-large", tr.modelName)
}

func TestOpenAIRejectsEmptyPayload(t *testing.T) {
	tr := newOpenAITranscriber(Options{AuthToken: "k"})

	_, err := tr.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrTranscriptionFailed)

	_, err = tr.Transcribe(context.Background(), &model.AudioArtifact{FileName: "a.wav"})
	assert.ErrorIs(t, err, model.ErrTranscriptionFailed)
}
