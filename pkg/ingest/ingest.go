package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

const (
	defaultHTTPTimeout = 90 * time.Second
	defaultExtension   = ".mp3"
)

// Fetcher retrieves audio bytes from a reference URL and normalizes them into
// a transferable artifact. It trusts the transport-declared Content-Type for
// the extension and performs no retries.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{httpClient: &http.Client{Timeout: defaultHTTPTimeout}}
}

// Fetch downloads audioURL and returns the bytes with a synthesized filename
// of the form {logicalName}{extension}. Fails with model.ErrFetchFailed on a
// non-success status.
func (f *Fetcher) Fetch(ctx context.Context, audioURL, logicalName string) (*model.AudioArtifact, error) {
	if strings.TrimSpace(audioURL) == "" {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: audio URL is required", model.ErrFetchFailed))
	}
	if strings.TrimSpace(logicalName) == "" {
		logicalName = "audio"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrFetchFailed, err))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrFetchFailed, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: status %d fetching audio", model.ErrFetchFailed, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%w: %v", model.ErrFetchFailed, err))
	}

	contentType := resp.Header.Get("Content-Type")
	extension := extensionForContentType(contentType)

	logging.NewLogger(ctx).Infof(
		"audio_fetch url=%q content_type=%q bytes=%d", audioURL, contentType, len(data),
	)

	return &model.AudioArtifact{
		Data:     data,
		MIMEType: contentType,
		FileName: logicalName + extension,
	}, nil
}

// extensionForContentType maps the declared media type to a file extension.
// Anything other than mpeg or wav defaults to .mp3.
func extensionForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "audio/mpeg"):
		return ".mp3"
	case strings.Contains(contentType, "audio/wav"):
		return ".wav"
	default:
		return defaultExtension
	}
}
